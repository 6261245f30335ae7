package utils

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/oipwg/oip-account/types"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ParseArtifact parses an artifact record from JSON and validates it.
// Advertised payment addresses keep their document order.
func ParseArtifact(data []byte) (*types.Artifact, error) {
	var art types.Artifact

	if err := json.Unmarshal(data, &art); err != nil {
		return nil, &types.Error{
			Code:    types.ErrInvalidRequest,
			Message: fmt.Sprintf("failed to parse artifact: %v", err),
		}
	}

	if err := validate.Struct(&art); err != nil {
		return nil, &types.Error{
			Code:    types.ErrInvalidRequest,
			Message: fmt.Sprintf("artifact validation failed: %v", err),
		}
	}

	return &art, nil
}

// ParseConfig parses an account configuration document from JSON and
// validates it.
func ParseConfig(data []byte) (*types.Config, error) {
	var cfg types.Config

	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &types.Error{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("failed to parse config: %v", err),
		}
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, &types.Error{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("config validation failed: %v", err),
		}
	}

	return &cfg, nil
}

// ValidateStruct runs tag based validation on any value.
func ValidateStruct(v interface{}) error {
	return validate.Struct(v)
}
