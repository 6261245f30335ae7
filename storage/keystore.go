package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oipwg/oip-account/logger"
	"github.com/oipwg/oip-account/types"
)

// Keystore persists blobs in a remote keystore service. Blobs are sealed
// before upload, so the service never sees account plaintext or the
// password.
//
//	POST /v1/accounts        -> 201 {"id": "..."}
//	GET  /v1/accounts/{id}   -> 200 envelope JSON
//	PUT  /v1/accounts/{id}   -> 204
type Keystore struct {
	baseURL string
	client  *http.Client
	log     logger.Logger
}

// NewKeystore builds a keystore-backed adapter. A nil client gets a 30
// second timeout.
func NewKeystore(baseURL string, client *http.Client, log logger.Logger) *Keystore {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Keystore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     logger.OrNoop(log),
	}
}

type createResponse struct {
	ID string `json:"id"`
}

func (k *Keystore) Create(ctx context.Context, data *types.AccountData, password string) (string, error) {
	if data == nil {
		return "", types.NewError(types.ErrInvalidRequest, "account data is required")
	}
	blob, err := sealAccount(data, password)
	if err != nil {
		return "", err
	}

	body, status, err := k.do(ctx, http.MethodPost, k.baseURL+"/v1/accounts", blob)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return "", keystoreError(status, body)
	}

	var created createResponse
	if err := json.Unmarshal(body, &created); err != nil || created.ID == "" {
		return "", types.NewError(types.ErrStorageError, "keystore returned no account id")
	}

	data.ID = created.ID
	k.log.Debug("keystore account created", map[string]any{"id": created.ID})
	return created.ID, nil
}

func (k *Keystore) Load(ctx context.Context, id, password string) (*types.AccountData, error) {
	if id == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "account id is required")
	}

	body, status, err := k.do(ctx, http.MethodGet, k.accountURL(id), nil)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return openAccount(body, password)
	case http.StatusNotFound:
		return nil, notFound(id)
	default:
		return nil, keystoreError(status, body)
	}
}

func (k *Keystore) Save(ctx context.Context, data *types.AccountData, password string) error {
	if data == nil || data.ID == "" {
		return types.NewError(types.ErrInvalidRequest, "account id is required")
	}
	blob, err := sealAccount(data, password)
	if err != nil {
		return err
	}

	body, status, err := k.do(ctx, http.MethodPut, k.accountURL(data.ID), blob)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return notFound(data.ID)
	default:
		return keystoreError(status, body)
	}
}

func (k *Keystore) accountURL(id string) string {
	return k.baseURL + "/v1/accounts/" + url.PathEscape(id)
}

func (k *Keystore) do(ctx context.Context, method, target string, payload []byte) ([]byte, int, error) {
	if k.baseURL == "" {
		return nil, 0, types.NewError(types.ErrConfigError, "keystore url is not configured")
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, 0, types.WrapError(types.ErrStorageError, "failed to build keystore request", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := k.client.Do(req)
	if err != nil {
		return nil, 0, types.WrapError(types.ErrStorageError, "keystore request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, 0, types.WrapError(types.ErrStorageError, "failed to read keystore response", err)
	}
	return body, resp.StatusCode, nil
}

func keystoreError(status int, body []byte) error {
	var er struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &er) == nil && er.Error != "" {
		return types.NewError(types.ErrStorageError, fmt.Sprintf("keystore refused request: %s", er.Error))
	}
	return types.NewError(types.ErrStorageError, fmt.Sprintf("keystore returned status %d", status))
}
