package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/google/uuid"

	"github.com/oipwg/oip-account/types"
)

// idPattern is the set of account ids File will touch on disk. Anything
// else could smuggle in a path separator.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// File stores one encrypted blob per account under a directory. The
// directory is created 0700 and blobs are written 0600.
type File struct {
	dir string
	mu  sync.Mutex
}

// NewFile opens (creating if needed) a directory-backed store.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, types.NewError(types.ErrConfigError, "storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, types.WrapError(types.ErrStorageError, "failed to create storage directory", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(id string) (string, error) {
	if id == "" || !idPattern.MatchString(id) {
		return "", types.NewError(types.ErrInvalidRequest, fmt.Sprintf("invalid account id %q", id))
	}
	return filepath.Join(f.dir, id+".json"), nil
}

func (f *File) Create(_ context.Context, data *types.AccountData, password string) (string, error) {
	if data == nil {
		return "", types.NewError(types.ErrInvalidRequest, "account data is required")
	}
	if data.ID == "" {
		data.ID = uuid.NewString()
	}

	path, err := f.path(data.ID)
	if err != nil {
		return "", err
	}
	blob, err := sealAccount(data, password)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", types.NewError(types.ErrStorageError, fmt.Sprintf("account %s already exists", data.ID))
		}
		return "", types.WrapError(types.ErrStorageError, "failed to create account file", err)
	}
	defer fh.Close()

	if _, err := fh.Write(blob); err != nil {
		return "", types.WrapError(types.ErrStorageError, "failed to write account file", err)
	}
	return data.ID, nil
}

func (f *File) Load(_ context.Context, id, password string) (*types.AccountData, error) {
	path, err := f.path(id)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	blob, err := os.ReadFile(path)
	f.mu.Unlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, notFound(id)
		}
		return nil, types.WrapError(types.ErrStorageError, "failed to read account file", err)
	}
	return openAccount(blob, password)
}

func (f *File) Save(_ context.Context, data *types.AccountData, password string) error {
	if data == nil || data.ID == "" {
		return types.NewError(types.ErrInvalidRequest, "account id is required")
	}
	path, err := f.path(data.ID)
	if err != nil {
		return err
	}
	blob, err := sealAccount(data, password)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return notFound(data.ID)
		}
		return types.WrapError(types.ErrStorageError, "failed to stat account file", err)
	}
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		return types.WrapError(types.ErrStorageError, "failed to write account file", err)
	}
	return nil
}
