package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/oipwg/oip-account/types"
)

// Memory keeps encrypted blobs in a map. Useful for tests and short lived
// tools that have no business writing to disk.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemory returns an empty in-memory adapter.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (m *Memory) Create(_ context.Context, data *types.AccountData, password string) (string, error) {
	if data == nil {
		return "", types.NewError(types.ErrInvalidRequest, "account data is required")
	}
	if data.ID == "" {
		data.ID = uuid.NewString()
	}

	blob, err := sealAccount(data, password)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.blobs[data.ID]; exists {
		return "", types.NewError(types.ErrStorageError, fmt.Sprintf("account %s already exists", data.ID))
	}
	m.blobs[data.ID] = blob
	return data.ID, nil
}

func (m *Memory) Load(_ context.Context, id, password string) (*types.AccountData, error) {
	m.mu.RLock()
	blob, ok := m.blobs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	return openAccount(blob, password)
}

func (m *Memory) Save(_ context.Context, data *types.AccountData, password string) error {
	if data == nil || data.ID == "" {
		return types.NewError(types.ErrInvalidRequest, "account id is required")
	}

	blob, err := sealAccount(data, password)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[data.ID]; !ok {
		return notFound(data.ID)
	}
	m.blobs[data.ID] = blob
	return nil
}
