package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/oipwg/oip-account/types"
)

// fakeKeystore is an httptest backend that stores whatever bodies it is
// given and keeps a copy of every one for leak assertions.
type fakeKeystore struct {
	mu     sync.Mutex
	blobs  map[string][]byte
	bodies [][]byte
	nextID int
}

func newFakeKeystore() *fakeKeystore {
	return &fakeKeystore{blobs: make(map[string][]byte)}
}

func (f *fakeKeystore) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/accounts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, _ := io.ReadAll(r.Body)

		f.mu.Lock()
		f.bodies = append(f.bodies, body)
		f.nextID++
		id := fmt.Sprintf("ks-%d", f.nextID)
		f.blobs[id] = body
		f.mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"id":%q}`, id)
	})
	mux.HandleFunc("/v1/accounts/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/v1/accounts/")

		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			blob, ok := f.blobs[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"error":"no such account"}`)
				return
			}
			w.Write(blob)
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.bodies = append(f.bodies, body)
			if _, ok := f.blobs[id]; !ok {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"error":"no such account"}`)
				return
			}
			f.blobs[id] = body
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	return mux
}

func (f *fakeKeystore) sawPlaintext(secrets ...string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, body := range f.bodies {
		for _, secret := range secrets {
			if bytes.Contains(body, []byte(secret)) {
				return true
			}
		}
	}
	return false
}

func TestKeystoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeKeystore()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	store := NewKeystore(srv.URL, srv.Client(), nil)

	data := testAccountData()
	data.ID = ""
	id, err := store.Create(ctx, data, "hunter2")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id != "ks-1" || data.ID != "ks-1" {
		t.Fatalf("Create() id = %q, data.ID = %q, want ks-1", id, data.ID)
	}

	got, err := store.Load(ctx, id, "hunter2")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Email != data.Email || got.WalletSeed != data.WalletSeed {
		t.Fatalf("Load() = %+v, want fields of %+v", got, data)
	}

	got.Settings["theme"] = "light"
	if err := store.Save(ctx, got, "hunter2"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	again, err := store.Load(ctx, id, "hunter2")
	if err != nil {
		t.Fatalf("Load() after save error = %v", err)
	}
	if again.Settings["theme"] != "light" {
		t.Fatalf("saved settings not persisted: %+v", again.Settings)
	}

	if fake.sawPlaintext(data.Email, data.WalletSeed, "hunter2") {
		t.Fatal("keystore received account plaintext or the password")
	}
}

func TestKeystoreLoadMissing(t *testing.T) {
	fake := newFakeKeystore()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	store := NewKeystore(srv.URL, srv.Client(), nil)
	_, err := store.Load(context.Background(), "ghost", "hunter2")
	if !types.IsCode(err, types.ErrAccountNotFound) {
		t.Fatalf("Load() error = %v, want %s", err, types.ErrAccountNotFound)
	}
}

func TestKeystoreServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"disk on fire"}`)
	}))
	defer srv.Close()

	store := NewKeystore(srv.URL, srv.Client(), nil)
	_, err := store.Create(context.Background(), testAccountData(), "hunter2")

	var terr *types.Error
	if !errors.As(err, &terr) || terr.Code != types.ErrStorageError {
		t.Fatalf("Create() error = %v, want %s", err, types.ErrStorageError)
	}
	if !terr.Retryable() {
		t.Fatal("storage errors should be retryable")
	}
	if !strings.Contains(terr.Message, "disk on fire") {
		t.Fatalf("Create() error message %q does not surface the server error", terr.Message)
	}
}

func TestKeystoreUnconfigured(t *testing.T) {
	store := NewKeystore("", nil, nil)
	_, err := store.Load(context.Background(), "acct-1", "hunter2")
	if !types.IsCode(err, types.ErrConfigError) {
		t.Fatalf("Load() error = %v, want %s", err, types.ErrConfigError)
	}
}
