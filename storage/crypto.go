package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"

	"github.com/oipwg/oip-account/types"
)

const (
	envelopeVersion = 1
	envelopeKDF     = "scrypt"

	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 16

	// maxScryptN bounds the cost parameters accepted from stored blobs.
	maxScryptN = 1 << 20
)

// envelope is the serialized form of an encrypted account blob. The KDF
// parameters ride along so they can be raised later without breaking
// blobs sealed under the old cost.
type envelope struct {
	Version    int    `json:"version"`
	KDF        string `json:"kdf"`
	N          int    `json:"n"`
	R          int    `json:"r"`
	P          int    `json:"p"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// sealAccount encrypts data under a key derived from password and returns
// the envelope as JSON.
func sealAccount(data *types.AccountData, password string) ([]byte, error) {
	if password == "" {
		return nil, types.NewError(types.ErrAuthFailed, "password must not be empty")
	}

	plain, err := json.Marshal(data)
	if err != nil {
		return nil, types.WrapError(types.ErrStorageError, "failed to encode account", err)
	}

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, types.WrapError(types.ErrStorageError, "failed to generate salt", err)
	}

	gcm, err := deriveCipher(password, salt, scryptN, scryptR, scryptP)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, types.WrapError(types.ErrStorageError, "failed to generate nonce", err)
	}

	sealed := gcm.Seal(nil, nonce, plain, nil)

	blob, err := json.Marshal(envelope{
		Version:    envelopeVersion,
		KDF:        envelopeKDF,
		N:          scryptN,
		R:          scryptR,
		P:          scryptP,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(sealed),
	})
	if err != nil {
		return nil, types.WrapError(types.ErrStorageError, "failed to encode envelope", err)
	}
	return blob, nil
}

// openAccount decrypts an envelope produced by sealAccount. A wrong password
// and a tampered blob are indistinguishable, both fail authentication.
func openAccount(blob []byte, password string) (*types.AccountData, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, types.WrapError(types.ErrStorageError, "unreadable account blob", err)
	}
	if env.Version != envelopeVersion || env.KDF != envelopeKDF {
		return nil, types.NewError(types.ErrStorageError,
			fmt.Sprintf("unsupported envelope version %d kdf %q", env.Version, env.KDF))
	}
	if env.N <= 1 || env.N > maxScryptN || env.R <= 0 || env.P <= 0 {
		return nil, types.NewError(types.ErrStorageError,
			fmt.Sprintf("envelope carries unreasonable kdf cost n=%d r=%d p=%d", env.N, env.R, env.P))
	}

	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return nil, types.WrapError(types.ErrStorageError, "bad salt encoding", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return nil, types.WrapError(types.ErrStorageError, "bad nonce encoding", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return nil, types.WrapError(types.ErrStorageError, "bad ciphertext encoding", err)
	}

	gcm, err := deriveCipher(password, salt, env.N, env.R, env.P)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, types.NewError(types.ErrStorageError, "bad nonce length")
	}

	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, types.NewError(types.ErrAuthFailed, "wrong password or corrupted account blob")
	}

	var data types.AccountData
	if err := json.Unmarshal(plain, &data); err != nil {
		return nil, types.WrapError(types.ErrStorageError, "failed to decode account", err)
	}
	return &data, nil
}

func deriveCipher(password string, salt []byte, n, r, p int) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(password), salt, n, r, p, scryptKeyLen)
	if err != nil {
		return nil, types.WrapError(types.ErrStorageError, "key derivation failed", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, types.WrapError(types.ErrStorageError, "cipher init failed", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, types.WrapError(types.ErrStorageError, "cipher init failed", err)
	}
	return gcm, nil
}
