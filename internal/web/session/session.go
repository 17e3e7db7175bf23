// Package session keeps per-browser state behind an opaque random id carried
// in a cookie.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	pkgerrors "github.com/pkg/errors"

	"github.com/entra-rp/entra-rp/internal/auth"
)

// ErrNotFound is returned by Store.Get for unknown or expired ids.
var ErrNotFound = errors.New("session not found")

// Data represents the session data structure.
type Data struct {
	TokenSet  *auth.TokenSet `json:"tokenSet,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Authenticated reports whether a token set was stored by the callback.
func (d *Data) Authenticated() bool {
	return d != nil && d.TokenSet != nil
}

// Store reads, writes and destroys session records by id.
type Store interface {
	Get(id string) (*Data, error)
	Set(id string, data *Data) error
	Destroy(id string) error
}

// StorageStore is a Store backed by any fiber storage (memory, mysql, postgres, gorm).
type StorageStore struct {
	Storage fiber.Storage
	exp     time.Duration
}

var _ Store = (*StorageStore)(nil)

// NewStorageStore wraps storage, records expire after exp.
func NewStorageStore(storage fiber.Storage, exp time.Duration) *StorageStore {
	if storage == nil {
		panic("storage is nil")
	}

	return &StorageStore{Storage: storage, exp: exp}
}

// Get reads the session data for the given session ID.
func (s *StorageStore) Get(id string) (*Data, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	raw, err := s.Storage.Get(id)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read session")
	}

	if len(raw) == 0 {
		return nil, ErrNotFound
	}

	data := new(Data)
	if err = json.Unmarshal(raw, data); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to decode session")
	}

	return data, nil
}

// Set writes the session data for the given session ID.
func (s *StorageStore) Set(id string, data *Data) error {
	out, err := json.Marshal(data)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to encode session")
	}

	return pkgerrors.Wrap(s.Storage.Set(id, out, s.exp), "failed to write session")
}

// Destroy deletes the session record.
func (s *StorageStore) Destroy(id string) error {
	return pkgerrors.Wrap(s.Storage.Delete(id), "failed to delete session")
}

// Close releases the storage.
func (s *StorageStore) Close() error {
	return s.Storage.Close() //nolint:wrapcheck
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", pkgerrors.Wrap(err, "failed to read random bytes")
	}

	return hex.EncodeToString(b), nil
}
