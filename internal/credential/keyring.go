package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/99designs/keyring"

	"github.com/TOTORON9625/DevTodo/internal/model"
)

const (
	serviceName = "devtodo"

	// SessionKey is the single keyring slot holding the serialized session.
	SessionKey = "devtodo_session"
)

// SessionStore is the durable slot for the signed-in session.
type SessionStore interface {
	// Load returns the persisted session, or nil when none is stored.
	Load() (*model.Session, error)

	// Save persists the session, replacing any previous one.
	Save(s *model.Session) error

	// Clear removes the persisted session. Clearing an empty slot is not
	// an error.
	Clear() error
}

// KeyringStore keeps the session as JSON under SessionKey in a keyring.
type KeyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore wraps an already opened keyring.
func NewKeyringStore(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

// Open returns a KeyringStore backed by the system keyring, falling back to
// an encrypted file under ~/.config/devtodo/credentials.
func Open() (*KeyringStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/devtodo/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("devtodo-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewKeyringStore(ring), nil
}

// Load reads the session slot. A missing item or an unreadable payload both
// mean "no session"; an unreadable payload is also cleared.
func (k *KeyringStore) Load() (*model.Session, error) {
	item, err := k.ring.Get(SessionKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting credential %q: %w", SessionKey, err)
	}

	var s model.Session
	if err := json.Unmarshal(item.Data, &s); err != nil || !s.Valid() {
		log.Printf("discarding unreadable session in %q", SessionKey)
		if err := k.Clear(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return &s, nil
}

// Save serializes the session into the slot.
func (k *KeyringStore) Save(s *model.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	err = k.ring.Set(keyring.Item{
		Key:  SessionKey,
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", SessionKey, err)
	}

	return nil
}

// Clear removes the slot.
func (k *KeyringStore) Clear() error {
	err := k.ring.Remove(SessionKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", SessionKey, err)
	}
	return nil
}

// MemoryStore is a SessionStore that lives only for the process.
type MemoryStore struct {
	session *model.Session
}

// Load returns a copy of the held session.
func (m *MemoryStore) Load() (*model.Session, error) {
	if m.session == nil {
		return nil, nil
	}
	s := *m.session
	return &s, nil
}

// Save holds a copy of s.
func (m *MemoryStore) Save(s *model.Session) error {
	cp := *s
	m.session = &cp
	return nil
}

// Clear drops the held session.
func (m *MemoryStore) Clear() error {
	m.session = nil
	return nil
}
