// file: internal/config/token.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/taskdash/internal/logging"
	"github.com/zalando/go-keyring"
)

const (
	keyringService = "taskdash"          // Service name for keyring.
	keyringAccount = "clickup-api-token" // Account name for keyring entry.
)

// TokenData is what gets persisted for the API token.
type TokenData struct {
	Token     string    `json:"token"`
	TeamID    string    `json:"teamId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TokenStore persists the ClickUp API token.
type TokenStore interface {
	// Name identifies the store in logs and as a token source.
	Name() string
	// LoadToken returns "" and no error when nothing is stored.
	LoadToken() (string, error)
	SaveToken(token, teamID string) error
	DeleteToken() error
}

// NewTokenStore returns the OS keyring store when the keyring is reachable,
// otherwise a file store at path.
func NewTokenStore(path string, logger logging.Logger) (TokenStore, error) {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	secure := NewKeyringTokenStore(logger)
	if secure.IsAvailable() {
		logger.Debug("Using secure token storage (OS keyring).")
		return secure, nil
	}
	logger.Info("Secure token storage not available, falling back to file-based storage.", "path", path)
	return NewFileTokenStore(path, logger)
}

func newTokenData(token, teamID string, createdAt time.Time) TokenData {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		createdAt = now
	}
	return TokenData{Token: token, TeamID: teamID, CreatedAt: createdAt, UpdatedAt: now}
}

// KeyringTokenStore keeps the token in the OS keychain.
type KeyringTokenStore struct {
	logger logging.Logger
}

var _ TokenStore = (*KeyringTokenStore)(nil)

// NewKeyringTokenStore creates a keyring-backed store.
func NewKeyringTokenStore(logger logging.Logger) *KeyringTokenStore {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &KeyringTokenStore{logger: logger.WithField("store", "keyring")}
}

// Name implements TokenStore.
func (s *KeyringTokenStore) Name() string { return "keyring" }

// IsAvailable checks if the OS keyring service is accessible.
func (s *KeyringTokenStore) IsAvailable() bool {
	_, err := keyring.Get(keyringService, keyringAccount)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		s.logger.Warn("Keyring service is inaccessible or permissions are insufficient.", "error", err)
		return false
	}
	return true
}

func (s *KeyringTokenStore) load() (*TokenData, error) {
	raw, err := keyring.Get(keyringService, keyringAccount)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		s.logger.Error("keyring.Get operation failed.", "error", fmt.Sprintf("%+v", err))
		return nil, errors.Wrap(err, "failed to load token from system keyring")
	}
	var data TokenData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		s.logger.Error("Token data in keyring is corrupted, deleting it.", "error", err)
		_ = s.DeleteToken()
		return nil, errors.Wrap(err, "failed to parse token data from system keyring")
	}
	return &data, nil
}

// LoadToken implements TokenStore.
func (s *KeyringTokenStore) LoadToken() (string, error) {
	data, err := s.load()
	if err != nil || data == nil {
		return "", err
	}
	return data.Token, nil
}

// SaveToken implements TokenStore. An existing entry keeps its creation time.
func (s *KeyringTokenStore) SaveToken(token, teamID string) error {
	if token == "" {
		return errors.New("cannot save empty token to keyring")
	}
	var createdAt time.Time
	if existing, err := s.load(); err == nil && existing != nil {
		createdAt = existing.CreatedAt
	}
	data, err := json.Marshal(newTokenData(token, teamID, createdAt))
	if err != nil {
		return errors.Wrap(err, "failed to encode token data for secure storage")
	}
	if err := keyring.Set(keyringService, keyringAccount, string(data)); err != nil {
		s.logger.Error("keyring.Set operation failed.", "error", fmt.Sprintf("%+v", err))
		return errors.Wrap(err, "failed to save token to system keyring")
	}
	s.logger.Info("ClickUp API token saved to system keyring.")
	return nil
}

// DeleteToken implements TokenStore. Deleting a missing entry is not an error.
func (s *KeyringTokenStore) DeleteToken() error {
	if err := keyring.Delete(keyringService, keyringAccount); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return errors.Wrap(err, "failed to delete token from system keyring")
	}
	s.logger.Info("ClickUp API token deleted from system keyring.")
	return nil
}

// FileTokenStore keeps the token in a 0600 JSON file.
type FileTokenStore struct {
	path   string
	logger logging.Logger
	mu     sync.RWMutex
}

var _ TokenStore = (*FileTokenStore)(nil)

// NewFileTokenStore creates the store, making the parent directory if needed.
func NewFileTokenStore(path string, logger logging.Logger) (*FileTokenStore, error) {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o700); err != nil {
		return nil, errors.Wrap(err, "failed to create token directory")
	}
	return &FileTokenStore{path: expanded, logger: logger.WithField("store", "file")}, nil
}

// Name implements TokenStore.
func (s *FileTokenStore) Name() string { return "token file" }

// Path returns the token file location.
func (s *FileTokenStore) Path() string { return s.path }

func (s *FileTokenStore) read() (*TokenData, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read token file")
	}
	var td TokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return nil, errors.Wrap(err, "failed to parse token data")
	}
	return &td, nil
}

// LoadToken implements TokenStore.
func (s *FileTokenStore) LoadToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, err := s.read()
	if err != nil || td == nil {
		return "", err
	}
	return td.Token, nil
}

// SaveToken implements TokenStore.
func (s *FileTokenStore) SaveToken(token, teamID string) error {
	if token == "" {
		return errors.New("cannot save empty token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var createdAt time.Time
	if existing, err := s.read(); err == nil && existing != nil {
		createdAt = existing.CreatedAt
	}
	data, err := json.MarshalIndent(newTokenData(token, teamID, createdAt), "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal token data")
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return errors.Wrap(err, "failed to write token file")
	}
	s.logger.Debug("ClickUp API token saved to file.", "path", s.path)
	return nil
}

// DeleteToken implements TokenStore.
func (s *FileTokenStore) DeleteToken() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to delete token file")
	}
	return nil
}
