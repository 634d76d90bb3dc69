// Package sessionstore persists the library session (server URL, username and
// session token) between runs. The token is sealed at rest; passwords are
// never stored.
package sessionstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/mrlokans/jelu-importer/internal/crypto"
	"github.com/mrlokans/jelu-importer/internal/database"
	"github.com/mrlokans/jelu-importer/internal/entities"
)

const (
	// EnvEncryptionKey is the environment variable holding the session key.
	EnvEncryptionKey = "SESSION_ENCRYPTION_KEY"

	// DefaultKeyFileName is created in the home directory when no key is configured.
	DefaultKeyFileName = ".jelu-importer-key"
)

// ErrUnknownKey is returned for keys outside the persisted session.
var ErrUnknownKey = errors.New("unknown session key")

// sealedKeys lists the accepted keys and whether each is sealed at rest.
var sealedKeys = map[string]bool{
	entities.SettingKeyServiceURL: false,
	entities.SettingKeyUsername:   false,
	entities.SettingKeyToken:      true,
}

// Session is the persisted subset of a library session.
type Session struct {
	ServiceURL string
	Username   string
	Token      string
}

// Complete reports whether the session can be restored without a password.
func (s Session) Complete() bool {
	return s.ServiceURL != "" && s.Username != "" && s.Token != ""
}

type Store struct {
	db     *database.Database
	sealer *crypto.Sealer
	ownsDB bool
}

type Config struct {
	DatabasePath  string
	EncryptionKey string
	// KeyFilePath defaults to ~/.jelu-importer-key.
	KeyFilePath string
}

// New opens the database at cfg.DatabasePath and resolves the session key.
func New(cfg Config) (*Store, error) {
	sealer, err := newSealer(cfg)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	return &Store{db: db, sealer: sealer, ownsDB: true}, nil
}

// NewWithDatabase builds a store over an already open database.
func NewWithDatabase(db *database.Database, sealer *crypto.Sealer) *Store {
	return &Store{db: db, sealer: sealer}
}

func newSealer(cfg Config) (*crypto.Sealer, error) {
	keyFile := cfg.KeyFilePath
	if keyFile == "" {
		keyFile = DefaultKeyFilePath()
	}

	key, generated, err := crypto.KeySource{
		Explicit: cfg.EncryptionKey,
		EnvVar:   EnvEncryptionKey,
		FilePath: keyFile,
	}.Resolve()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session key: %w", err)
	}
	if generated {
		logrus.WithField("path", keyFile).Info("Generated new session key")
	}

	sealer, err := crypto.NewSealerFromBase64(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create sealer: %w", err)
	}
	return sealer, nil
}

// DefaultKeyFilePath returns ~/.jelu-importer-key, or the bare file name when
// the home directory is unknown.
func DefaultKeyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultKeyFileName
	}
	return filepath.Join(home, DefaultKeyFileName)
}

// Get returns the value stored under key and whether it was present.
func (s *Store) Get(key string) (string, bool, error) {
	if _, ok := sealedKeys[key]; !ok {
		return "", false, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	setting, err := s.db.GetSetting(key)
	if errors.Is(err, database.ErrSettingNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	if !setting.Encrypted {
		return setting.Value, true, nil
	}
	value, err := s.sealer.Open(setting.Value)
	if err != nil {
		return "", false, fmt.Errorf("failed to open %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, sealing it when the key is secret.
func (s *Store) Set(key, value string) error {
	sealed, ok := sealedKeys[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	if sealed {
		v, err := s.sealer.Seal(value)
		if err != nil {
			return fmt.Errorf("failed to seal %s: %w", key, err)
		}
		value = v
	}

	if err := s.db.SetSetting(key, value, sealed); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Remove deletes the given keys. Missing keys are ignored.
func (s *Store) Remove(keys ...string) error {
	for _, key := range keys {
		if _, ok := sealedKeys[key]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownKey, key)
		}
		if err := s.db.DeleteSetting(key); err != nil {
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}
	return nil
}

// Load reads the whole session. Missing keys come back empty.
func (s *Store) Load() (Session, error) {
	var session Session
	fields := []struct {
		key string
		dst *string
	}{
		{entities.SettingKeyServiceURL, &session.ServiceURL},
		{entities.SettingKeyUsername, &session.Username},
		{entities.SettingKeyToken, &session.Token},
	}
	for _, f := range fields {
		value, _, err := s.Get(f.key)
		if err != nil {
			return Session{}, err
		}
		*f.dst = value
	}
	return session, nil
}

// Save writes the session. An empty token removes the stored one.
func (s *Store) Save(session Session) error {
	if err := s.Set(entities.SettingKeyServiceURL, session.ServiceURL); err != nil {
		return err
	}
	if err := s.Set(entities.SettingKeyUsername, session.Username); err != nil {
		return err
	}
	if session.Token == "" {
		return s.Remove(entities.SettingKeyToken)
	}
	return s.Set(entities.SettingKeyToken, session.Token)
}

// Clear removes every persisted session key.
func (s *Store) Clear() error {
	return s.Remove(entities.SettingKeyServiceURL, entities.SettingKeyUsername, entities.SettingKeyToken)
}

// Close closes the database when the store opened it.
func (s *Store) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

// Database returns the underlying settings database.
func (s *Store) Database() *database.Database {
	return s.db
}
