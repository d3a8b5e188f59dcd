// Package auth stores login sessions (cookies captured from a browser) so a
// gallery that needs an account can be crawled and downloaded as that user.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name sessions are stored under
	KeyringService = "scrollgrab"
	// FallbackDir is the per-user directory used when no keyring is available
	FallbackDir = ".scrollgrab/sessions"

	manifestKey = "_manifest"
)

// ErrSessionExpired is returned when a stored session is past its expiry
var ErrSessionExpired = errors.New("session expired")

// SessionData represents a stored authentication session
type SessionData struct {
	Name      string            `json:"name"`
	URL       string            `json:"url"`
	Cookies   []Cookie          `json:"cookies"`
	Headers   map[string]string `json:"headers,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt time.Time         `json:"expires_at,omitempty"`
}

// Cookie represents a browser cookie
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// Expired reports whether the session has an expiry in the past
func (s *SessionData) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// SetExpiryFromCookies sets ExpiresAt to the latest cookie expiry. Session
// cookies (no expiry) leave it unset.
func (s *SessionData) SetExpiryFromCookies() {
	maxExpires := 0.0
	for _, c := range s.Cookies {
		if c.Expires > maxExpires {
			maxExpires = c.Expires
		}
	}
	s.ExpiresAt = time.Time{}
	if maxExpires > 0 {
		s.ExpiresAt = time.Unix(int64(maxExpires), 0)
	}
}

// Store persists sessions
type Store interface {
	Save(session *SessionData) error
	Load(name string) (*SessionData, error)
	Delete(name string) error
	List() ([]string, error)
}

var (
	defaultStoreOnce sync.Once
	defaultStore     Store
)

// DefaultStore returns the OS keyring store, or a file store under the home
// directory where no keyring is reachable (CI, containers, Codespaces).
func DefaultStore() Store {
	defaultStoreOnce.Do(func() {
		if keyringAvailable() {
			defaultStore = &KeyringStore{}
			return
		}
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		defaultStore = &FileStore{Dir: filepath.Join(home, FallbackDir)}
	})
	return defaultStore
}

func keyringAvailable() bool {
	if os.Getenv("CODESPACES") != "" || os.Getenv("CI") != "" {
		return false
	}
	const probe = "_probe_"
	if err := keyring.Set(KeyringService, probe, "ok"); err != nil {
		return false
	}
	keyring.Delete(KeyringService, probe)
	return true
}

// KeyringStore keeps each session as one keyring secret plus a manifest
// listing the names, since keyrings cannot be enumerated.
type KeyringStore struct{}

// Save stores session and records its name in the manifest
func (k *KeyringStore) Save(session *SessionData) error {
	data, err := encodeSession(session)
	if err != nil {
		return err
	}
	if err := keyring.Set(KeyringService, session.Name, string(data)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return k.updateManifest(session.Name, true)
}

// Load reads a session by name
func (k *KeyringStore) Load(name string) (*SessionData, error) {
	if name == "" {
		return nil, fmt.Errorf("session name cannot be empty")
	}
	data, err := keyring.Get(KeyringService, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load from keyring: %w", err)
	}
	return decodeSession([]byte(data))
}

// Delete removes a session and its manifest entry
func (k *KeyringStore) Delete(name string) error {
	if name == "" {
		return fmt.Errorf("session name cannot be empty")
	}
	if err := keyring.Delete(KeyringService, name); err != nil {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return k.updateManifest(name, false)
}

// List returns the names recorded in the manifest
func (k *KeyringStore) List() ([]string, error) {
	data, err := keyring.Get(KeyringService, manifestKey)
	if err != nil {
		// No manifest yet
		return []string{}, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("failed to deserialize manifest: %w", err)
	}
	return names, nil
}

func (k *KeyringStore) updateManifest(name string, add bool) error {
	names, _ := k.List()
	set := make(map[string]bool, len(names)+1)
	for _, n := range names {
		set[n] = true
	}
	if add {
		set[name] = true
	} else {
		delete(set, name)
	}

	updated := make([]string, 0, len(set))
	for n := range set {
		updated = append(updated, n)
	}
	sort.Strings(updated)

	data, err := json.Marshal(updated)
	if err != nil {
		return err
	}
	return keyring.Set(KeyringService, manifestKey, string(data))
}

// FileStore keeps one JSON file per session in Dir, readable only by the user
type FileStore struct {
	Dir string
}

func (f *FileStore) path(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("session name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid session name %q", name)
	}
	if err := os.MkdirAll(f.Dir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(f.Dir, name+".json"), nil
}

// Save writes session to its file
func (f *FileStore) Save(session *SessionData) error {
	data, err := encodeSession(session)
	if err != nil {
		return err
	}
	path, err := f.path(session.Name)
	if err != nil {
		return fmt.Errorf("failed to get session path: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to save session file: %w", err)
	}
	return nil
}

// Load reads a session file
func (f *FileStore) Load(name string) (*SessionData, error) {
	path, err := f.path(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get session path: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load session file: %w", err)
	}
	return decodeSession(data)
}

// Delete removes a session file; a missing file is not an error
func (f *FileStore) Delete(name string) error {
	path, err := f.path(name)
	if err != nil {
		return fmt.Errorf("failed to get session path: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns the stored session names
func (f *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(f.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	names := []string{}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// LoadValid loads name from store and rejects expired sessions
func LoadValid(store Store, name string) (*SessionData, error) {
	session, err := store.Load(name)
	if err != nil {
		return nil, err
	}
	if session.Expired(time.Now()) {
		return nil, fmt.Errorf("%w: %s", ErrSessionExpired, name)
	}
	return session, nil
}

func encodeSession(session *SessionData) ([]byte, error) {
	if session.Name == "" {
		return nil, fmt.Errorf("session name cannot be empty")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize session: %w", err)
	}
	return data, nil
}

func decodeSession(data []byte) (*SessionData, error) {
	var session SessionData
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to deserialize session: %w", err)
	}
	return &session, nil
}
