package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Session is the client-side record of a signed-in user: the opaque
// bearer token and the cached display name shown in the header. The two
// fields are written and cleared together; there is at most one session.
type Session struct {
	Token       string `json:"access_token"`
	DisplayName string `json:"display_name"`
}

// Active reports whether a token is held.
func (s *Session) Active() bool {
	return s.Token != ""
}

// Store persists the session as a single JSON file.
//
// Only three paths ever write through a Store: login, logout, and the
// forced logout after the backend rejects a token. Everything else reads.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted session. A missing file is not an error: it
// yields an empty (signed-out) session.
func (st *Store) Load() (*Session, error) {
	data, err := os.ReadFile(st.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Session{}, nil
		}
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("corrupt session file %s: %w", st.path, err)
	}
	return &s, nil
}

// Save writes the session. The file holds a credential, so it is not
// group- or world-readable.
func (st *Store) Save(s *Session) error {
	dir := filepath.Dir(st.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(st.path, data, 0600)
}

// Clear removes the persisted session. Clearing an already-absent
// session is not an error.
func (st *Store) Clear() error {
	if err := os.Remove(st.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
