package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SessionFileName is the file SessionStore keeps under the user config dir.
const SessionFileName = "session.json"

// SessionStore persists a SessionState as JSON so separate cvctl runs share
// one login.
type SessionStore struct {
	Path string
}

// DefaultSessionStore points at <user config dir>/cvctl/session.json.
func DefaultSessionStore() (*SessionStore, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return &SessionStore{Path: filepath.Join(dir, "cvctl", SessionFileName)}, nil
}

// Load returns an empty state when nothing has been saved yet.
func (s *SessionStore) Load() (SessionState, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return SessionState{}, nil
	}
	if err != nil {
		return SessionState{}, err
	}
	var st SessionState
	if err := json.Unmarshal(data, &st); err != nil {
		return SessionState{}, fmt.Errorf("corrupt session file %s: %w", s.Path, err)
	}
	return st, nil
}

// Save writes st readable by the current user only.
func (s *SessionStore) Save(st SessionState) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0o600)
}

func (s *SessionStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
