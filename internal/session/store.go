package session

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Store persists the two session fields across restarts. The contents are
// opaque to everything above it: a token and the username it belongs to.
type Store interface {
	Load() (token, username string, err error)
	Save(token, username string) error
	Clear() error
}

const sessionFile = "session.json"

// FileStore keeps the session in a 0600 JSON file under the user config dir.
type FileStore struct {
	// Dir overrides the base directory; empty means os.UserConfigDir()/teller.
	Dir string
}

type sessionRecord struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

func (s *FileStore) path() (string, error) {
	dir := s.Dir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, "teller")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, sessionFile), nil
}

func (s *FileStore) Load() (string, string, error) {
	path, err := s.path()
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", nil
		}
		return "", "", err
	}
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// Unreadable session file means no session.
		return "", "", nil
	}
	return rec.Token, rec.Username, nil
}

func (s *FileStore) Save(token, username string) error {
	path, err := s.path()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(sessionRecord{Token: token, Username: username}, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *FileStore) Clear() error {
	path, err := s.path()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
