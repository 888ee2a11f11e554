// Package session persists the access/refresh token pair between runs.
package session

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"

	"todo/internal/service"
)

// Store holds the current session. Get returns nil when no session is
// stored. Implementations perform no network calls and no validation of
// token shape; that burden lies with the server.
type Store interface {
	Get() (*service.Session, error)
	Set(service.Session) error
	Clear() error
}

// FileStore persists the session as an oauth2.Token JSON document at a
// fixed path. The file survives restarts until Clear or manual removal;
// last writer wins.
type FileStore struct {
	Path string
}

// NewFileStore creates a FileStore backed by the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Get reads the stored session. A missing file means no session.
func (s *FileStore) Get() (*service.Session, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid session file: %w", err)
	}
	return &service.Session{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}, nil
}

// Set writes the session with mode 0600.
func (s *FileStore) Set(sess service.Session) error {
	token := oauth2.Token{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
	}
	data, err := json.MarshalIndent(&token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0600)
}

// Clear removes the stored session. Clearing an absent session is not an
// error.
func (s *FileStore) Clear() error {
	err := os.Remove(s.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	sess *service.Session
}

// Get implements Store.
func (s *MemStore) Get() (*service.Session, error) {
	if s.sess == nil {
		return nil, nil
	}
	sess := *s.sess
	return &sess, nil
}

// Set implements Store.
func (s *MemStore) Set(sess service.Session) error {
	s.sess = &sess
	return nil
}

// Clear implements Store.
func (s *MemStore) Clear() error {
	s.sess = nil
	return nil
}
