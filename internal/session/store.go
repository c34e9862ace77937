// Package session persists the authenticated user's identity and token pair
// as a single JSON record on disk. The record is all-or-nothing: a missing,
// unreadable, or partial record loads as ErrNoSession, never as a partial
// session.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ruphautomations/ruphctl/internal/domain"
)

// ErrNoSession is returned when no usable session is stored. Malformed or
// partial records are reported the same way as a missing file so callers
// have exactly one "log in again" path.
var ErrNoSession = errors.New("no session")

// TokenPair is the unit of token rotation; tokens are only ever replaced
// together.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Store reads and writes the session record at a fixed path. Writes go
// through a temp file and rename so a crash mid-write never leaves a torn
// record; the mutex serializes concurrent rotations (last write wins).
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save persists the whole session, overwriting any previous record. It
// refuses incomplete sessions: the store never holds a record that Load
// would have to reject.
func (s *Store) Save(sess *domain.Session) error {
	if !sess.Complete() {
		return fmt.Errorf("save session: record is incomplete")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(sess)
}

// Load returns the stored session, or ErrNoSession when nothing usable is
// stored. It never fails on corrupt data; bad records are indistinguishable
// from absent ones.
func (s *Store) Load() (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// UpdateTokens merges a rotated token pair into the existing session and
// re-persists it. Returns ErrNoSession when there is no session to update.
func (s *Store) UpdateTokens(pair TokenPair) error {
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return fmt.Errorf("update tokens: pair is incomplete")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.read()
	if err != nil {
		return err
	}
	sess.AccessToken = pair.AccessToken
	sess.RefreshToken = pair.RefreshToken
	return s.write(sess)
}

// Clear removes the stored session. Clearing an absent session is a no-op.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Store) read() (*domain.Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, ErrNoSession
	}
	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, ErrNoSession
	}
	if !sess.Complete() {
		return nil, ErrNoSession
	}
	return &sess, nil
}

func (s *Store) write(sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "session-*.tmp")
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
