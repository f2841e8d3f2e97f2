package session

import (
	"encoding/json"
	"os"
	"path/filepath"

	apperrors "github.com/geoasistencia/console/internal/errors"
)

// Loader is the read side of the store, consumed by the request client so it
// can pick up the freshest credential on every call.
type Loader interface {
	Load() (*Session, error)
}

// Store persists one serialized Session under a single well-known path.
// No in-memory cache is kept: every Load reflects the latest Save, including
// writes made by another process between calls.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the current session, or (nil, nil) when no session exists.
// Malformed stored data is treated identically to "no session" and never
// raises: a corrupt file means the operator is logged out.
func (s *Store) Load() (*Session, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "failed to read session file")
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, nil
	}
	if sess.Token == "" {
		return nil, nil
	}
	return &sess, nil
}

// Save persists the full session, replacing any prior value. The write is
// atomic at the granularity of the whole session object: the payload goes to
// a temp file in the same directory and is renamed over the target.
func (s *Store) Save(sess *Session) error {
	if sess == nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "session is required")
	}

	raw, err := json.Marshal(sess)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode session")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return apperrors.Wrap(err, "failed to create session directory")
	}

	tmp, err := os.CreateTemp(dir, "session-*.json")
	if err != nil {
		return apperrors.Wrap(err, "failed to create temp session file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return apperrors.Wrap(err, "failed to write session file")
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return apperrors.Wrap(err, "failed to set session file permissions")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return apperrors.Wrap(err, "failed to close session file")
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return apperrors.Wrap(err, "failed to replace session file")
	}
	return nil
}

// Clear removes all session state. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrap(err, "failed to remove session file")
	}
	return nil
}
