package storage

import (
	"encoding/json"
	"fmt"

	"github.com/loomhq/loom/internal/models"
)

const (
	sessionKey      = "session"
	activeThreadKey = "thread:active"
)

type sessionRecord struct {
	Token string              `json:"token"`
	User  *models.UserProfile `json:"user"`
}

// SaveSession overwrites the cached session wholesale; there is never more
// than one.
func (s *Store) SaveSession(session *models.Session) error {
	if session == nil || session.Token == "" {
		return fmt.Errorf("session token is required")
	}

	data, err := json.Marshal(sessionRecord{
		Token: session.Token,
		User:  session.User,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return s.Put([]byte(sessionKey), data)
}

// LoadSession returns the cached session, or nil when none is stored.
func (s *Store) LoadSession() (*models.Session, error) {
	value, err := s.Get([]byte(sessionKey))
	if err != nil {
		return nil, err
	}
	if len(value) == 0 {
		return nil, nil
	}

	var record sessionRecord
	if err := json.Unmarshal(value, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if record.Token == "" {
		return nil, nil
	}

	return &models.Session{Token: record.Token, User: record.User}, nil
}

func (s *Store) ClearSession() error {
	return s.Delete([]byte(sessionKey))
}

func (s *Store) SaveActiveThread(threadID string) error {
	if threadID == "" {
		return s.Delete([]byte(activeThreadKey))
	}
	return s.Put([]byte(activeThreadKey), []byte(threadID))
}

func (s *Store) LoadActiveThread() (string, error) {
	value, err := s.Get([]byte(activeThreadKey))
	if err != nil {
		return "", err
	}
	return string(value), nil
}
