package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/loomhq/loom/internal/api"
	"github.com/loomhq/loom/internal/models"
	"github.com/loomhq/loom/internal/service/storage"
)

// SessionService owns the credential and the cached profile. It feeds the
// API client its bearer token and clears itself whenever any call observes
// a 401.
type SessionService struct {
	mu        sync.RWMutex
	client    *api.Client
	store     *storage.Store
	session   *models.Session
	onCleared func()
}

func NewSessionService(client *api.Client, store *storage.Store) *SessionService {
	s := &SessionService{
		client: client,
		store:  store,
	}

	if store != nil {
		session, err := store.LoadSession()
		if err != nil {
			log.Printf("failed to load cached session: %v", err)
		} else if session != nil {
			s.session = session
		}
	}

	return s
}

// SetClearedHook registers a callback invoked whenever the session is
// cleared outside an explicit logout, so the view can prompt for re-login.
func (s *SessionService) SetClearedHook(fn func()) {
	s.mu.Lock()
	s.onCleared = fn
	s.mu.Unlock()
}

func (s *SessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return ""
	}
	return s.session.Token
}

func (s *SessionService) CurrentUser() *models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil || s.session.User == nil {
		return nil
	}
	user := *s.session.User
	return &user
}

// IsAuthenticated reports whether both the token and the profile are
// present and the token, when it parses as a JWT, has not expired.
func (s *SessionService) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil || s.session.Token == "" || s.session.User == nil {
		return false
	}
	return !tokenExpired(s.session.Token)
}

// tokenExpired inspects the token's exp claim without verifying the
// signature; the backend is the authority, this only avoids issuing
// requests that are certain to 401. Tokens that do not parse are treated
// as opaque and assumed live.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

// Login exchanges credentials for a token, then fetches the profile. Both
// steps must succeed; a token without a profile is cleared rather than
// left half-established.
func (s *SessionService) Login(ctx context.Context, email, password string) (*models.UserProfile, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}

	token, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	// The profile fetch below authenticates with this token.
	s.mu.Lock()
	s.session = &models.Session{Token: token}
	s.mu.Unlock()

	profile, err := s.client.CurrentUser(ctx)
	if err != nil {
		s.clear()
		return nil, fmt.Errorf("failed to fetch profile after login: %w", err)
	}

	s.mu.Lock()
	s.session = &models.Session{Token: token, User: profile}
	s.mu.Unlock()
	s.persist()

	return profile, nil
}

// Register creates the account then chains into Login, matching the
// backend's register-then-login flow.
func (s *SessionService) Register(ctx context.Context, name, email, password string) (*models.UserProfile, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}

	firstName, lastName := splitName(name)
	_, err := s.client.Register(ctx, api.RegisterRequest{
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
		IsActive:  true,
	})
	if err != nil {
		return nil, err
	}

	return s.Login(ctx, email, password)
}

// Logout clears the stored credential and profile locally; the backend is
// not called.
func (s *SessionService) Logout() {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.ClearSession(); err != nil {
			log.Printf("failed to clear cached session: %v", err)
		}
	}
}

// HandleUnauthorized is wired to the API client's 401 hook.
func (s *SessionService) HandleUnauthorized() {
	s.clear()
}

func (s *SessionService) clear() {
	s.mu.Lock()
	hadSession := s.session != nil
	s.session = nil
	onCleared := s.onCleared
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.ClearSession(); err != nil {
			log.Printf("failed to clear cached session: %v", err)
		}
	}

	if hadSession && onCleared != nil {
		onCleared()
	}
}

func (s *SessionService) persist() {
	if s.store == nil {
		return
	}

	s.mu.RLock()
	session := s.session
	s.mu.RUnlock()

	if session == nil {
		return
	}
	if err := s.store.SaveSession(session); err != nil {
		log.Printf("failed to persist session: %v", err)
	}
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
