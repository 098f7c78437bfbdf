package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/loomhq/loom/internal/api"
	"github.com/loomhq/loom/internal/models"
	"github.com/loomhq/loom/internal/service/storage"
)

func newSessionBackend(t *testing.T) (*api.Client, *SessionService, *atomic.Bool) {
	t.Helper()

	var reject atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/jwt/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("password") != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail": "LOGIN_BAD_CREDENTIALS"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "tok-login", "token_type": "bearer"}`))
	})
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 1, "email": "user@example.com", "first_name": "Ada", "last_name": "Lovelace"}`))
	})
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		if reject.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.Equal(t, "Bearer tok-login", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 1, "email": "user@example.com", "is_active": true}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := api.NewClient(server.URL, 5*time.Second)
	sessions := NewSessionService(client, nil)
	client.SetTokenSource(sessions.Token)
	client.SetUnauthorizedHook(sessions.HandleUnauthorized)

	return client, sessions, &reject
}

func TestLoginEstablishesSession(t *testing.T) {
	_, sessions, _ := newSessionBackend(t)

	profile, err := sessions.Login(context.Background(), "user@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, 1, profile.ID)

	require.True(t, sessions.IsAuthenticated())
	require.Equal(t, "tok-login", sessions.Token())

	user := sessions.CurrentUser()
	require.NotNil(t, user)
	require.Equal(t, "user@example.com", user.Email)
}

func TestLoginValidation(t *testing.T) {
	_, sessions, _ := newSessionBackend(t)

	_, err := sessions.Login(context.Background(), "  ", "secret")
	require.Error(t, err)

	_, err = sessions.Login(context.Background(), "user@example.com", "")
	require.Error(t, err)
}

func TestLoginBadCredentials(t *testing.T) {
	_, sessions, _ := newSessionBackend(t)

	_, err := sessions.Login(context.Background(), "user@example.com", "wrong")
	require.Error(t, err)
	require.False(t, sessions.IsAuthenticated())
	require.Empty(t, sessions.Token())
}

func TestLoginClearsSessionWhenProfileFetchFails(t *testing.T) {
	_, sessions, reject := newSessionBackend(t)
	reject.Store(true)

	_, err := sessions.Login(context.Background(), "user@example.com", "secret")
	require.Error(t, err)

	// The token came back fine, but a session without a profile is not
	// half-kept.
	require.False(t, sessions.IsAuthenticated())
	require.Empty(t, sessions.Token())
}

func TestRegisterChainsIntoLogin(t *testing.T) {
	_, sessions, _ := newSessionBackend(t)

	profile, err := sessions.Register(context.Background(), "Ada Lovelace", "user@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, 1, profile.ID)
	require.True(t, sessions.IsAuthenticated())
}

func TestUnauthorizedResponseClearsSession(t *testing.T) {
	client, sessions, reject := newSessionBackend(t)

	_, err := sessions.Login(context.Background(), "user@example.com", "secret")
	require.NoError(t, err)

	var expired atomic.Int32
	sessions.SetClearedHook(func() { expired.Add(1) })

	reject.Store(true)
	_, err = client.CurrentUser(context.Background())
	require.ErrorIs(t, err, api.ErrUnauthorized)

	require.False(t, sessions.IsAuthenticated())
	require.Empty(t, sessions.Token())
	require.Equal(t, int32(1), expired.Load())
}

func TestLogoutClearsSessionLocally(t *testing.T) {
	_, sessions, _ := newSessionBackend(t)

	_, err := sessions.Login(context.Background(), "user@example.com", "secret")
	require.NoError(t, err)

	cleared := false
	sessions.SetClearedHook(func() { cleared = true })

	sessions.Logout()
	require.False(t, sessions.IsAuthenticated())
	require.Nil(t, sessions.CurrentUser())

	// An explicit logout is not a surprise expiry.
	require.False(t, cleared)
}

func TestSessionWarmReload(t *testing.T) {
	store, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	require.NoError(t, store.SaveSession(&models.Session{
		Token: "tok-cached",
		User:  &models.UserProfile{ID: 1, Email: "user@example.com"},
	}))

	sessions := NewSessionService(nil, store)
	require.Equal(t, "tok-cached", sessions.Token())
	require.True(t, sessions.IsAuthenticated())
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestTokenExpired(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{name: "live jwt", token: "", want: false},
		{name: "expired jwt", token: "", want: true},
		{name: "opaque token assumed live", token: "not-a-jwt", want: false},
	}
	tests[0].token = signedToken(t, time.Now().Add(time.Hour))
	tests[1].token = signedToken(t, time.Now().Add(-time.Hour))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tokenExpired(tt.token))
		})
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		first string
		last  string
	}{
		{name: "first and last", input: "Ada Lovelace", first: "Ada", last: "Lovelace"},
		{name: "single name", input: "Ada", first: "Ada", last: ""},
		{name: "multi-part surname", input: "Ada King Lovelace", first: "Ada", last: "King Lovelace"},
		{name: "empty", input: "   ", first: "", last: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := splitName(tt.input)
			require.Equal(t, tt.first, first)
			require.Equal(t, tt.last, last)
		})
	}
}
