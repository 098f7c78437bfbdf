package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/loomhq/loom/internal/models"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 5*time.Second)
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 1, "email": "a@b.c"}`))
	}))
	client.SetTokenSource(func() string { return "tok-123" })

	profile, err := client.CurrentUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, profile.ID)
	require.Equal(t, "Bearer tok-123", gotAuth)
}

func TestClientRejectsAuthedCallWithoutToken(t *testing.T) {
	called := false
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	// No token source at all, then a source that yields nothing.
	_, err := client.CurrentUser(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)

	client.SetTokenSource(func() string { return "" })
	_, err = client.CurrentUser(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)

	require.False(t, called, "the request must not reach the wire")
}

func TestClientUnauthorizedInvokesHook(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	client.SetTokenSource(func() string { return "stale" })

	hookCalls := 0
	client.SetUnauthorizedHook(func() { hookCalls++ })

	_, err := client.CurrentUser(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Equal(t, 1, hookCalls)
}

func TestClientClassifiesAPIErrors(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "REGISTER_USER_ALREADY_EXISTS"}`))
	}))

	_, err := client.Register(context.Background(), RegisterRequest{Email: "a@b.c", Password: "pw"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Equal(t, "REGISTER_USER_ALREADY_EXISTS", apiErr.Detail)
}

func TestErrorDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "plain detail", body: `{"detail": "boom"}`, want: "boom"},
		{
			name: "validation list",
			body: `{"detail": [{"msg": "field required", "loc": ["body", "email"]}, {"msg": "too short"}]}`,
			want: "field required, too short",
		},
		{name: "message fallback", body: `{"message": "oops"}`, want: "oops"},
		{name: "not json", body: `<html>502</html>`, want: ""},
		{name: "empty body", body: ``, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, errorDetail(strings.NewReader(tt.body)))
		})
	}
}

func TestLoginEncodesForm(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/jwt/login", r.URL.Path)
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		require.Equal(t, "user@example.com", r.PostForm.Get("username"))
		require.Equal(t, "secret", r.PostForm.Get("password"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "tok-abc", "token_type": "bearer"}`))
	}))

	token, err := client.Login(context.Background(), "user@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, "tok-abc", token)
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token_type": "bearer"}`))
	}))

	_, err := client.Login(context.Background(), "user@example.com", "secret")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no access token")
}

func TestStreamChatSendsRequestAndReturnsBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/stream", r.URL.Path)
		require.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"type\": \"response\", \"content\": \"hi\", \"complete\": false}\n"))
	}))
	client.SetTokenSource(func() string { return "tok" })

	body, err := client.StreamChat(context.Background(), ChatRequest{Message: "hi", ThreadID: "t1"})
	require.NoError(t, err)
	defer func() {
		_ = body.Close()
	}()

	var events []models.StreamEvent
	require.NoError(t, ScanEvents(body, func(record models.StreamRecord) {
		events = append(events, record.Event)
	}))
	require.Equal(t, []models.StreamEvent{models.StreamResponse{Content: "hi"}}, events)
}
