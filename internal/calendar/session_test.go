package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/fieldops/fieldservice/internal/config"
)

func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"abc","token_type":"Bearer","refresh_token":"r1","expires_in":3600}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestSession(tokenURL string, store TokenStore) *Session {
	return NewSession(config.CalendarConfig{
		ClientID:     "client-id",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/callback",
		AuthURL:      "https://auth.example.com/o/oauth2/auth",
		TokenURL:     tokenURL,
	}, store, zap.NewNop())
}

func stateOf(t *testing.T, authURL string) string {
	t.Helper()
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	return parsed.Query().Get("state")
}

func TestSessionLoginLogout(t *testing.T) {
	tokens := newTokenServer(t)
	store := NewMemoryTokenStore()
	session := newTestSession(tokens.URL, store)
	ctx := context.Background()

	assert.False(t, session.Authenticated())
	_, err := session.HTTPClient(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	authURL := session.AuthCodeURL()
	assert.Contains(t, authURL, "access_type=offline")
	assert.Contains(t, authURL, url.QueryEscape(Scope))

	require.NoError(t, session.Login(ctx, stateOf(t, authURL), "the-code"))
	assert.True(t, session.Authenticated())

	saved, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "abc", saved.AccessToken)

	require.NoError(t, session.Logout(ctx))
	assert.False(t, session.Authenticated())
	saved, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestSessionRejectsUnknownOrReusedState(t *testing.T) {
	tokens := newTokenServer(t)
	session := newTestSession(tokens.URL, nil)
	ctx := context.Background()

	assert.ErrorIs(t, session.Login(ctx, "forged", "the-code"), ErrInvalidState)

	state := stateOf(t, session.AuthCodeURL())
	require.NoError(t, session.Login(ctx, state, "the-code"))
	assert.ErrorIs(t, session.Login(ctx, state, "the-code"), ErrInvalidState)
}

func TestSessionRejectsExpiredState(t *testing.T) {
	session := newTestSession("http://unused", nil)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	session.now = func() time.Time { return base }
	state := stateOf(t, session.AuthCodeURL())

	session.now = func() time.Time { return base.Add(stateTTL + time.Second) }
	assert.ErrorIs(t, session.Login(context.Background(), state, "code"), ErrInvalidState)
}

func TestHTTPClientSendsBearer(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer live-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer api.Close()

	store := NewMemoryTokenStore()
	require.NoError(t, store.Save(context.Background(), &oauth2.Token{
		AccessToken: "live-token",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}))
	session := newTestSession("http://unused", store)
	require.NoError(t, session.Restore(context.Background()))

	client, err := session.HTTPClient(context.Background())
	require.NoError(t, err)
	resp, err := client.Get(api.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestRedisTokenStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := NewRedisTokenStore(rdb, "")
	ctx := context.Background()

	token, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, token)

	require.NoError(t, store.Save(ctx, &oauth2.Token{AccessToken: "abc", RefreshToken: "r"}))
	assert.True(t, mr.Exists(defaultTokenKey))

	token, err = store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "abc", token.AccessToken)
	assert.Equal(t, "r", token.RefreshToken)

	require.NoError(t, store.Clear(ctx))
	assert.False(t, mr.Exists(defaultTokenKey))
}
