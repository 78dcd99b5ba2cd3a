// Package calendar bridges the service to the external calendar: it owns the
// OAuth session and calls the events API on the user's behalf.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/fieldops/fieldservice/internal/config"
)

// Scope grants read and write access to calendars.
const Scope = "https://www.googleapis.com/auth/calendar"

const stateTTL = 10 * time.Minute

var (
	// ErrNotAuthenticated is returned when no token is held.
	ErrNotAuthenticated = errors.New("calendar session not authenticated")
	// ErrInvalidState is returned when a callback carries an unknown or expired state.
	ErrInvalidState = errors.New("invalid oauth state")
)

// Session holds one OAuth token for the process lifetime.
type Session struct {
	oauth  *oauth2.Config
	store  TokenStore
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	token  *oauth2.Token
	states map[string]time.Time
}

// NewSession builds a session from client credentials.
func NewSession(cfg config.CalendarConfig, store TokenStore, logger *zap.Logger) *Session {
	if store == nil {
		store = NewMemoryTokenStore()
	}
	return &Session{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{Scope},
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		store:  store,
		logger: logger,
		now:    time.Now,
		states: make(map[string]time.Time),
	}
}

// Restore loads a previously saved token, if any.
func (s *Session) Restore(ctx context.Context) error {
	token, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	if token != nil {
		s.logger.Info("calendar session restored", zap.Time("expiry", token.Expiry))
	}
	return nil
}

// AuthCodeURL issues a fresh state and returns the consent URL carrying it.
func (s *Session) AuthCodeURL() string {
	state := uuid.NewString()
	s.mu.Lock()
	now := s.now()
	for st, issued := range s.states {
		if now.Sub(issued) > stateTTL {
			delete(s.states, st)
		}
	}
	s.states[state] = now
	s.mu.Unlock()
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Login exchanges an authorization code for a token.
func (s *Session) Login(ctx context.Context, state, code string) error {
	s.mu.Lock()
	issued, ok := s.states[state]
	delete(s.states, state)
	s.mu.Unlock()
	if !ok || s.now().Sub(issued) > stateTTL {
		return ErrInvalidState
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange code: %w", err)
	}
	if err := s.store.Save(ctx, token); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	s.logger.Info("calendar session opened")
	return nil
}

// Logout drops the token locally and in the store.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = nil
	s.mu.Unlock()
	return s.store.Clear(ctx)
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != nil
}

// HTTPClient returns a client that authorizes requests and refreshes the token.
func (s *Session) HTTPClient(ctx context.Context) (*http.Client, error) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == nil {
		return nil, ErrNotAuthenticated
	}
	src := &persistingSource{
		base:    s.oauth.TokenSource(ctx, token),
		session: s,
		last:    token.AccessToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, src)), nil
}

// persistingSource saves refreshed tokens back to the session and store.
type persistingSource struct {
	base    oauth2.TokenSource
	session *Session
	mu      sync.Mutex
	last    string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	token, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	changed := token.AccessToken != p.last
	p.last = token.AccessToken
	p.mu.Unlock()
	if changed {
		p.session.mu.Lock()
		p.session.token = token
		p.session.mu.Unlock()
		if err := p.session.store.Save(context.Background(), token); err != nil {
			p.session.logger.Warn("persist refreshed calendar token", zap.Error(err))
		}
	}
	return token, nil
}
