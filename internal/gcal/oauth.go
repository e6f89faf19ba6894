// Package gcal imports Google Calendar events as notes with reminders.
package gcal

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/quantumlife/lifedesk/internal/core"
)

// DefaultCallbackPort is where the local OAuth callback server listens.
const DefaultCallbackPort = 8765

// OAuthConfig holds Google Calendar OAuth configuration
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// ReadOnlyOAuthConfig returns a config limited to reading calendars.
func ReadOnlyOAuthConfig(clientID, clientSecret string) OAuthConfig {
	return OAuthConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  fmt.Sprintf("http://localhost:%d/callback", DefaultCallbackPort),
		Scopes:       []string{calendar.CalendarReadonlyScope},
	}
}

// Validate reports whether the client credentials are present.
func (c OAuthConfig) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("%w: set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET", core.ErrNotConfigured)
	}
	return nil
}

// OAuthClient handles OAuth2 authentication for Google Calendar
type OAuthClient struct {
	config *oauth2.Config
}

// NewOAuthClient creates a new OAuth client
func NewOAuthClient(cfg OAuthConfig) *OAuthClient {
	return &OAuthClient{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthURL returns the URL for user authorization
func (c *OAuthClient) AuthURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token.
func (c *OAuthClient) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrAuthenticationFailed, err)
	}
	return token, nil
}

// TokenSource returns a source that refreshes token when it expires.
func (c *OAuthClient) TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource {
	return c.config.TokenSource(ctx, token)
}

// CalendarService creates a Calendar API service from a token
func (c *OAuthClient) CalendarService(ctx context.Context, token *oauth2.Token) (*calendar.Service, error) {
	return calendar.NewService(ctx, option.WithTokenSource(c.TokenSource(ctx, token)))
}

// Authorize runs the installed-app flow: it prints the consent URL to out,
// waits for the browser to hit the local callback and exchanges the code.
func (c *OAuthClient) Authorize(ctx context.Context, out io.Writer, timeout time.Duration) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, err
	}

	server := NewLocalAuthServer(state)
	if err := server.Start(fmt.Sprintf("localhost:%d", DefaultCallbackPort)); err != nil {
		return nil, fmt.Errorf("failed to start auth server: %w", err)
	}
	defer server.Stop(context.Background())

	fmt.Fprintf(out, "\nOpen this URL in your browser to authorize lifedesk:\n\n%s\n\n", c.AuthURL(state))
	fmt.Fprintln(out, "Waiting for authorization...")

	code, err := server.WaitForCode(ctx, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrAuthenticationFailed, err)
	}
	return c.Exchange(ctx, code)
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return "lifedesk-" + hex.EncodeToString(b), nil
}

// LocalAuthServer handles the OAuth callback locally
type LocalAuthServer struct {
	state    string
	server   *http.Server
	codeChan chan string
	errChan  chan error
}

// NewLocalAuthServer creates a callback server that accepts only the given state.
func NewLocalAuthServer(state string) *LocalAuthServer {
	return &LocalAuthServer{
		state:    state,
		codeChan: make(chan string, 1),
		errChan:  make(chan error, 1),
	}
}

// Start listens on addr and serves the callback in the background.
func (s *LocalAuthServer) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)
	s.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.fail(err)
		}
	}()
	return nil
}

// WaitForCode waits for the OAuth callback
func (s *LocalAuthServer) WaitForCode(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case code := <-s.codeChan:
		return code, nil
	case err := <-s.errChan:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", fmt.Errorf("no callback received within %v", timeout)
	}
}

// Stop stops the auth server
func (s *LocalAuthServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *LocalAuthServer) fail(err error) {
	select {
	case s.errChan <- err:
	default:
	}
}

func (s *LocalAuthServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("state") != s.state {
		http.Error(w, "State mismatch", http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		msg := q.Get("error")
		if msg == "" {
			msg = "unknown error"
		}
		s.fail(fmt.Errorf("OAuth error: %s", msg))
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	select {
	case s.codeChan <- code:
	default:
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>lifedesk - Calendar Connected</title></head>
<body style="font-family: system-ui; text-align: center; margin-top: 20vh;">
	<h1>Calendar connected</h1>
	<p>You can close this window and return to the terminal.</p>
</body>
</html>`)
}
