package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-lamarzocco/internal/identity"
)

// refreshMargin is how long before hard expiry the session renews the
// access token proactively.
const refreshMargin = 10 * time.Minute

// defaultHTTPTimeout bounds every REST call when the caller does not
// supply a configured http.Client.
const defaultHTTPTimeout = 15 * time.Second

// Config holds the cloud account settings for a session.
type Config struct {
	// BaseURL is the customer-app API root,
	// e.g. "https://lion.lamarzocco.io/api/customer-app".
	BaseURL string

	// Username and Password are the cloud account credentials.
	Username string
	Password string
}

// Token is the current bearer/refresh token pair. Held in memory only;
// never persisted.
type Token struct {
	Access    string
	Refresh   string
	ExpiresAt time.Time
}

// Usable reports whether the access token can still be presented at the
// given instant.
func (t Token) Usable(now time.Time) bool {
	return t.Access != "" && now.Before(t.ExpiresAt)
}

// Logger is the minimal logging interface the session needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
}

// Session owns the access-token lifecycle against the cloud's auth surface.
//
// Token state is mutated only by EnsureValid and the calls it makes; the
// caller serialises those (no internal locking, by design — see package
// documentation).
type Session struct {
	cfg      Config
	identity *identity.Identity
	http     *http.Client
	logger   Logger

	token Token

	// now is a seam for tests; time.Now otherwise.
	now func() time.Time
}

// NewSession creates a session for the given account and installation
// identity. A nil httpClient gets a default with a bounded timeout.
func NewSession(cfg Config, id *identity.Identity, httpClient *http.Client) *Session {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Session{
		cfg:      cfg,
		identity: id,
		http:     httpClient,
		now:      time.Now,
	}
}

// SetLogger sets a logger for refresh-fallback warnings.
// If not set, fallbacks are silent.
func (s *Session) SetLogger(logger Logger) {
	s.logger = logger
}

// Identity returns the installation identity this session signs with.
func (s *Session) Identity() *identity.Identity {
	return s.identity
}

// EnsureValid returns a usable access token, signing in or refreshing as
// required.
//
// Decision order:
//  1. No token yet: sign in.
//  2. Token inside the refresh margin but not hard-expired, with a refresh
//     token available: refresh, falling back to sign-in on failure.
//  3. Hard-expired or no refresh token: sign in.
//
// Returns:
//   - Token: Valid token (also cached on the session)
//   - error: ErrAuthFailed if sign-in ultimately fails
func (s *Session) EnsureValid(ctx context.Context) (Token, error) {
	now := s.now()

	if s.token.Usable(now) && now.Add(refreshMargin).Before(s.token.ExpiresAt) {
		return s.token, nil
	}

	if s.token.Refresh != "" && s.token.Usable(now) {
		if err := s.refresh(ctx); err == nil {
			return s.token, nil
		} else if s.logger != nil {
			s.logger.Warn("token refresh failed, falling back to sign-in", "error", err)
		}
	}

	if err := s.signIn(ctx); err != nil {
		return Token{}, err
	}
	return s.token, nil
}

// Token returns the session's current token without renewing it.
func (s *Session) Token() Token {
	return s.token
}

// tokenResponse is the JSON shape returned by signin and refreshtoken.
type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// signIn performs a full credential sign-in.
func (s *Session) signIn(ctx context.Context) error {
	body := map[string]string{
		"username": s.cfg.Username,
		"password": s.cfg.Password,
	}

	resp, err := s.postSigned(ctx, "/auth/signin", body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}
	return s.storeToken(resp, "")
}

// refresh exchanges the stored refresh token for a new access token. The
// response may omit a new refresh token, in which case the old one is kept.
func (s *Session) refresh(ctx context.Context) error {
	body := map[string]string{
		"username":     s.cfg.Username,
		"refreshToken": s.token.Refresh,
	}

	resp, err := s.postSigned(ctx, "/auth/refreshtoken", body)
	if err != nil {
		return fmt.Errorf("refreshing token: %w", err)
	}
	return s.storeToken(resp, s.token.Refresh)
}

// storeToken validates a token response and installs it on the session.
// keepRefresh is used when the response omits a refresh token.
func (s *Session) storeToken(resp tokenResponse, keepRefresh string) error {
	if resp.AccessToken == "" || resp.ExpiresIn <= 0 {
		return fmt.Errorf("%w: token response missing accessToken or expiresIn", ErrAuthFailed)
	}
	refresh := resp.RefreshToken
	if refresh == "" {
		refresh = keepRefresh
	}

	s.token = Token{
		Access:  resp.AccessToken,
		Refresh: refresh,
		// time.Now carries a monotonic reading, so expiry comparisons
		// stay correct even before wall-clock sync completes.
		ExpiresAt: s.now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}
	return nil
}

// postSigned POSTs a JSON body to the auth surface with signed extra
// headers and decodes a token response. Non-2xx statuses and malformed
// bodies are errors.
func (s *Session) postSigned(ctx context.Context, path string, body map[string]string) (tokenResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return tokenResponse{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := s.addSignedHeaders(req); err != nil {
		return tokenResponse{}, err
	}

	httpResp, err := s.http.Do(req)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("posting %s: %w", path, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return tokenResponse{}, fmt.Errorf("reading response: %w", err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return tokenResponse{}, &APIError{Status: httpResp.StatusCode, Body: raw}
	}

	var resp tokenResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return tokenResponse{}, fmt.Errorf("decoding token response: %w", err)
	}
	return resp, nil
}

// addSignedHeaders attaches the per-request identity headers. A signing
// failure aborts the request; an unsigned request is never sent.
func (s *Session) addSignedHeaders(req *http.Request) error {
	signed, err := s.identity.SignedHeaders()
	if err != nil {
		return fmt.Errorf("signing request: %w", err)
	}
	req.Header.Set("X-App-Installation-Id", signed.InstallationID)
	req.Header.Set("X-Timestamp", signed.Timestamp)
	req.Header.Set("X-Nonce", signed.Nonce)
	req.Header.Set("X-Request-Signature", signed.Signature)
	return nil
}
