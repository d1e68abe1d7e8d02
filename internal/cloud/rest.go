package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nerrad567/gray-logic-lamarzocco/internal/codec"
	"github.com/nerrad567/gray-logic-lamarzocco/internal/identity"
)

// Client issues authenticated one-shot REST calls against the cloud.
// Every call goes through the session's EnsureValid first; the bearer token
// and the signed extra headers are attached to each request.
type Client struct {
	session *Session
}

// NewClient creates a REST client on top of an authenticated session.
func NewClient(session *Session) *Client {
	return &Client{session: session}
}

// Register announces this installation's public key to the cloud.
//
// It is called once, right after the identity is generated: POST /auth/init
// with the base64 public key and a request proof over the registration base
// string. A 200 or 201 response completes the registration; anything else
// is ErrRegistrationFailed wrapping the APIError.
func (c *Client) Register(ctx context.Context) error {
	id := c.session.Identity()

	proof, err := identity.RequestProof(id.BaseString(), id.Secret)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
	}

	payload, err := json.Marshal(map[string]string{
		"pk": codec.Base64Encode(id.PublicKeyDER),
	})
	if err != nil {
		return fmt.Errorf("%w: encoding request: %w", ErrRegistrationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.session.cfg.BaseURL+"/auth/init", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: building request: %w", ErrRegistrationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-App-Installation-Id", id.ID)
	req.Header.Set("X-Request-Proof", proof)

	resp, err := c.session.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body) //nolint:errcheck // Body is diagnostic only
		return fmt.Errorf("%w: %w", ErrRegistrationFailed, &APIError{Status: resp.StatusCode, Body: body})
	}
	return nil
}

// Call issues an authenticated REST request and returns the response body.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - method: One of GET, POST, PUT, DELETE
//   - path: Path relative to the API base URL (e.g. "/things/SN/command/X")
//   - body: JSON request body, or nil
//
// Returns:
//   - []byte: Response body (may be empty; not assumed to be JSON)
//   - error: ErrAuthFailed, ErrUnsupportedMethod, a transport error, or
//     *APIError for non-2xx responses
func (c *Client) Call(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}

	token, err := c.session.EnsureValid(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.session.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.Access)
	if err := c.session.addSignedHeaders(req); err != nil {
		return nil, err
	}

	resp, err := c.session.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: raw}
	}
	return raw, nil
}
