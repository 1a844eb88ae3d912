// Package firebase implements auth.Authenticator against the Firebase
// Identity Toolkit REST API (accounts:signInWithPassword).
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-formstate/pkg/auth"
)

// DefaultEndpoint is the public Identity Toolkit base URL.
const DefaultEndpoint = "https://identitytoolkit.googleapis.com"

// ErrMissingAPIKey is returned by New without an API key.
var ErrMissingAPIKey = errors.New("firebase: api key is required")

// Client signs users in with email and password.
type Client struct {
	apiKey   string
	endpoint string
	http     *http.Client
	logger   *slog.Logger

	mu    sync.RWMutex
	names map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the base URL (emulators, tests).
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(endpoint), "/"); trimmed != "" {
			c.endpoint = trimmed
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Ensure Client satisfies the authenticator boundary.
var (
	_ auth.Authenticator = (*Client)(nil)
	_ auth.DisplayNamer  = (*Client)(nil)
)

// New constructs a client for the given web API key.
func New(apiKey string, options ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		apiKey:   apiKey,
		endpoint: DefaultEndpoint,
		http:     &http.Client{Timeout: 15 * time.Second},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		names:    make(map[string]string),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn posts the credentials and maps REST error reasons to auth codes.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	body, err := json.Marshal(signInRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return fmt.Errorf("firebase: encode request: %w", err)
	}

	target := c.endpoint + "/v1/accounts:signInWithPassword?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("firebase: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return auth.WrapError(auth.CodeNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var payload signInResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			c.logger.Debug("firebase sign-in response not decoded", "error", err)
		}
		c.remember(email, payload.DisplayName)
		return nil
	}

	var payload errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return auth.WrapError(auth.CodeInternal, fmt.Errorf("firebase: status %d: %w", resp.StatusCode, err))
	}
	reason := payload.Error.Message
	code := CodeForReason(reason)
	c.logger.Debug("firebase sign-in rejected", "status", resp.StatusCode, "reason", reason, "code", code)
	return auth.NewError(code, reason)
}

// DisplayName returns the display name reported by the last successful
// sign-in of email. The REST API only returns it on sign-in, so unknown
// accounts yield an empty name.
func (c *Client) DisplayName(_ context.Context, email string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.names[nameKey(email)], nil
}

func (c *Client) remember(email, displayName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[nameKey(email)] = strings.TrimSpace(displayName)
}

func nameKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CodeForReason maps an Identity Toolkit error message such as
// "EMAIL_NOT_FOUND" or "TOO_MANY_ATTEMPTS_TRY_LATER : ..." to an auth code.
func CodeForReason(reason string) string {
	if idx := strings.Index(reason, " : "); idx >= 0 {
		reason = reason[:idx]
	}
	reason = strings.TrimSpace(reason)

	switch reason {
	case "EMAIL_NOT_FOUND":
		return auth.CodeUserNotFound
	case "INVALID_PASSWORD":
		return auth.CodeWrongPassword
	case "INVALID_EMAIL":
		return auth.CodeInvalidEmail
	case "USER_DISABLED":
		return auth.CodeUserDisabled
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return auth.CodeTooManyRequests
	case "":
		return auth.CodeInternal
	default:
		return "auth/" + strings.ReplaceAll(strings.ToLower(reason), "_", "-")
	}
}
