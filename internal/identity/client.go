package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	apperrors "tripdesk/internal/errors"
	"tripdesk/internal/model"
	"tripdesk/internal/retry"
)

// Credentials is a login request payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is a register request payload.
type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AuthResult is the identity API's response to a successful login or
// registration.
type AuthResult struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	User         *model.UserProfile `json:"user"`
}

// APIError carries the identity API's own user-facing message for a
// rejected request, e.g. bad credentials or an already-taken email.
type APIError struct {
	Status  int
	Message string

	cause error
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap exposes the sentinel behind the rejection, when one applies.
func (e *APIError) Unwrap() error {
	return e.cause
}

// Client talks to the remote identity API. The API is an opaque
// collaborator; its schema is consumed here, never owned.
type Client struct {
	baseURL    string
	httpClient *http.Client
	readRetry  retry.Policy
	logger     zerolog.Logger
}

// New creates an identity API client. readRetry applies to GET-style reads
// only; writes are never auto-retried.
func New(baseURL string, readRetry retry.Policy, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		readRetry:  readRetry,
		logger:     logger.With().Str("component", "identity").Logger(),
	}
}

// Login authenticates the credentials against the identity API. A 401
// rejection unwraps to ErrInvalidCredentials while keeping the API's own
// message.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var result AuthResult
	if err := c.postJSON(ctx, "/users/login/", Credentials{Email: email, Password: password}, "", &result); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			apiErr.cause = apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if result.AccessToken == "" || result.User == nil {
		return nil, fmt.Errorf("%w: login response missing token or user", apperrors.ErrProtocol)
	}
	return &result, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResult, error) {
	var result AuthResult
	if err := c.postJSON(ctx, "/users/register/", reg, "", &result); err != nil {
		return nil, err
	}
	if result.AccessToken == "" || result.User == nil {
		return nil, fmt.Errorf("%w: register response missing token or user", apperrors.ErrProtocol)
	}
	return &result, nil
}

// VerifyEmail submits a verification code for the given email.
func (c *Client) VerifyEmail(ctx context.Context, email, code string) error {
	payload := map[string]string{"email": email, "code": code}
	return c.postJSON(ctx, "/users/verify_email/", payload, "", nil)
}

// Logout invalidates the refresh token remotely. Bearer auth with the
// access token, refresh token in the body.
func (c *Client) Logout(ctx context.Context, accessToken, refreshToken string) error {
	payload := map[string]string{"refresh_token": refreshToken}
	return c.postJSON(ctx, "/users/logout/", payload, accessToken, nil)
}

// Profile fetches the profile belonging to an access token. Reads are
// retried on transport failure per the client's read policy.
func (c *Client) Profile(ctx context.Context, accessToken string) (*model.UserProfile, error) {
	return retry.Do(ctx, c.readRetry, func() (*model.UserProfile, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/me/", nil)
		if err != nil {
			return nil, retry.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn().Err(err).Msg("profile fetch failed, will retry")
			return nil, fmt.Errorf("%w: %v", apperrors.ErrNetwork, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, retry.Permanent(apperrors.ErrSessionExpired)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, retry.Permanent(fmt.Errorf("%w: profile returned status %d", apperrors.ErrUpstream, resp.StatusCode))
		}

		var profile model.UserProfile
		if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
			return nil, retry.Permanent(fmt.Errorf("%w: decode profile: %v", apperrors.ErrProtocol, err))
		}
		return &profile, nil
	})
}

// postJSON sends a JSON POST and decodes the response into out when out is
// non-nil. Client-error statuses surface as *APIError with the API's own
// message so callers can show it verbatim.
func (c *Client) postJSON(ctx context.Context, path string, payload interface{}, bearer string, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("identity API unreachable")
		return fmt.Errorf("%w: %v", apperrors.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError {
		return &APIError{Status: resp.StatusCode, Message: readAPIMessage(resp.Body)}
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		c.logger.Error().Int("status", resp.StatusCode).Str("path", path).Msg("identity API error")
		return fmt.Errorf("%w: status %d", apperrors.ErrUpstream, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", apperrors.ErrProtocol, err)
	}
	return nil
}

// readAPIMessage pulls a short user-facing message out of an error payload.
// The API uses "message" for most endpoints and "detail" for a few older
// ones; an unparseable body falls back to a generic message.
func readAPIMessage(r io.Reader) string {
	var payload struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return "request rejected"
}
