package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/rs/zerolog"

	apperrors "tripdesk/internal/errors"
	"tripdesk/internal/retry"
)

// Asset is the normalized result of a stored upload.
type Asset struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// Client talks to the third-party media host on behalf of the upload relay.
// The host's API key never leaves this process.
type Client struct {
	uploadURL  string
	apiKey     string
	httpClient *http.Client
	policy     retry.Policy
	logger     zerolog.Logger
}

// New creates a media host client. policy bounds the retry loop that absorbs
// transient upstream failures; callers see retries only as latency.
func New(uploadURL, apiKey string, policy retry.Policy, logger zerolog.Logger) *Client {
	return &Client{
		uploadURL:  uploadURL,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		policy:     policy,
		logger:     logger.With().Str("component", "media").Logger(),
	}
}

// Upload transmits one file to the media host and returns its durable URL
// and public id. Transport failures and 5xx responses are retried per the
// client's policy; 4xx responses and malformed bodies are not.
func (c *Client) Upload(ctx context.Context, fileName string, content []byte, folder string) (*Asset, error) {
	attempt := 0
	return retry.Do(ctx, c.policy, func() (*Asset, error) {
		attempt++
		asset, err := c.uploadOnce(ctx, fileName, content, folder)
		if err != nil {
			c.logger.Warn().Err(err).Int("attempt", attempt).Str("file", fileName).Msg("media host upload attempt failed")
		}
		return asset, err
	})
}

func (c *Client) uploadOnce(ctx context.Context, fileName string, content []byte, folder string) (*Asset, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("build multipart: %w", err))
	}
	if _, err := part.Write(content); err != nil {
		return nil, retry.Permanent(fmt.Errorf("build multipart: %w", err))
	}
	if err := writer.WriteField("folder", folder); err != nil {
		return nil, retry.Permanent(fmt.Errorf("build multipart: %w", err))
	}
	if err := writer.Close(); err != nil {
		return nil, retry.Permanent(fmt.Errorf("build multipart: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: media host returned status %d", apperrors.ErrUpstream, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, retry.Permanent(fmt.Errorf("%w: media host rejected upload with status %d", apperrors.ErrUpstream, resp.StatusCode))
	}

	// The host answers with secure_url/public_id; older deployments used a
	// bare url field. Both normalize to the same Asset.
	var payload struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
		PublicID  string `json:"public_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, retry.Permanent(fmt.Errorf("%w: decode media host response: %v", apperrors.ErrProtocol, err))
	}

	url := payload.SecureURL
	if url == "" {
		url = payload.URL
	}
	if url == "" {
		return nil, retry.Permanent(fmt.Errorf("%w: media host response missing url", apperrors.ErrProtocol))
	}
	return &Asset{URL: url, PublicID: payload.PublicID}, nil
}
