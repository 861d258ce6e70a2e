package upload

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
)

// File is one user-selected file. Open is called at most twice: once for the
// sniff head during validation and once for the transfer.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Result is the durable outcome of one upload: the stable URL plus the media
// host's public id.
type Result struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// BatchError reports which file aborted an UploadMultiple batch. Uploaded
// holds the URLs of the files that finished before the failure; the media
// host is append-only, so they remain valid.
type BatchError struct {
	Index    int
	FileName string
	Uploaded []string
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("upload %d (%s) failed: %v", e.Index, e.FileName, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// Pipeline turns user-selected files into durable URLs through the
// same-origin relay. Files never go to the media host directly; its
// credentials stay on the relay.
type Pipeline struct {
	relayURL    string
	httpClient  *http.Client
	constraints Constraints
	logger      zerolog.Logger
}

// NewPipeline creates an upload pipeline targeting the relay endpoint.
func NewPipeline(relayURL string, constraints Constraints, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		relayURL:    relayURL,
		httpClient:  &http.Client{},
		constraints: constraints,
		logger:      logger.With().Str("component", "upload").Logger(),
	}
}

// UploadSingle validates and transfers one file, reporting progress through
// onProgress (0..100, or IndeterminateProgress). The returned task records
// the terminal state either way; on rejection no network call is made.
func (p *Pipeline) UploadSingle(ctx context.Context, f File, folder string, onProgress func(int)) (*Task, error) {
	task := NewTask(f.Name, f.Size)
	if err := task.StartValidation(); err != nil {
		return task, err
	}

	head, err := readHead(f)
	if err != nil {
		_ = task.Reject(err)
		return task, err
	}
	if err := Validate(f.Name, f.Size, head, p.constraints); err != nil {
		_ = task.Reject(err)
		p.logger.Info().Str("file", f.Name).Err(err).Msg("upload rejected pre-flight")
		return task, err
	}

	if err := task.StartUpload(); err != nil {
		return task, err
	}
	result, err := p.transfer(ctx, f, folder, func(pct int) {
		task.SetProgress(pct)
		if onProgress != nil {
			onProgress(pct)
		}
	})
	if err != nil {
		_ = task.Fail(err)
		p.logger.Error().Str("file", f.Name).Err(err).Msg("upload failed")
		return task, err
	}

	_ = task.Succeed(result.URL, result.PublicID)
	p.logger.Info().Str("file", f.Name).Str("url", result.URL).Msg("upload succeeded")
	return task, nil
}

// UploadMultiple uploads up to capacityRemaining files, strictly one at a
// time. Files beyond capacity are dropped from the batch, not queued. The
// first failure aborts the batch and surfaces as a *BatchError.
func (p *Pipeline) UploadMultiple(ctx context.Context, files []File, folder string, capacityRemaining int) ([]string, error) {
	if capacityRemaining < 0 {
		capacityRemaining = 0
	}
	if len(files) > capacityRemaining {
		p.logger.Info().Int("selected", len(files)).Int("capacity", capacityRemaining).Msg("truncating batch to capacity")
		files = files[:capacityRemaining]
	}

	urls := make([]string, 0, len(files))
	for i, f := range files {
		task, err := p.UploadSingle(ctx, f, folder, nil)
		if err != nil {
			return nil, &BatchError{Index: i, FileName: f.Name, Uploaded: urls, Err: err}
		}
		urls = append(urls, task.ResultURL)
	}
	return urls, nil
}

// transfer packages the file as multipart form data and posts it to the
// relay. The body is buffered first so the total size is known and progress
// can be byte-accurate.
func (p *Pipeline) transfer(ctx context.Context, f File, folder string, onProgress func(int)) (*Result, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer rc.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", f.Name)
	if err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := io.Copy(part, rc); err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if err := writer.WriteField("folder", folder); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}

	reader := newProgressReader(&body, int64(body.Len()), onProgress)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.relayURL, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: relay returned %s", apperrors.ErrUpstream, relayErrorDetail(resp.Body, resp.StatusCode))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode relay response: %v", apperrors.ErrProtocol, err)
	}
	if result.URL == "" {
		return nil, fmt.Errorf("%w: relay response missing url", apperrors.ErrProtocol)
	}
	return &result, nil
}

func readHead(f File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer rc.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(rc, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read file head: %w", err)
	}
	return head[:n], nil
}

func relayErrorDetail(r io.Reader, status int) string {
	var payload apperrors.ErrorResponse
	if err := json.NewDecoder(r).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Sprintf("status %d (%s)", status, payload.Error)
	}
	return fmt.Sprintf("status %d", status)
}
