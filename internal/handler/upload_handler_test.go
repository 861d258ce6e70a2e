package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tripdesk/internal/auth"
	"tripdesk/internal/media"
	"tripdesk/internal/model"
	"tripdesk/internal/retry"
	"tripdesk/internal/upload"
)

var (
	jpegHead = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	textHead = []byte("just some plain text, definitely not an image")
)

type multipartRequest struct {
	body        *bytes.Buffer
	contentType string
}

func buildMultipart(t *testing.T, field string, files map[string][]byte, folder string) multipartRequest {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		part, err := writer.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if folder != "" {
		require.NoError(t, writer.WriteField("folder", folder))
	}
	require.NoError(t, writer.Close())
	return multipartRequest{body: body, contentType: writer.FormDataContentType()}
}

func jpegContent(size int) []byte {
	content := make([]byte, size)
	copy(content, jpegHead)
	return content
}

// fakeMediaHost answers uploads with a fixed asset and counts calls.
func fakeMediaHost(calls *atomic.Int64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]string{
			"secure_url": "https://media.example.com/asset.jpg",
			"public_id":  "packages/asset",
		})
	}))
}

func newUploadHandler(hostURL string) (*UploadHandler, *MockAuthEventRepository) {
	client := media.New(hostURL, "test-key", retry.Policy{MaxAttempts: 1}, zerolog.Nop())
	audit := new(MockAuthEventRepository)
	audit.On("Create", mock.Anything, mock.AnythingOfType("*model.AuthEvent")).Return(nil)
	inspector := auth.NewTokenInspector("test-secret")
	return NewUploadHandler(client, upload.DefaultConstraints(), audit, inspector, zerolog.Nop()), audit
}

func doUpload(t *testing.T, h *UploadHandler, path string, mp multipartRequest, fn echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, path, mp.body)
	req.Header.Set(echo.HeaderContentType, mp.contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, fn(c)
}

func TestUpload_Success(t *testing.T) {
	var calls atomic.Int64
	host := fakeMediaHost(&calls)
	defer host.Close()

	h, audit := newUploadHandler(host.URL)
	mp := buildMultipart(t, "image", map[string][]byte{"photo.jpg": jpegContent(64 << 10)}, "packages")

	rec, err := doUpload(t, h, "/api/upload", mp, h.Upload)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://media.example.com/asset.jpg", resp.URL)
	assert.Equal(t, "packages/asset", resp.PublicID)
	assert.EqualValues(t, 1, calls.Load())

	audit.AssertCalled(t, "Create", mock.Anything, mock.AnythingOfType("*model.AuthEvent"))
}

func TestUpload_Rejections(t *testing.T) {
	tests := []struct {
		name         string
		content      []byte
		expectedCode int
		expectedTag  string
	}{
		{"oversized file", jpegContent(10 << 20), http.StatusRequestEntityTooLarge, "TOO_LARGE"},
		{"unsupported type", textHead, http.StatusUnsupportedMediaType, "UNSUPPORTED_TYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int64
			host := fakeMediaHost(&calls)
			defer host.Close()

			h, _ := newUploadHandler(host.URL)
			mp := buildMultipart(t, "image", map[string][]byte{"file.bin": tt.content}, "")

			_, err := doUpload(t, h, "/api/upload", mp, h.Upload)
			require.Error(t, err)

			httpErr, ok := err.(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, tt.expectedCode, httpErr.Code)

			payload, err := json.Marshal(httpErr.Message)
			require.NoError(t, err)
			assert.Contains(t, string(payload), tt.expectedTag)

			assert.EqualValues(t, 0, calls.Load(), "a rejected file must never reach the media host")
		})
	}
}

func TestUpload_MissingFile(t *testing.T) {
	h, _ := newUploadHandler("http://unused.invalid")
	mp := buildMultipart(t, "wrong_field", map[string][]byte{"photo.jpg": jpegContent(1024)}, "")

	_, err := doUpload(t, h, "/api/upload", mp, h.Upload)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestUpload_UpstreamFailure(t *testing.T) {
	host := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer host.Close()

	h, _ := newUploadHandler(host.URL)
	mp := buildMultipart(t, "image", map[string][]byte{"photo.jpg": jpegContent(1024)}, "")

	_, err := doUpload(t, h, "/api/upload", mp, h.Upload)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, httpErr.Code)
}

func TestUploadMultiple_Success(t *testing.T) {
	var calls atomic.Int64
	host := fakeMediaHost(&calls)
	defer host.Close()

	h, _ := newUploadHandler(host.URL)
	mp := buildMultipart(t, "files", map[string][]byte{
		"1.jpg": jpegContent(1024),
		"2.jpg": jpegContent(1024),
		"3.jpg": jpegContent(1024),
	}, "gallery")

	rec, err := doUpload(t, h, "/api/upload/multiple", mp, h.UploadMultiple)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp UploadMultipleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.URLs, 3)
	assert.Len(t, resp.PublicIDs, 3)
	assert.EqualValues(t, 3, calls.Load())
}

func TestUploadMultiple_AbortsOnInvalidFile(t *testing.T) {
	var calls atomic.Int64
	host := fakeMediaHost(&calls)
	defer host.Close()

	h, _ := newUploadHandler(host.URL)
	// One valid image plus one text file: the batch must fail as a whole.
	mp := buildMultipart(t, "files", map[string][]byte{
		"good.jpg":  jpegContent(1024),
		"notes.txt": textHead,
	}, "")

	_, err := doUpload(t, h, "/api/upload/multiple", mp, h.UploadMultiple)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnsupportedMediaType, httpErr.Code)
}

func TestUploadMultiple_NoFiles(t *testing.T) {
	h, _ := newUploadHandler("http://unused.invalid")
	mp := buildMultipart(t, "files", nil, "gallery")

	_, err := doUpload(t, h, "/api/upload/multiple", mp, h.UploadMultiple)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

// MockAuthEventRepository is a testify mock of repository.AuthEventRepository.
type MockAuthEventRepository struct {
	mock.Mock
}

func (m *MockAuthEventRepository) Create(ctx context.Context, event *model.AuthEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockAuthEventRepository) ListRecent(ctx context.Context, limit int) ([]model.AuthEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuthEvent), args.Error(1)
}

func (m *MockAuthEventRepository) ListByEmail(ctx context.Context, email string, limit int) ([]model.AuthEvent, error) {
	args := m.Called(ctx, email, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuthEvent), args.Error(1)
}
