package handler

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"tripdesk/internal/auth"
	"tripdesk/internal/errors"
	"tripdesk/internal/media"
	"tripdesk/internal/model"
	"tripdesk/internal/repository"
	"tripdesk/internal/session"
	"tripdesk/internal/upload"
)

// UploadHandler is the same-origin upload relay. It re-validates every file
// as the second line of defense behind the client-side pre-flight check,
// then forwards to the media host with the retrying client.
type UploadHandler struct {
	media       *media.Client
	constraints upload.Constraints
	audit       repository.AuthEventRepository
	inspector   *auth.TokenInspector
	logger      zerolog.Logger
}

// NewUploadHandler creates the relay handler.
func NewUploadHandler(mediaClient *media.Client, constraints upload.Constraints, audit repository.AuthEventRepository, inspector *auth.TokenInspector, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		media:       mediaClient,
		constraints: constraints,
		audit:       audit,
		inspector:   inspector,
		logger:      logger.With().Str("component", "upload_relay").Logger(),
	}
}

// UploadResponse is the relay's single-file response.
type UploadResponse struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// UploadMultipleResponse is the relay's batch response.
type UploadMultipleResponse struct {
	URLs      []string `json:"urls"`
	PublicIDs []string `json:"public_ids"`
}

// Upload godoc
// @Summary Relay a single image to the media host
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image file"
// @Param folder formData string false "Destination folder tag"
// @Success 200 {object} UploadResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 413 {object} errors.ErrorResponse
// @Failure 415 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /upload [post]
func (h *UploadHandler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing image file")
	}
	folder := c.FormValue("folder")

	content, err := h.readValidated(fileHeader)
	if err != nil {
		return h.classified(c, fileHeader.Filename, err)
	}

	asset, err := h.media.Upload(c.Request().Context(), fileHeader.Filename, content, folder)
	if err != nil {
		return h.classified(c, fileHeader.Filename, err)
	}

	h.recordEvent(c, fileHeader.Filename, true, asset.URL)
	return c.JSON(http.StatusOK, UploadResponse{URL: asset.URL, PublicID: asset.PublicID})
}

// UploadMultiple godoc
// @Summary Relay a batch of images to the media host
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Image files"
// @Param folder formData string false "Destination folder tag"
// @Success 200 {object} UploadMultipleResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 413 {object} errors.ErrorResponse
// @Failure 415 {object} errors.ErrorResponse
// @Failure 502 {object} errors.ErrorResponse
// @Router /upload/multiple [post]
func (h *UploadHandler) UploadMultiple(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
	}
	files := form.File["files"]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no files provided")
	}
	folder := c.FormValue("folder")

	// Strictly sequential: each file finishes before the next starts, and
	// the first failure aborts the batch with that file's error.
	urls := make([]string, 0, len(files))
	publicIDs := make([]string, 0, len(files))
	for _, fileHeader := range files {
		content, err := h.readValidated(fileHeader)
		if err != nil {
			return h.classified(c, fileHeader.Filename, err)
		}
		asset, err := h.media.Upload(c.Request().Context(), fileHeader.Filename, content, folder)
		if err != nil {
			return h.classified(c, fileHeader.Filename, err)
		}
		urls = append(urls, asset.URL)
		publicIDs = append(publicIDs, asset.PublicID)
	}

	h.recordEvent(c, "batch", true, "")
	return c.JSON(http.StatusOK, UploadMultipleResponse{URLs: urls, PublicIDs: publicIDs})
}

// readValidated enforces the relay-side ceiling and allow-list, then reads
// the file fully so the media client can rebuild the body per retry attempt.
func (h *UploadHandler) readValidated(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	if err := upload.Validate(fileHeader.Filename, fileHeader.Size, head[:n], h.constraints); err != nil {
		return nil, err
	}

	rest, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return append(head[:n], rest...), nil
}

func (h *UploadHandler) classified(c echo.Context, fileName string, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	h.logger.Error().Err(err).Str("file", fileName).Str("code", httpErr.Code).Msg("upload relay failed")
	h.recordEvent(c, fileName, false, httpErr.Code)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func (h *UploadHandler) recordEvent(c echo.Context, fileName string, success bool, detail string) {
	outcome := model.OutcomeFailure
	if success {
		outcome = model.OutcomeSuccess
	}
	event := &model.AuthEvent{
		ActorEmail: h.inspector.Email(cookieValue(c, session.AccessTokenCookie)),
		Action:     model.ActionUpload,
		Outcome:    outcome,
		Detail:     fileName + " " + detail,
		RequestID:  c.Response().Header().Get(echo.HeaderXRequestID),
	}
	if err := h.audit.Create(c.Request().Context(), event); err != nil {
		h.logger.Warn().Err(err).Msg("could not write audit event")
	}
}
