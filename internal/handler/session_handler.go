package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"tripdesk/internal/auth"
	"tripdesk/internal/errors"
	"tripdesk/internal/identity"
	"tripdesk/internal/model"
	"tripdesk/internal/repository"
	"tripdesk/internal/session"
)

// SessionHandler drives the session manager and keeps the two persisted
// copies (store record and cookies) in step on every response. The success
// response itself carries the cookie writes, so there is no window between
// "logged in" and "cookie visible" for the route guard to lose.
type SessionHandler struct {
	manager       *session.Manager
	audit         repository.AuthEventRepository
	inspector     *auth.TokenInspector
	secureCookies bool
	logger        zerolog.Logger
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(manager *session.Manager, audit repository.AuthEventRepository, inspector *auth.TokenInspector, secureCookies bool, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		manager:       manager,
		audit:         audit,
		inspector:     inspector,
		secureCookies: secureCookies,
		logger:        logger.With().Str("component", "session_handler").Logger(),
	}
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// VerifyEmailRequest represents an email verification request.
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

// SessionResponse is the session operation response payload.
type SessionResponse struct {
	Success             bool               `json:"success"`
	Message             string             `json:"message"`
	User                *model.UserProfile `json:"user,omitempty"`
	PendingVerification bool               `json:"pending_verification,omitempty"`
}

// Login godoc
// @Summary Authenticate and establish a session
// @Tags session
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} SessionResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /session/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	outcome, err := h.manager.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	h.recordEvent(c, req.Email, model.ActionLogin, outcome.Success, outcome.Message)
	if !outcome.Success {
		return c.JSON(http.StatusUnauthorized, SessionResponse{Success: false, Message: outcome.Message})
	}

	h.issueCookies(c, outcome)
	return c.JSON(http.StatusOK, SessionResponse{
		Success: true,
		Message: outcome.Message,
		User:    outcome.Session.User,
	})
}

// Register godoc
// @Summary Create an account and establish a session
// @Tags session
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} SessionResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /session/register [post]
func (h *SessionHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	outcome, err := h.manager.Register(c.Request().Context(), identity.Registration{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	h.recordEvent(c, req.Email, model.ActionRegister, outcome.Success, outcome.Message)
	if !outcome.Success {
		return c.JSON(http.StatusConflict, SessionResponse{Success: false, Message: outcome.Message})
	}

	h.issueCookies(c, outcome)
	return c.JSON(http.StatusCreated, SessionResponse{
		Success:             true,
		Message:             outcome.Message,
		User:                outcome.Session.User,
		PendingVerification: outcome.PendingVerification,
	})
}

// VerifyEmail godoc
// @Summary Submit an email verification code
// @Tags session
// @Accept json
// @Produce json
// @Param request body VerifyEmailRequest true "Verification data"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 422 {object} SessionResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /session/verify-email [post]
func (h *SessionHandler) VerifyEmail(c echo.Context) error {
	var req VerifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.manager.VerifyEmail(c.Request().Context(), cookieValue(c, session.SessionIDCookie), req.Email, req.Code)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	h.recordEvent(c, req.Email, model.ActionVerifyEmail, result.Success, result.Message)
	if !result.Success {
		return c.JSON(http.StatusUnprocessableEntity, SessionResponse{Success: false, Message: result.Message})
	}
	return c.JSON(http.StatusOK, SessionResponse{Success: true, Message: result.Message})
}

// Logout godoc
// @Summary Tear down the session
// @Tags session
// @Produce json
// @Success 200 {object} SessionResponse
// @Router /session/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	sid := cookieValue(c, session.SessionIDCookie)
	h.manager.Logout(c.Request().Context(), sid)

	// Local teardown is unconditional: both cookies go regardless of what
	// the remote call did.
	c.SetCookie(session.ClearAccessCookie(h.secureCookies))
	c.SetCookie(session.ClearSessionCookie(h.secureCookies))

	// The cookies are already cleared on this response; read the inbound one.
	actor := h.inspector.Email(cookieValue(c, session.AccessTokenCookie))
	h.recordEvent(c, actor, model.ActionLogout, true, "")
	return c.JSON(http.StatusOK, SessionResponse{Success: true, Message: "logged out"})
}

// Current godoc
// @Summary Read the reconciled session
// @Tags session
// @Produce json
// @Success 200 {object} SessionResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /session [get]
func (h *SessionHandler) Current(c echo.Context) error {
	state, err := h.manager.Bootstrap(
		c.Request().Context(),
		cookieValue(c, session.AccessTokenCookie),
		cookieValue(c, session.SessionIDCookie),
	)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	if state.ReissueCookie {
		c.SetCookie(session.NewAccessCookie(state.Session.AccessToken, h.secureCookies))
	}
	if state.SID != "" && cookieValue(c, session.SessionIDCookie) != state.SID {
		c.SetCookie(session.NewSessionCookie(state.SID, h.secureCookies))
	}

	if !state.Session.IsAuthenticated() {
		return c.JSON(http.StatusOK, SessionResponse{Success: false, Message: "not authenticated"})
	}
	return c.JSON(http.StatusOK, SessionResponse{
		Success:             true,
		Message:             "authenticated",
		User:                state.Session.User,
		PendingVerification: state.PendingVerification,
	})
}

func (h *SessionHandler) issueCookies(c echo.Context, outcome *session.Outcome) {
	c.SetCookie(session.NewAccessCookie(outcome.Session.AccessToken, h.secureCookies))
	c.SetCookie(session.NewSessionCookie(outcome.SID, h.secureCookies))
}

func (h *SessionHandler) recordEvent(c echo.Context, email, action string, success bool, detail string) {
	outcome := model.OutcomeFailure
	if success {
		outcome = model.OutcomeSuccess
	}
	event := &model.AuthEvent{
		ActorEmail: email,
		Action:     action,
		Outcome:    outcome,
		Detail:     detail,
		RequestID:  c.Response().Header().Get(echo.HeaderXRequestID),
	}
	if err := h.audit.Create(c.Request().Context(), event); err != nil {
		h.logger.Warn().Err(err).Str("action", action).Msg("could not write audit event")
	}
}

func cookieValue(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
