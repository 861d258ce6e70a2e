package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tripdesk/internal/session"
)

// AuthBridgeHandler implements the session cookie bridge: the three
// endpoints that let server-side route checks see authentication without
// access to the client store.
type AuthBridgeHandler struct {
	secureCookies bool
}

// NewAuthBridgeHandler creates the cookie bridge handler.
func NewAuthBridgeHandler(secureCookies bool) *AuthBridgeHandler {
	return &AuthBridgeHandler{secureCookies: secureCookies}
}

// SetTokenRequest carries the access token to mirror into the cookie.
type SetTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// AuthStatusResponse reports cookie-presence authentication state.
type AuthStatusResponse struct {
	IsAuthenticated bool `json:"isAuthenticated"`
}

// Status godoc
// @Summary Check cookie-presence authentication state
// @Tags auth-bridge
// @Produce json
// @Success 200 {object} AuthStatusResponse
// @Router /auth [get]
func (h *AuthBridgeHandler) Status(c echo.Context) error {
	cookie, err := c.Cookie(session.AccessTokenCookie)
	present := err == nil && cookie.Value != ""
	return c.JSON(http.StatusOK, AuthStatusResponse{IsAuthenticated: present})
}

// SetToken godoc
// @Summary Mirror an access token into the server-visible cookie
// @Tags auth-bridge
// @Accept json
// @Produce json
// @Param request body SetTokenRequest true "Access token"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Router /auth [post]
func (h *AuthBridgeHandler) SetToken(c echo.Context) error {
	var req SetTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	c.SetCookie(session.NewAccessCookie(req.Token, h.secureCookies))
	return c.JSON(http.StatusOK, map[string]string{"message": "token cookie set"})
}

// ClearToken godoc
// @Summary Delete the server-visible access token cookie
// @Tags auth-bridge
// @Produce json
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *AuthBridgeHandler) ClearToken(c echo.Context) error {
	c.SetCookie(session.ClearAccessCookie(h.secureCookies))
	return c.JSON(http.StatusOK, map[string]string{"message": "token cookie cleared"})
}
