package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"tripdesk/internal/config"
	"tripdesk/internal/errors"
	"tripdesk/internal/guard"
	"tripdesk/internal/handler"
	"tripdesk/internal/session"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	store session.Store,
	bridgeHandler *handler.AuthBridgeHandler,
	sessionHandler *handler.SessionHandler,
	uploadHandler *handler.UploadHandler,
	auditHandler *handler.AuditHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// The route guard runs on every request; API and unclassified paths
	// pass through untouched.
	e.Use(guard.Middleware(store))

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Cookie bridge: the only server-side surface the client-side session
	// manager depends on.
	api.GET("/auth", bridgeHandler.Status)
	api.POST("/auth", bridgeHandler.SetToken)
	api.POST("/auth/logout", bridgeHandler.ClearToken)

	// Session operations
	api.GET("/session", sessionHandler.Current)
	api.POST("/session/login", sessionHandler.Login)
	api.POST("/session/register", sessionHandler.Register)
	api.POST("/session/verify-email", sessionHandler.VerifyEmail)
	api.POST("/session/logout", sessionHandler.Logout)

	// Upload relay
	api.POST("/upload", uploadHandler.Upload)
	api.POST("/upload/multiple", uploadHandler.UploadMultiple)

	// Secured routes: a valid token in the cookie mirror is required here,
	// not just presence. Failure means the session is no longer valid.
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.JWTSecret),
		TokenLookup: "cookie:" + session.AccessTokenCookie,
		ErrorHandler: func(c echo.Context, err error) error {
			httpErr := errors.MapErrorToHTTP(errors.ErrSessionExpired)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		},
	}))

	secured.GET("/audit/events", auditHandler.ListEvents)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
