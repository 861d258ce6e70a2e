package guard

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"tripdesk/internal/session"
)

// Class is the route classification the guard decides on.
type Class int

const (
	// Unclassified paths pass through untouched, the root path included.
	Unclassified Class = iota
	// Public paths are reachable only without a session.
	Public
	// Protected paths require a session.
	Protected
)

// Redirect targets.
const (
	LoginPath     = "/login"
	DashboardHome = "/dashboard"
)

var publicPaths = map[string]struct{}{
	"/login":        {},
	"/register":     {},
	"/verify-email": {},
}

var protectedPrefixes = []string{
	"/dashboard",
	"/packages",
	"/events",
	"/destinations",
	"/business-verification",
	"/blog",
	"/users",
	"/reviews",
	"/analytics",
	"/settings",
}

// Classify buckets a request path. Public is an exact-match list, Protected
// a prefix list; everything else is Unclassified.
func Classify(path string) Class {
	if _, ok := publicPaths[path]; ok {
		return Public
	}
	for _, prefix := range protectedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return Protected
		}
	}
	return Unclassified
}

// Decide is the guard's whole policy: a pure function of the path and the
// access cookie's presence. It returns the redirect target, or "" to allow.
// Token signature and expiry are deliberately not checked here; presence is
// the contract.
func Decide(path string, cookiePresent bool) string {
	switch Classify(path) {
	case Public:
		if cookiePresent {
			return DashboardHome
		}
	case Protected:
		if !cookiePresent {
			return LoginPath
		}
	}
	return ""
}

// Middleware evaluates Decide on every request. When the access cookie is
// absent but a sid cookie still resolves to a live session record, the
// guard treats the user as authenticated rather than bouncing them to login
// while the cookie re-issue is in flight.
func Middleware(store session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			present := hasAccessCookie(c)
			if !present {
				if sid, err := c.Cookie(session.SessionIDCookie); err == nil && sid.Value != "" {
					stored, err := store.Get(c.Request().Context(), sid.Value)
					if err == nil && stored.IsAuthenticated() {
						present = true
					}
				}
			}

			if target := Decide(c.Request().URL.Path, present); target != "" {
				return c.Redirect(http.StatusFound, target)
			}
			return next(c)
		}
	}
}

func hasAccessCookie(c echo.Context) bool {
	cookie, err := c.Cookie(session.AccessTokenCookie)
	return err == nil && cookie.Value != ""
}
