package session

import (
	"net/http"
	"time"
)

const (
	// AccessTokenCookie is the server-visible mirror of the access token.
	// The route guard checks only its presence.
	AccessTokenCookie = "accessToken"
	// SessionIDCookie keys the persisted session record in the store.
	SessionIDCookie = "sid"

	cookieMaxAge = 24 * time.Hour
)

// NewAccessCookie builds the accessToken mirror cookie: HTTP-only, path /,
// SameSite=Lax, 1-day max age, Secure when the deployment demands it.
func NewAccessCookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearAccessCookie builds a deletion cookie for the access token mirror.
func ClearAccessCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewSessionCookie builds the sid cookie with the same attributes as the
// access token mirror.
func NewSessionCookie(sid string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionIDCookie,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearSessionCookie builds a deletion cookie for the sid.
func ClearSessionCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionIDCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
