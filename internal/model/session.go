package model

// UserProfile is the identity API's view of an account. It is replaced
// wholesale on login and register and patched in place when email
// verification completes.
type UserProfile struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Role          string `json:"role,omitempty"`
	Status        string `json:"status,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
}

// Session is the authenticated-identity state for one client. The persisted
// copy lives in the session store keyed by sid; the accessToken cookie is a
// derived mirror of AccessToken only.
type Session struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *UserProfile `json:"user"`
}

// IsAuthenticated reports whether the session carries a usable identity.
// A token without a profile never counts as authenticated.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.AccessToken != "" && s.User != nil
}
