package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "tripdesk/internal/errors"
	"tripdesk/internal/identity"
	"tripdesk/internal/model"
)

// IdentityAPI is the slice of the identity client the manager depends on.
type IdentityAPI interface {
	Login(ctx context.Context, email, password string) (*identity.AuthResult, error)
	Register(ctx context.Context, reg identity.Registration) (*identity.AuthResult, error)
	VerifyEmail(ctx context.Context, email, code string) error
	Logout(ctx context.Context, accessToken, refreshToken string) error
	Profile(ctx context.Context, accessToken string) (*model.UserProfile, error)
}

// Result is the user-facing outcome of a session operation.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Outcome is the full result of login or register: the user-facing Result
// plus the material the handler needs to issue cookies.
type Outcome struct {
	Result
	SID                 string
	Session             *model.Session
	PendingVerification bool
}

// BootstrapState is the reconciled session at process start. ReissueCookie
// is set when the access cookie was missing but the store still held a valid
// record, so the caller should rewrite the cookie from the stored token.
type BootstrapState struct {
	SID                 string
	Session             *model.Session
	ReissueCookie       bool
	PendingVerification bool
}

// Manager is the single source of truth for who is logged in. It holds no
// mutable session itself; all state lives in the injected store, so any
// number of requests can share one Manager.
type Manager struct {
	identity IdentityAPI
	store    Store
	ttl      time.Duration
	logger   zerolog.Logger
}

// NewManager creates a session manager. ttl bounds both the stored record
// and, by convention, the cookie max age.
func NewManager(identityAPI IdentityAPI, store Store, ttl time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{
		identity: identityAPI,
		store:    store,
		ttl:      ttl,
		logger:   logger.With().Str("component", "session").Logger(),
	}
}

// Bootstrap reconciles the two persisted copies of the session: the access
// cookie (server-visible mirror) and the sid-keyed store record. The two can
// fall out of sync across tabs and reloads; neither source being intact
// should force the user to re-authenticate.
func (m *Manager) Bootstrap(ctx context.Context, cookieToken, sid string) (*BootstrapState, error) {
	state, err := m.reconcile(ctx, cookieToken, sid)
	if err != nil {
		return nil, err
	}

	if state.Session.IsAuthenticated() && !state.Session.User.EmailVerified {
		pending, err := m.store.IsPendingVerification(ctx, state.Session.User.Email)
		if err != nil {
			m.logger.Warn().Err(err).Msg("bootstrap: could not read pending verification marker")
		} else {
			state.PendingVerification = pending
		}
	}
	return state, nil
}

func (m *Manager) reconcile(ctx context.Context, cookieToken, sid string) (*BootstrapState, error) {
	var stored *model.Session
	if sid != "" {
		var err error
		stored, err = m.store.Get(ctx, sid)
		if err != nil {
			return nil, err
		}
	}

	if cookieToken != "" {
		if stored.IsAuthenticated() {
			return &BootstrapState{SID: sid, Session: stored}, nil
		}
		// Cookie without a local record: recover the profile from the
		// identity API instead of dropping the user back to login.
		profile, err := m.identity.Profile(ctx, cookieToken)
		if err != nil {
			m.logger.Warn().Err(err).Msg("bootstrap: cookie token unusable, starting empty")
			return &BootstrapState{Session: &model.Session{}}, nil
		}
		sess := &model.Session{AccessToken: cookieToken, User: profile}
		newSID := uuid.NewString()
		if err := m.store.Save(ctx, newSID, sess, m.ttl); err != nil {
			return nil, err
		}
		return &BootstrapState{SID: newSID, Session: sess}, nil
	}

	if stored.IsAuthenticated() {
		// Self-healing resync: the cookie vanished but the store record is
		// intact, so the cookie gets re-issued from the stored token.
		return &BootstrapState{SID: sid, Session: stored, ReissueCookie: true}, nil
	}

	return &BootstrapState{Session: &model.Session{}}, nil
}

// Login authenticates against the identity API and persists the session.
// API rejections and transport failures come back as a failed Result with a
// user-facing message; nothing is persisted on failure. A non-nil error
// means the store itself failed.
func (m *Manager) Login(ctx context.Context, email, password string) (*Outcome, error) {
	result, err := m.identity.Login(ctx, email, password)
	if err != nil {
		return m.failedOutcome("login", email, err), nil
	}
	if result.User == nil {
		// Never publish a token without a profile.
		m.logger.Error().Str("email", email).Msg("login: identity API returned token without user")
		return m.failedOutcome("login", email, apperrors.ErrProtocol), nil
	}

	sess := &model.Session{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         result.User,
	}
	sid := uuid.NewString()
	if err := m.store.Save(ctx, sid, sess, m.ttl); err != nil {
		return nil, err
	}

	m.logger.Info().Str("email", result.User.Email).Msg("login succeeded")
	return &Outcome{
		Result:  Result{Success: true, Message: "logged in"},
		SID:     sid,
		Session: sess,
	}, nil
}

// Register creates an account, persists the session exactly like Login, and
// marks the account as pending email verification. The marker lives outside
// the session; the user may close the tab before verifying.
func (m *Manager) Register(ctx context.Context, reg identity.Registration) (*Outcome, error) {
	result, err := m.identity.Register(ctx, reg)
	if err != nil {
		return m.failedOutcome("register", reg.Email, err), nil
	}
	if result.User == nil {
		m.logger.Error().Str("email", reg.Email).Msg("register: identity API returned token without user")
		return m.failedOutcome("register", reg.Email, apperrors.ErrProtocol), nil
	}

	sess := &model.Session{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         result.User,
	}
	sid := uuid.NewString()
	if err := m.store.Save(ctx, sid, sess, m.ttl); err != nil {
		return nil, err
	}
	if err := m.store.MarkPendingVerification(ctx, result.User.Email); err != nil {
		// The session is already established; a lost marker only costs a
		// reminder banner.
		m.logger.Warn().Err(err).Str("email", result.User.Email).Msg("could not mark pending verification")
	}

	m.logger.Info().Str("email", result.User.Email).Msg("registration succeeded")
	return &Outcome{
		Result:              Result{Success: true, Message: "account created, verification email sent"},
		SID:                 sid,
		Session:             sess,
		PendingVerification: true,
	}, nil
}

// VerifyEmail submits the code to the identity API. On success the stored
// profile is patched in place, but only when its email matches: verification
// for a different email never fabricates a verified profile.
func (m *Manager) VerifyEmail(ctx context.Context, sid, email, code string) (*Result, error) {
	if err := m.identity.VerifyEmail(ctx, email, code); err != nil {
		out := m.failedOutcome("verify_email", email, err)
		return &out.Result, nil
	}

	if sid != "" {
		sess, err := m.store.Get(ctx, sid)
		if err != nil {
			return nil, err
		}
		if sess.IsAuthenticated() && strings.EqualFold(sess.User.Email, email) {
			sess.User.EmailVerified = true
			if err := m.store.Save(ctx, sid, sess, m.ttl); err != nil {
				return nil, err
			}
		}
	}
	if err := m.store.ClearPendingVerification(ctx, email); err != nil {
		m.logger.Warn().Err(err).Str("email", email).Msg("could not clear pending verification marker")
	}

	m.logger.Info().Str("email", email).Msg("email verified")
	return &Result{Success: true, Message: "email verified"}, nil
}

// Logout tears the session down. Remote invalidation is best effort; a
// missing or expired refresh token is tolerated. Local teardown is
// unconditional and Logout never reports failure.
func (m *Manager) Logout(ctx context.Context, sid string) {
	if sid == "" {
		return
	}

	sess, err := m.store.Get(ctx, sid)
	if err != nil {
		m.logger.Warn().Err(err).Msg("logout: could not read session, clearing anyway")
	}
	if sess != nil && sess.RefreshToken != "" {
		if err := m.identity.Logout(ctx, sess.AccessToken, sess.RefreshToken); err != nil {
			m.logger.Warn().Err(err).Msg("remote logout failed, continuing local teardown")
		}
	}

	if err := m.store.Delete(ctx, sid); err != nil {
		m.logger.Error().Err(err).Msg("logout: could not delete session record")
	}
}

// failedOutcome logs the detailed cause and converts it into a short
// user-facing Result. Nothing is persisted on any failure path.
func (m *Manager) failedOutcome(action, email string, err error) *Outcome {
	m.logger.Error().Err(err).Str("action", action).Str("email", email).Msg("session operation failed")

	message := "something went wrong, please try again"
	var apiErr *identity.APIError
	switch {
	case errors.As(err, &apiErr):
		message = apiErr.Message
	case errors.Is(err, apperrors.ErrNetwork):
		message = apperrors.ErrNetwork.Error()
	}
	return &Outcome{Result: Result{Success: false, Message: message}}
}
