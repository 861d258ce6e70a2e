package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "tripdesk/internal/errors"
	"tripdesk/internal/identity"
	"tripdesk/internal/model"
)

// MockIdentityAPI is a mock implementation of IdentityAPI.
type MockIdentityAPI struct {
	mock.Mock
}

func (m *MockIdentityAPI) Login(ctx context.Context, email, password string) (*identity.AuthResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.AuthResult), args.Error(1)
}

func (m *MockIdentityAPI) Register(ctx context.Context, reg identity.Registration) (*identity.AuthResult, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.AuthResult), args.Error(1)
}

func (m *MockIdentityAPI) VerifyEmail(ctx context.Context, email, code string) error {
	args := m.Called(ctx, email, code)
	return args.Error(0)
}

func (m *MockIdentityAPI) Logout(ctx context.Context, accessToken, refreshToken string) error {
	args := m.Called(ctx, accessToken, refreshToken)
	return args.Error(0)
}

func (m *MockIdentityAPI) Profile(ctx context.Context, accessToken string) (*model.UserProfile, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

// memStore is an in-memory Store for manager tests.
type memStore struct {
	sessions map[string]*model.Session
	pending  map[string]bool
	saveErr  error
}

func newMemStore() *memStore {
	return &memStore{
		sessions: make(map[string]*model.Session),
		pending:  make(map[string]bool),
	}
}

func (s *memStore) Save(ctx context.Context, sid string, sess *model.Session, ttl time.Duration) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.sessions[sid] = sess
	return nil
}

func (s *memStore) Get(ctx context.Context, sid string) (*model.Session, error) {
	return s.sessions[sid], nil
}

func (s *memStore) Delete(ctx context.Context, sid string) error {
	delete(s.sessions, sid)
	return nil
}

func (s *memStore) MarkPendingVerification(ctx context.Context, email string) error {
	s.pending[email] = true
	return nil
}

func (s *memStore) ClearPendingVerification(ctx context.Context, email string) error {
	delete(s.pending, email)
	return nil
}

func (s *memStore) IsPendingVerification(ctx context.Context, email string) (bool, error) {
	return s.pending[email], nil
}

func newTestManager(api IdentityAPI, store Store) *Manager {
	return NewManager(api, store, time.Hour, zerolog.Nop())
}

func authResult(email string) *identity.AuthResult {
	return &identity.AuthResult{
		AccessToken:  "access-" + email,
		RefreshToken: "refresh-" + email,
		User: &model.UserProfile{
			ID:        7,
			Username:  "admin",
			Email:     email,
			FirstName: "Ada",
			LastName:  "Lovelace",
		},
	}
}

func TestManager_Login(t *testing.T) {
	tests := []struct {
		name            string
		email           string
		setupMock       func(*MockIdentityAPI)
		expectSuccess   bool
		expectMessage   string
		expectPersisted bool
	}{
		{
			name:  "successful login persists session",
			email: "admin@example.com",
			setupMock: func(m *MockIdentityAPI) {
				m.On("Login", mock.Anything, "admin@example.com", "secret").
					Return(authResult("admin@example.com"), nil)
			},
			expectSuccess:   true,
			expectPersisted: true,
		},
		{
			name:  "rejected credentials surface the API message",
			email: "admin@example.com",
			setupMock: func(m *MockIdentityAPI) {
				m.On("Login", mock.Anything, "admin@example.com", "secret").
					Return(nil, &identity.APIError{Status: 401, Message: "invalid email or password"})
			},
			expectSuccess: false,
			expectMessage: "invalid email or password",
		},
		{
			name:  "network failure surfaces a short message",
			email: "admin@example.com",
			setupMock: func(m *MockIdentityAPI) {
				m.On("Login", mock.Anything, "admin@example.com", "secret").
					Return(nil, apperrors.ErrNetwork)
			},
			expectSuccess: false,
			expectMessage: apperrors.ErrNetwork.Error(),
		},
		{
			name:  "token without user never becomes a session",
			email: "admin@example.com",
			setupMock: func(m *MockIdentityAPI) {
				m.On("Login", mock.Anything, "admin@example.com", "secret").
					Return(&identity.AuthResult{AccessToken: "tok"}, nil)
			},
			expectSuccess: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockIdentityAPI)
			tt.setupMock(api)
			store := newMemStore()
			m := newTestManager(api, store)

			outcome, err := m.Login(context.Background(), tt.email, "secret")
			require.NoError(t, err)
			assert.Equal(t, tt.expectSuccess, outcome.Success)
			if tt.expectMessage != "" {
				assert.Equal(t, tt.expectMessage, outcome.Message)
			}

			if tt.expectPersisted {
				require.NotEmpty(t, outcome.SID)
				stored, _ := store.Get(context.Background(), outcome.SID)
				require.NotNil(t, stored)
				assert.Equal(t, tt.email, stored.User.Email)
				assert.True(t, stored.IsAuthenticated())
			} else {
				assert.Empty(t, outcome.SID)
				assert.Empty(t, store.sessions)
			}
			api.AssertExpectations(t)
		})
	}
}

func TestManager_Login_StoreFailure(t *testing.T) {
	api := new(MockIdentityAPI)
	api.On("Login", mock.Anything, "admin@example.com", "secret").
		Return(authResult("admin@example.com"), nil)
	store := newMemStore()
	store.saveErr = errors.New("redis down")
	m := newTestManager(api, store)

	_, err := m.Login(context.Background(), "admin@example.com", "secret")
	require.Error(t, err)
	assert.Empty(t, store.sessions)
}

func TestManager_Register(t *testing.T) {
	api := new(MockIdentityAPI)
	reg := identity.Registration{
		Username:  "newadmin",
		Email:     "new@example.com",
		Password:  "password123",
		FirstName: "New",
		LastName:  "Admin",
	}
	api.On("Register", mock.Anything, reg).Return(authResult("new@example.com"), nil)
	store := newMemStore()
	m := newTestManager(api, store)

	outcome, err := m.Register(context.Background(), reg)
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.True(t, outcome.PendingVerification)

	pending, _ := store.IsPendingVerification(context.Background(), "new@example.com")
	assert.True(t, pending, "registration must leave a pending-verification marker")

	stored, _ := store.Get(context.Background(), outcome.SID)
	require.NotNil(t, stored)
	assert.Equal(t, "new@example.com", stored.User.Email)
}

func TestManager_VerifyEmail(t *testing.T) {
	tests := []struct {
		name           string
		storedEmail    string
		verifyEmail    string
		expectVerified bool
	}{
		{
			name:           "matching email patched in place",
			storedEmail:    "admin@example.com",
			verifyEmail:    "admin@example.com",
			expectVerified: true,
		},
		{
			name:           "case-insensitive email match",
			storedEmail:    "Admin@Example.com",
			verifyEmail:    "admin@example.com",
			expectVerified: true,
		},
		{
			name:           "different email never patched",
			storedEmail:    "admin@example.com",
			verifyEmail:    "other@example.com",
			expectVerified: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockIdentityAPI)
			api.On("VerifyEmail", mock.Anything, tt.verifyEmail, "123456").Return(nil)
			store := newMemStore()
			store.sessions["sid-1"] = &model.Session{
				AccessToken: "tok",
				User:        &model.UserProfile{Email: tt.storedEmail},
			}
			store.pending[tt.verifyEmail] = true
			m := newTestManager(api, store)

			result, err := m.VerifyEmail(context.Background(), "sid-1", tt.verifyEmail, "123456")
			require.NoError(t, err)
			assert.True(t, result.Success)

			stored, _ := store.Get(context.Background(), "sid-1")
			assert.Equal(t, tt.expectVerified, stored.User.EmailVerified)

			pending, _ := store.IsPendingVerification(context.Background(), tt.verifyEmail)
			assert.False(t, pending, "verification must clear the pending marker")
		})
	}
}

func TestManager_VerifyEmail_Rejected(t *testing.T) {
	api := new(MockIdentityAPI)
	api.On("VerifyEmail", mock.Anything, "admin@example.com", "000000").
		Return(&identity.APIError{Status: 422, Message: "invalid verification code"})
	store := newMemStore()
	m := newTestManager(api, store)

	result, err := m.VerifyEmail(context.Background(), "", "admin@example.com", "000000")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "invalid verification code", result.Message)
}

func TestManager_Logout(t *testing.T) {
	tests := []struct {
		name      string
		remoteErr error
	}{
		{"remote logout succeeds", nil},
		{"remote logout failure still clears locally", errors.New("identity API timeout")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockIdentityAPI)
			api.On("Logout", mock.Anything, "tok", "refresh").Return(tt.remoteErr)
			store := newMemStore()
			store.sessions["sid-1"] = &model.Session{
				AccessToken:  "tok",
				RefreshToken: "refresh",
				User:         &model.UserProfile{Email: "admin@example.com"},
			}
			m := newTestManager(api, store)

			m.Logout(context.Background(), "sid-1")

			stored, _ := store.Get(context.Background(), "sid-1")
			assert.Nil(t, stored, "local teardown is unconditional")
			api.AssertExpectations(t)
		})
	}
}

func TestManager_Logout_NoRefreshToken(t *testing.T) {
	api := new(MockIdentityAPI)
	store := newMemStore()
	store.sessions["sid-1"] = &model.Session{
		AccessToken: "tok",
		User:        &model.UserProfile{Email: "admin@example.com"},
	}
	m := newTestManager(api, store)

	// No refresh token: the remote call is skipped entirely, not attempted
	// and failed.
	m.Logout(context.Background(), "sid-1")

	stored, _ := store.Get(context.Background(), "sid-1")
	assert.Nil(t, stored)
	api.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything, mock.Anything)
}

func TestManager_Bootstrap(t *testing.T) {
	t.Run("cookie and store agree", func(t *testing.T) {
		api := new(MockIdentityAPI)
		store := newMemStore()
		store.sessions["sid-1"] = &model.Session{
			AccessToken: "tok",
			User:        &model.UserProfile{Email: "admin@example.com"},
		}
		m := newTestManager(api, store)

		state, err := m.Bootstrap(context.Background(), "tok", "sid-1")
		require.NoError(t, err)
		assert.True(t, state.Session.IsAuthenticated())
		assert.False(t, state.ReissueCookie)
		assert.Equal(t, "sid-1", state.SID)
	})

	t.Run("cookie only recovers via profile fetch", func(t *testing.T) {
		api := new(MockIdentityAPI)
		api.On("Profile", mock.Anything, "tok").
			Return(&model.UserProfile{ID: 7, Email: "admin@example.com"}, nil)
		store := newMemStore()
		m := newTestManager(api, store)

		state, err := m.Bootstrap(context.Background(), "tok", "")
		require.NoError(t, err)
		assert.True(t, state.Session.IsAuthenticated())
		assert.Equal(t, "admin@example.com", state.Session.User.Email)
		require.NotEmpty(t, state.SID)

		stored, _ := store.Get(context.Background(), state.SID)
		assert.NotNil(t, stored, "recovered session must be persisted")
	})

	t.Run("cookie only with dead token ends empty", func(t *testing.T) {
		api := new(MockIdentityAPI)
		api.On("Profile", mock.Anything, "stale").Return(nil, apperrors.ErrSessionExpired)
		store := newMemStore()
		m := newTestManager(api, store)

		state, err := m.Bootstrap(context.Background(), "stale", "")
		require.NoError(t, err)
		assert.False(t, state.Session.IsAuthenticated())
	})

	t.Run("store only re-issues cookie", func(t *testing.T) {
		api := new(MockIdentityAPI)
		store := newMemStore()
		store.sessions["sid-1"] = &model.Session{
			AccessToken: "tok",
			User:        &model.UserProfile{Email: "admin@example.com"},
		}
		m := newTestManager(api, store)

		state, err := m.Bootstrap(context.Background(), "", "sid-1")
		require.NoError(t, err)
		assert.True(t, state.Session.IsAuthenticated())
		assert.True(t, state.ReissueCookie, "cookie must be re-issued from the stored token")
	})

	t.Run("unverified user surfaces the pending marker", func(t *testing.T) {
		api := new(MockIdentityAPI)
		store := newMemStore()
		store.sessions["sid-1"] = &model.Session{
			AccessToken: "tok",
			User:        &model.UserProfile{Email: "new@example.com"},
		}
		store.pending["new@example.com"] = true
		m := newTestManager(api, store)

		state, err := m.Bootstrap(context.Background(), "tok", "sid-1")
		require.NoError(t, err)
		assert.True(t, state.PendingVerification)
	})

	t.Run("neither source ends empty", func(t *testing.T) {
		api := new(MockIdentityAPI)
		store := newMemStore()
		m := newTestManager(api, store)

		state, err := m.Bootstrap(context.Background(), "", "")
		require.NoError(t, err)
		assert.False(t, state.Session.IsAuthenticated())
		assert.False(t, state.ReissueCookie)
	})
}
