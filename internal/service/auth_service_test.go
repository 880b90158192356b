package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/config"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/domain"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/internal/repository"
	"github.com/pri-byte-bunny/CLINICAL-HISTORY-AI-AGENT/pkg/auth"
)

type fakeUserRepo struct {
	mu       sync.Mutex
	users    map[string]*domain.User
	attempts []bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.Email] = u
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserRepo) UpdateLoginAttempt(_ context.Context, id uuid.UUID, success bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, success)
	return nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			u.PasswordHash = hash
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func testJWTManager() *auth.JWTManager {
	return auth.NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-test-secret-test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "clinical-history-agent-test",
	})
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeUserRepo) {
	t.Helper()

	userRepo := newFakeUserRepo()
	auditSvc := NewAuditService(&fakeAuditRepo{}, testMetrics, zap.NewNop())
	t.Cleanup(auditSvc.Shutdown)

	svc := NewAuthService(userRepo, testJWTManager(), auditSvc, zap.NewNop())
	return svc, userRepo
}

func seedUser(t *testing.T, repo *fakeUserRepo, email, password string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	u := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleClinician,
		IsActive:     true,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestLogin(t *testing.T) {
	svc, repo := newTestAuthService(t)
	seedUser(t, repo, "doc@example.org", "correct horse battery")

	t.Run("success", func(t *testing.T) {
		pair, err := svc.Login(context.Background(), "doc@example.org", "correct horse battery", "10.0.0.1")
		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Equal(t, "Bearer", pair.TokenType)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "doc@example.org", "wrong", "10.0.0.1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "nobody@example.org", "anything", "10.0.0.1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, repo := newTestAuthService(t)
	u := seedUser(t, repo, "gone@example.org", "correct horse battery")
	u.IsActive = false

	_, err := svc.Login(context.Background(), "gone@example.org", "correct horse battery", "")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestLoginLockedAccount(t *testing.T) {
	svc, repo := newTestAuthService(t)
	u := seedUser(t, repo, "locked@example.org", "correct horse battery")
	until := time.Now().Add(10 * time.Minute)
	u.LockedUntil = &until

	_, err := svc.Login(context.Background(), "locked@example.org", "correct horse battery", "")
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestLoginRecordsAttempts(t *testing.T) {
	svc, repo := newTestAuthService(t)
	seedUser(t, repo, "doc@example.org", "correct horse battery")

	_, _ = svc.Login(context.Background(), "doc@example.org", "wrong", "")
	_, err := svc.Login(context.Background(), "doc@example.org", "correct horse battery", "")
	require.NoError(t, err)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Equal(t, []bool{false, true}, repo.attempts)
}

func TestRefreshToken(t *testing.T) {
	svc, repo := newTestAuthService(t)
	u := seedUser(t, repo, "doc@example.org", "correct horse battery")

	pair, err := svc.Login(context.Background(), "doc@example.org", "correct horse battery", "")
	require.NoError(t, err)

	t.Run("valid refresh token", func(t *testing.T) {
		next, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, next.AccessToken)
	})

	t.Run("access token rejected as refresh", func(t *testing.T) {
		_, err := svc.RefreshToken(context.Background(), pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("deactivated user rejected", func(t *testing.T) {
		u.IsActive = false
		defer func() { u.IsActive = true }()

		_, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.RefreshToken(context.Background(), "not.a.token")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestChangePassword(t *testing.T) {
	svc, repo := newTestAuthService(t)
	u := seedUser(t, repo, "doc@example.org", "correct horse battery")

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(context.Background(), u.ID, "wrong", "a much longer new password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("weak new password", func(t *testing.T) {
		err := svc.ChangePassword(context.Background(), u.ID, "correct horse battery", "short")
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("success", func(t *testing.T) {
		err := svc.ChangePassword(context.Background(), u.ID, "correct horse battery", "a much longer new password")
		require.NoError(t, err)

		_, err = svc.Login(context.Background(), "doc@example.org", "a much longer new password", "")
		assert.NoError(t, err)
	})
}
