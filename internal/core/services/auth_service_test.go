package services

import (
	"context"
	"path/filepath"
	"testing"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/adapters/persistence/repositories"
	"shelftrack/internal/config"
	"shelftrack/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "auth_test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	cfg := &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "test_secret",
			RefreshSecret:    "test_refresh_secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}

	return NewAuthService(
		repositories.NewUserRepository(db),
		repositories.NewRefreshTokenRepository(db),
		cfg,
	)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, &RegisterInput{
		Username: "librarian",
		Email:    "librarian@example.com",
		Password: "supersecret1",
	})
	require.NoError(t, err)

	assert.Equal(t, "librarian", result.User.Username)
	assert.Equal(t, "STAFF", result.User.Role)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)

	login, err := svc.Login(ctx, &LoginInput{Username: "librarian", Password: "supersecret1"})
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterInput{
		Username: "librarian", Email: "one@example.com", Password: "supersecret1",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &RegisterInput{
		Username: "librarian", Email: "two@example.com", Password: "supersecret1",
	})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterInput{
		Username: "librarian", Email: "librarian@example.com", Password: "supersecret1",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &LoginInput{Username: "librarian", Password: "wrongpassword"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Login(context.Background(), &LoginInput{Username: "ghost", Password: "whatever123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshTokenRotation(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, &RegisterInput{
		Username: "librarian", Email: "librarian@example.com", Password: "supersecret1",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, registered.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)

	// The spent token is revoked by rotation
	_, err = svc.RefreshToken(ctx, registered.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// The rotated token still works
	_, err = svc.RefreshToken(ctx, refreshed.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshTokenGarbage(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.RefreshToken(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, &RegisterInput{
		Username: "librarian", Email: "librarian@example.com", Password: "supersecret1",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, registered.RefreshToken))

	_, err = svc.RefreshToken(ctx, registered.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestLogoutAllRevokesEverySession(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, &RegisterInput{
		Username: "librarian", Email: "librarian@example.com", Password: "supersecret1",
	})
	require.NoError(t, err)

	second, err := svc.Login(ctx, &LoginInput{Username: "librarian", Password: "supersecret1"})
	require.NoError(t, err)

	require.NoError(t, svc.LogoutAll(ctx, registered.User.ID))

	_, err = svc.RefreshToken(ctx, registered.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	_, err = svc.RefreshToken(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}
