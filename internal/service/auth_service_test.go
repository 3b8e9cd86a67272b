package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/formloop/formloop-api/internal/models"
	appErrors "github.com/formloop/formloop-api/pkg/errors"
)

type mockAuthUserRepo struct {
	users      map[string]*models.User
	lastLogins []string
}

func (m *mockAuthUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLogins = append(m.lastLogins, id)
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *mockAuthUserRepo) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockAuthUserRepo{users: map[string]*models.User{
		"user-1": {ID: "user-1", Email: "alice@example.com", PasswordHash: string(hash), FullName: "Alice", Role: models.RoleAdmin, Active: true},
	}}
	svc := NewAuthService(repo, nil, nil, AuthConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "formloop-test"})
	return svc, repo
}

func TestLoginSuccess(t *testing.T) {
	svc, repo := newAuthFixture(t)

	result, err := svc.Login(context.Background(), models.LoginRequest{Email: "alice@example.com", Password: "s3cret!"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, int64(3600), result.ExpiresIn)
	assert.Equal(t, "user-1", result.User.ID)
	assert.Equal(t, []string{"user-1"}, repo.lastLogins)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "alice@example.com", Password: "wrong"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredential.Code, appErr.Code)
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "s3cret!"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredential.Code, appErr.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, repo := newAuthFixture(t)
	repo.users["user-1"].Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "alice@example.com", Password: "s3cret!"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	svc, _ := newAuthFixture(t)

	result, err := svc.Login(context.Background(), models.LoginRequest{Email: "alice@example.com", Password: "s3cret!"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	identity := claims.Identity()
	assert.True(t, identity.Authenticated)
	assert.Equal(t, "user-1", identity.UserID)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc, _ := newAuthFixture(t)
	other := NewAuthService(&mockAuthUserRepo{}, nil, nil, AuthConfig{Secret: "other-secret", Expiration: time.Hour})

	result, err := svc.Login(context.Background(), models.LoginRequest{Email: "alice@example.com", Password: "s3cret!"})
	require.NoError(t, err)

	_, err = other.ValidateToken(result.AccessToken)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}
