package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pos-suite/pos-backend/internal/dto"
	"github.com/pos-suite/pos-backend/internal/mocks"
	"github.com/pos-suite/pos-backend/internal/models"
	"github.com/pos-suite/pos-backend/internal/security"
	"github.com/pos-suite/pos-backend/internal/stores"
)

type authFixture struct {
	users   *mocks.UserStore
	refresh *mocks.RefreshTokenStore
	mail    *mocks.MailSender
	tokens  *security.TokenService
	svc     *AuthService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:   new(mocks.UserStore),
		refresh: new(mocks.RefreshTokenStore),
		mail:    new(mocks.MailSender),
		tokens:  security.NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 168*time.Hour),
	}
	hasher := security.NewPasswordHasher(4)
	f.svc = NewAuthService(f.users, f.refresh, hasher, f.tokens, f.mail)
	return f
}

func testUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := security.NewPasswordHasher(4).Hash(password)
	require.NoError(t, err)
	return &models.User{
		ID:       uuid.New(),
		Username: "cashier01",
		Email:    "cashier@example.com",
		Password: hash,
		IsActive: true,
		Roles:    []models.Role{{Name: "user", IsDefault: true}},
	}
}

func TestLoginSuccess(t *testing.T) {
	f := newAuthFixture()
	user := testUser(t, "secret123")

	f.users.On("FindByLogin", mock.Anything, "cashier01").Return(user, nil)
	f.users.On("TouchLastLogin", mock.Anything, user.ID, mock.Anything).Return(nil)
	f.refresh.On("Create", mock.Anything, user.ID, mock.Anything, 168*time.Hour, "10.0.0.1").
		Return(&models.RefreshToken{ID: uuid.New(), UserID: user.ID}, nil)

	resp, err := f.svc.Login(context.Background(), &dto.LoginRequest{Login: "cashier01", Password: "secret123"}, "10.0.0.1")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.Equal(t, "user", resp.User.Role)

	// The issued pair verifies against the matching key kinds only.
	_, err = f.tokens.Verify(resp.AccessToken, security.KindAccess)
	assert.NoError(t, err)
	_, err = f.tokens.Verify(resp.RefreshToken, security.KindRefresh)
	assert.NoError(t, err)
	_, err = f.tokens.Verify(resp.RefreshToken, security.KindAccess)
	assert.ErrorIs(t, err, security.ErrTokenInvalid)

	f.refresh.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture()
	user := testUser(t, "secret123")

	f.users.On("FindByLogin", mock.Anything, "cashier01").Return(user, nil)

	_, err := f.svc.Login(context.Background(), &dto.LoginRequest{Login: "cashier01", Password: "nope"}, "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	f.refresh.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginUnknownUser(t *testing.T) {
	f := newAuthFixture()
	f.users.On("FindByLogin", mock.Anything, "ghost").Return(nil, stores.ErrNotFound)

	_, err := f.svc.Login(context.Background(), &dto.LoginRequest{Login: "ghost", Password: "whatever"}, "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginInactiveUser(t *testing.T) {
	f := newAuthFixture()
	user := testUser(t, "secret123")
	user.IsActive = false

	f.users.On("FindByLogin", mock.Anything, "cashier01").Return(user, nil)

	_, err := f.svc.Login(context.Background(), &dto.LoginRequest{Login: "cashier01", Password: "secret123"}, "10.0.0.1")
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestRegisterAssignsDefaultRoleAndSendsMail(t *testing.T) {
	f := newAuthFixture()

	f.users.On("DefaultRole", mock.Anything).Return(&models.Role{Name: "user", IsDefault: true}, nil)
	f.users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) {
			user := args.Get(1).(*models.User)
			user.ID = uuid.New()
			assert.NotEqual(t, "secret123", user.Password)
			require.NotNil(t, user.EmailVerificationToken)
		}).Return(nil)
	f.mail.On("SendVerificationEmail", "ada@example.com", mock.Anything).Return(nil)
	f.refresh.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&models.RefreshToken{}, nil)

	resp, err := f.svc.Register(context.Background(), &dto.RegisterRequest{
		Username:  "ada",
		Email:     "Ada@Example.com",
		Password:  "secret123",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}, "10.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, "user", resp.User.Role)
	f.mail.AssertExpectations(t)
}

func TestRegisterDuplicate(t *testing.T) {
	f := newAuthFixture()

	f.users.On("DefaultRole", mock.Anything).Return(nil, stores.ErrNotFound)
	f.users.On("Create", mock.Anything, mock.Anything).Return(stores.ErrDuplicate)

	_, err := f.svc.Register(context.Background(), &dto.RegisterRequest{
		Username:  "ada",
		Email:     "ada@example.com",
		Password:  "secret123",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}, "10.0.0.1")
	assert.ErrorIs(t, err, ErrUserTaken)
}

func TestRegisterValidation(t *testing.T) {
	f := newAuthFixture()

	cases := []dto.RegisterRequest{
		{Username: "ab", Email: "a@b.c", Password: "secret123", FirstName: "A", LastName: "B"},
		{Username: "valid", Email: "not-an-email", Password: "secret123", FirstName: "A", LastName: "B"},
		{Username: "valid", Email: "a@b.c", Password: "short", FirstName: "A", LastName: "B"},
		{Username: "valid", Email: "a@b.c", Password: "secret123", FirstName: "", LastName: "B"},
	}
	for i := range cases {
		_, err := f.svc.Register(context.Background(), &cases[i], "10.0.0.1")
		assert.ErrorIs(t, err, ErrValidation, "case %d", i)
	}
}

func TestRefreshRotates(t *testing.T) {
	f := newAuthFixture()
	user := testUser(t, "secret123")

	raw, err := f.tokens.IssueRefreshToken(user.ID, user.Username, "user")
	require.NoError(t, err)

	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.refresh.On("Rotate", mock.Anything, raw, mock.Anything, 168*time.Hour, "10.0.0.1").
		Return(&models.RefreshToken{ID: uuid.New(), UserID: user.ID}, nil)

	resp, err := f.svc.Refresh(context.Background(), raw, "10.0.0.1")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, raw, resp.RefreshToken)

	// The successor passed to the store is the token handed to the client.
	successor := f.refresh.Calls[0].Arguments.String(2)
	assert.Equal(t, resp.RefreshToken, successor)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newAuthFixture()
	user := testUser(t, "secret123")

	access, err := f.tokens.IssueAccessToken(user.ID, user.Username, "user")
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), access, "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidToken)
	f.refresh.AssertNotCalled(t, "Rotate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshReuseRevokesFamily(t *testing.T) {
	f := newAuthFixture()
	user := testUser(t, "secret123")

	raw, err := f.tokens.IssueRefreshToken(user.ID, user.Username, "user")
	require.NoError(t, err)

	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.refresh.On("Rotate", mock.Anything, raw, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, stores.ErrAlreadyRevoked)
	f.refresh.On("RevokeFamily", mock.Anything, user.ID, "10.0.0.1").Return(int64(3), nil)

	_, err = f.svc.Refresh(context.Background(), raw, "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidToken)

	f.refresh.AssertCalled(t, "RevokeFamily", mock.Anything, user.ID, "10.0.0.1")
}

func TestRefreshUnknownTokenDigest(t *testing.T) {
	f := newAuthFixture()
	user := testUser(t, "secret123")

	raw, err := f.tokens.IssueRefreshToken(user.ID, user.Username, "user")
	require.NoError(t, err)

	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.refresh.On("Rotate", mock.Anything, raw, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, stores.ErrNotFound)

	_, err = f.svc.Refresh(context.Background(), raw, "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidToken)
	f.refresh.AssertNotCalled(t, "RevokeFamily", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshStoreFailureIsNotAnAuthFailure(t *testing.T) {
	f := newAuthFixture()
	user := testUser(t, "secret123")

	raw, err := f.tokens.IssueRefreshToken(user.ID, user.Username, "user")
	require.NoError(t, err)

	outage := errors.New("pq: connection refused")
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.refresh.On("Rotate", mock.Anything, raw, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, outage)

	// A database outage must not tell the client its session is dead, or a
	// perfectly valid refresh token gets discarded client-side.
	_, err = f.svc.Refresh(context.Background(), raw, "10.0.0.1")
	assert.NotErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, outage)
	f.refresh.AssertNotCalled(t, "RevokeFamily", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshUserLookupFailurePassesThrough(t *testing.T) {
	f := newAuthFixture()
	user := testUser(t, "secret123")

	raw, err := f.tokens.IssueRefreshToken(user.ID, user.Username, "user")
	require.NoError(t, err)

	outage := errors.New("pq: connection refused")
	f.users.On("FindByID", mock.Anything, user.ID).Return(nil, outage)

	_, err = f.svc.Refresh(context.Background(), raw, "10.0.0.1")
	assert.NotErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, outage)
	f.refresh.AssertNotCalled(t, "Rotate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefreshExpiredToken(t *testing.T) {
	now := time.Now()
	f := newAuthFixture()
	f.tokens.WithClock(func() time.Time { return now })
	user := testUser(t, "secret123")

	raw, err := f.tokens.IssueRefreshToken(user.ID, user.Username, "user")
	require.NoError(t, err)

	now = now.Add(169 * time.Hour)
	_, err = f.svc.Refresh(context.Background(), raw, "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutIdempotent(t *testing.T) {
	f := newAuthFixture()

	f.refresh.On("Revoke", mock.Anything, "token-a", "10.0.0.1", "").Return(nil).Once()
	f.refresh.On("Revoke", mock.Anything, "token-a", "10.0.0.1", "").Return(stores.ErrAlreadyRevoked).Once()

	require.NoError(t, f.svc.Logout(context.Background(), "token-a", "10.0.0.1"))
	// The second call is already revoked; the client still gets a success,
	// the signal only goes to the audit log.
	require.NoError(t, f.svc.Logout(context.Background(), "token-a", "10.0.0.1"))
	f.refresh.AssertExpectations(t)
}

func TestResetPasswordRevokesSessions(t *testing.T) {
	f := newAuthFixture()
	user := testUser(t, "oldpassword")
	token := "reset-token"
	expires := time.Now().Add(30 * time.Minute)
	user.PasswordResetToken = &token
	user.PasswordResetExpires = &expires

	f.users.On("FindByResetToken", mock.Anything, token).Return(user, nil)
	f.users.On("Update", mock.Anything, user).Return(nil)
	f.refresh.On("RevokeFamily", mock.Anything, user.ID, "").Return(int64(2), nil)

	require.NoError(t, f.svc.ResetPassword(context.Background(), token, "newpassword"))

	assert.Nil(t, user.PasswordResetToken)
	assert.Nil(t, user.PasswordResetExpires)
	ok, err := security.NewPasswordHasher(4).Verify("newpassword", user.Password)
	require.NoError(t, err)
	assert.True(t, ok)
	f.refresh.AssertExpectations(t)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	f := newAuthFixture()
	user := testUser(t, "oldpassword")
	token := "reset-token"
	expires := time.Now().Add(-time.Minute)
	user.PasswordResetToken = &token
	user.PasswordResetExpires = &expires

	f.users.On("FindByResetToken", mock.Anything, token).Return(user, nil)

	err := f.svc.ResetPassword(context.Background(), token, "newpassword")
	assert.ErrorIs(t, err, ErrResetTokenExpired)
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	f := newAuthFixture()
	f.users.On("FindByLogin", mock.Anything, "ghost@example.com").Return(nil, stores.ErrNotFound)

	require.NoError(t, f.svc.ForgotPassword(context.Background(), "ghost@example.com"))
	f.mail.AssertNotCalled(t, "SendPasswordResetEmail", mock.Anything, mock.Anything)
}
