package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pos-suite/pos-backend/internal/dto"
	"github.com/pos-suite/pos-backend/internal/models"
	"github.com/pos-suite/pos-backend/internal/security"
	"github.com/pos-suite/pos-backend/internal/stores"
)

var (
	ErrInvalidCredentials = errors.New("invalid username/email or password")
	ErrUserTaken          = errors.New("username or email already registered")
	ErrUserInactive       = errors.New("account is deactivated")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrResetTokenExpired  = errors.New("password reset token expired")
	ErrValidation         = errors.New("validation failed")
)

// MailSender is the slice of the mailer the auth service needs.
type MailSender interface {
	SendVerificationEmail(to, token string) error
	SendPasswordResetEmail(to, token string) error
}

// AuthService implements registration, login, refresh-token rotation and the
// email verification / password reset flows on top of the identity and
// refresh-token stores.
type AuthService struct {
	users   stores.UserStore
	refresh stores.RefreshTokenStore
	hasher  *security.PasswordHasher
	tokens  *security.TokenService
	mail    MailSender
	now     func() time.Time
}

func NewAuthService(
	users stores.UserStore,
	refresh stores.RefreshTokenStore,
	hasher *security.PasswordHasher,
	tokens *security.TokenService,
	mail MailSender,
) *AuthService {
	return &AuthService{
		users:   users,
		refresh: refresh,
		hasher:  hasher,
		tokens:  tokens,
		mail:    mail,
		now:     time.Now,
	}
}

// WithClock replaces the time source. Test hook.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest, ip string) (*dto.AuthResponse, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	verification := randomToken()
	user := &models.User{
		Username:               strings.TrimSpace(req.Username),
		Email:                  strings.ToLower(strings.TrimSpace(req.Email)),
		Password:               hash,
		FirstName:              strings.TrimSpace(req.FirstName),
		LastName:               strings.TrimSpace(req.LastName),
		Phone:                  req.Phone,
		IsActive:               true,
		EmailVerificationToken: &verification,
	}

	if role, err := s.users.DefaultRole(ctx); err == nil {
		user.Roles = []models.Role{*role}
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, stores.ErrDuplicate) {
			return nil, ErrUserTaken
		}
		return nil, err
	}

	// Best effort: registration succeeds even when the mail server is down.
	if err := s.mail.SendVerificationEmail(user.Email, verification); err != nil {
		slog.Warn("verification email not sent", "user_id", user.ID, "error", err)
	}

	return s.issuePair(ctx, user, ip)
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest, ip string) (*dto.AuthResponse, error) {
	user, err := s.users.FindByLogin(ctx, strings.TrimSpace(req.Login))
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(req.Password, user.Password)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		slog.Warn("failed to update last login", "user_id", user.ID, "error", err)
	}

	return s.issuePair(ctx, user, ip)
}

// Refresh rotates a refresh token: the presented token is revoked and linked
// to its freshly issued successor in a single transaction, then a new access
// token is minted. A rotation attempt on an already revoked token is treated
// as reuse: it is logged as a security signal and every active token of the
// user is revoked.
func (s *AuthService) Refresh(ctx context.Context, raw, ip string) (*dto.AuthResponse, error) {
	claims, err := s.tokens.Verify(raw, security.KindRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		// Store failures are not a verdict on the token; they surface as
		// server errors so the client keeps it and retries.
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidToken
	}

	next, err := s.tokens.IssueRefreshToken(user.ID, user.Username, user.PrimaryRole())
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	if _, err := s.refresh.Rotate(ctx, raw, next, s.tokens.RefreshTTL(), ip); err != nil {
		switch {
		case errors.Is(err, stores.ErrAlreadyRevoked):
			s.handleReuse(ctx, userID, ip)
			return nil, ErrInvalidToken
		case errors.Is(err, stores.ErrNotFound):
			return nil, ErrInvalidToken
		default:
			return nil, fmt.Errorf("rotate refresh token: %w", err)
		}
	}

	access, err := s.tokens.IssueAccessToken(user.ID, user.Username, user.PrimaryRole())
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &dto.AuthResponse{
		AccessToken:  access,
		RefreshToken: next,
		User:         UserToResponse(user),
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, raw, ip string) error {
	err := s.refresh.Revoke(ctx, raw, ip, "")
	switch {
	case err == nil, errors.Is(err, stores.ErrNotFound):
		return nil
	case errors.Is(err, stores.ErrAlreadyRevoked):
		// Logout stays idempotent for the client, but a second revocation
		// is still worth an audit record.
		slog.Warn("refresh token already revoked on logout",
			"action", "token_reuse", "ip", ip)
		return nil
	default:
		return err
	}
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.users.FindByVerificationToken(ctx, token)
	if err != nil {
		return err
	}
	user.EmailVerified = true
	user.EmailVerificationToken = nil
	return s.users.Update(ctx, user)
}

// ForgotPassword never reports whether the address exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByLogin(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return nil
		}
		return err
	}

	token := randomToken()
	expires := s.now().Add(time.Hour)
	user.PasswordResetToken = &token
	user.PasswordResetExpires = &expires
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	if err := s.mail.SendPasswordResetEmail(user.Email, token); err != nil {
		slog.Warn("password reset email not sent", "user_id", user.ID, "error", err)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 6 || len(newPassword) > 100 {
		return fmt.Errorf("%w: password must be 6-100 characters", ErrValidation)
	}

	user, err := s.users.FindByResetToken(ctx, token)
	if err != nil {
		return err
	}
	if user.PasswordResetExpires == nil || s.now().After(*user.PasswordResetExpires) {
		return ErrResetTokenExpired
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.Password = hash
	user.PasswordResetToken = nil
	user.PasswordResetExpires = nil
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	// A password change invalidates every open session.
	if _, err := s.refresh.RevokeFamily(ctx, user.ID, ""); err != nil {
		slog.Warn("failed to revoke sessions after password reset", "user_id", user.ID, "error", err)
	}
	return nil
}

func (s *AuthService) issuePair(ctx context.Context, user *models.User, ip string) (*dto.AuthResponse, error) {
	role := user.PrimaryRole()

	access, err := s.tokens.IssueAccessToken(user.ID, user.Username, role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(user.ID, user.Username, role)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	if _, err := s.refresh.Create(ctx, user.ID, refresh, s.tokens.RefreshTTL(), ip); err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         UserToResponse(user),
	}, nil
}

func (s *AuthService) handleReuse(ctx context.Context, userID uuid.UUID, ip string) {
	revoked, err := s.refresh.RevokeFamily(ctx, userID, ip)
	if err != nil {
		slog.Error("failed to revoke token family after reuse", "user_id", userID, "error", err)
		return
	}
	slog.Warn("refresh token reuse detected, token family revoked",
		"action", "token_reuse", "user_id", userID, "ip", ip, "revoked", revoked)
}

func validateRegistration(req *dto.RegisterRequest) error {
	username := strings.TrimSpace(req.Username)
	if len(username) < 3 || len(username) > 50 {
		return fmt.Errorf("%w: username must be 3-50 characters", ErrValidation)
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") || len(email) > 100 {
		return fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if len(req.Password) < 6 || len(req.Password) > 100 {
		return fmt.Errorf("%w: password must be 6-100 characters", ErrValidation)
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return fmt.Errorf("%w: first and last name are required", ErrValidation)
	}
	return nil
}

func randomToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return hex.EncodeToString(buf)
}

// UserToResponse builds the serializable view of a user; the password hash
// and one-time tokens never appear in it.
func UserToResponse(user *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.PrimaryRole(),
		Avatar:    user.Avatar,
		IsActive:  user.IsActive,
		LastLogin: user.LastLogin,
	}
}
