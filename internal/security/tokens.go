package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// TokenKind selects which signing key verifies a token. Access and refresh
// tokens are signed with distinct keys, so a token of one kind can never
// verify as the other.
type TokenKind int

const (
	KindAccess TokenKind = iota
	KindRefresh
)

// Claims is the payload of both token kinds: subject is the user id.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenService issues and verifies HS256-signed tokens. Keys and TTLs are
// immutable after construction; now is injectable for expiry tests.
type TokenService struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(accessKey, refreshKey string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		accessKey:  []byte(accessKey),
		refreshKey: []byte(refreshKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source. Test hook.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *TokenService) IssueAccessToken(userID uuid.UUID, username, role string) (string, error) {
	return s.issue(userID, username, role, s.accessKey, s.accessTTL)
}

func (s *TokenService) IssueRefreshToken(userID uuid.UUID, username, role string) (string, error) {
	return s.issue(userID, username, role, s.refreshKey, s.refreshTTL)
}

func (s *TokenService) issue(userID uuid.UUID, username, role string, key []byte, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti makes every token unique even when two are minted
			// for the same user within one second.
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry against the key for kind. Expiry maps to
// ErrTokenExpired; every other failure (bad signature, wrong key, malformed
// claims) collapses to ErrTokenInvalid so callers leak nothing about the cause.
func (s *TokenService) Verify(token string, kind TokenKind) (*Claims, error) {
	key := s.accessKey
	if kind == KindRefresh {
		key = s.refreshKey
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
