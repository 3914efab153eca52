package stores

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pos-suite/pos-backend/internal/models"
)

// ErrAlreadyRevoked signals a second revocation attempt on the same token.
// Callers treat it as possible token reuse, not a plain validation failure.
var ErrAlreadyRevoked = errors.New("refresh token already revoked")

// RefreshTokenStore persists refresh tokens by digest. The raw token string
// is opaque to the store; it is hashed at the boundary so a database leak
// exposes no usable credentials.
type RefreshTokenStore interface {
	Create(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration, ip string) (*models.RefreshToken, error)
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, token, ip string, replacedBy string) error
	Rotate(ctx context.Context, oldToken, newToken string, ttl time.Duration, ip string) (*models.RefreshToken, error)
	RevokeFamily(ctx context.Context, userID uuid.UUID, ip string) (int64, error)
}

type GormRefreshTokenStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormRefreshTokenStore(db *gorm.DB) *GormRefreshTokenStore {
	return &GormRefreshTokenStore{db: db, now: time.Now}
}

// WithClock replaces the time source. Test hook.
func (s *GormRefreshTokenStore) WithClock(now func() time.Time) *GormRefreshTokenStore {
	s.now = now
	return s
}

// HashToken digests a raw refresh token for storage and lookup.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *GormRefreshTokenStore) Create(ctx context.Context, userID uuid.UUID, token string, ttl time.Duration, ip string) (*models.RefreshToken, error) {
	record := &models.RefreshToken{
		ID:          uuid.New(),
		TokenHash:   HashToken(token),
		UserID:      userID,
		ExpiresAt:   s.now().Add(ttl),
		CreatedByIP: ip,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}
	return record, nil
}

func (s *GormRefreshTokenStore) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var record models.RefreshToken
	err := s.db.WithContext(ctx).Where("token_hash = ?", HashToken(token)).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &record, nil
}

func (s *GormRefreshTokenStore) Revoke(ctx context.Context, token, ip string, replacedBy string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.revokeTx(tx, token, ip, replacedBy)
	})
}

// revokeTx marks a token revoked exactly once. The guard on revoked_at IS
// NULL makes concurrent revocations race to a single winner; losers see
// ErrAlreadyRevoked.
func (s *GormRefreshTokenStore) revokeTx(tx *gorm.DB, token, ip string, replacedBy string) error {
	updates := map[string]interface{}{
		"revoked_at":    s.now(),
		"revoked_by_ip": ip,
	}
	if replacedBy != "" {
		updates["replaced_by_token"] = HashToken(replacedBy)
	}

	res := tx.Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", HashToken(token)).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("revoke refresh token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var existing models.RefreshToken
		err := tx.Where("token_hash = ?", HashToken(token)).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
		return ErrAlreadyRevoked
	}
	return nil
}

// Rotate revokes oldToken and persists newToken as its successor in one
// transaction. Concurrent rotations of the same token produce exactly one
// success; the rest fail with ErrAlreadyRevoked and insert nothing.
func (s *GormRefreshTokenStore) Rotate(ctx context.Context, oldToken, newToken string, ttl time.Duration, ip string) (*models.RefreshToken, error) {
	var record *models.RefreshToken
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old models.RefreshToken
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("token_hash = ?", HashToken(oldToken)).
			First(&old).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("rotate refresh token: %w", err)
		}

		if err := s.revokeTx(tx, oldToken, ip, newToken); err != nil {
			return err
		}

		record = &models.RefreshToken{
			ID:          uuid.New(),
			TokenHash:   HashToken(newToken),
			UserID:      old.UserID,
			ExpiresAt:   s.now().Add(ttl),
			CreatedByIP: ip,
		}
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *GormRefreshTokenStore) RevokeFamily(ctx context.Context, userID uuid.UUID, ip string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Updates(map[string]interface{}{
			"revoked_at":    s.now(),
			"revoked_by_ip": ip,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("revoke token family: %w", res.Error)
	}
	return res.RowsAffected, nil
}
