package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is the durable record behind an issued refresh token. Only a
// SHA-256 digest of the token is stored; the raw token exists client-side
// only. Revocation is terminal: RevokedAt is set at most once, and a rotated
// token records the digest of its successor for reuse detection.
type RefreshToken struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TokenHash       string     `gorm:"size:64;not null;uniqueIndex" json:"-"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User            User       `gorm:"foreignKey:UserID" json:"-"`
	ExpiresAt       time.Time  `gorm:"not null" json:"expires_at"`
	CreatedByIP     string     `gorm:"size:45" json:"created_by_ip,omitempty"`
	RevokedAt       *time.Time `json:"revoked_at,omitempty"`
	RevokedByIP     string     `gorm:"size:45" json:"revoked_by_ip,omitempty"`
	ReplacedByToken *string    `gorm:"size:64" json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsExpired and IsActive are computed at read time, never persisted.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

func (t *RefreshToken) IsActive(now time.Time) bool {
	return !t.IsRevoked() && !t.IsExpired(now)
}
