package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account in the POS backend. The password column holds a bcrypt
// hash, never plaintext, and is excluded from JSON along with the one-time
// verification/reset tokens.
type User struct {
	ID                     uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username               string         `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email                  string         `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Password               string         `gorm:"not null" json:"-"`
	FirstName              string         `gorm:"size:50;not null" json:"first_name"`
	LastName               string         `gorm:"size:50;not null" json:"last_name"`
	Phone                  string         `gorm:"size:20" json:"phone,omitempty"`
	Avatar                 string         `json:"avatar,omitempty"`
	IsActive               bool           `gorm:"not null;default:true" json:"is_active"`
	LastLogin              *time.Time     `json:"last_login,omitempty"`
	EmailVerified          bool           `gorm:"not null;default:false" json:"email_verified"`
	EmailVerificationToken *string        `json:"-"`
	PasswordResetToken     *string        `json:"-"`
	PasswordResetExpires   *time.Time     `json:"-"`
	Roles                  []Role         `gorm:"many2many:user_roles" json:"roles,omitempty"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// PrimaryRole returns the role name embedded in issued tokens: the first
// default role if one is assigned, otherwise the first assigned role,
// otherwise "user".
func (u *User) PrimaryRole() string {
	for _, r := range u.Roles {
		if r.IsDefault {
			return r.Name
		}
	}
	if len(u.Roles) > 0 {
		return u.Roles[0].Name
	}
	return "user"
}

// UserRole is the explicit user/role join entity. Declaring it (instead of
// letting GORM infer the table) pins the composite key and FK constraints.
type UserRole struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	RoleID    uint      `gorm:"primaryKey" json:"role_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserRole) TableName() string { return "user_roles" }
