package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrInvalidName = errors.New("name length out of bounds")

// Role groups permissions and gates route-level authorization.
type Role struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Description string         `gorm:"size:255" json:"description,omitempty"`
	IsDefault   bool           `gorm:"not null;default:false" json:"is_default"`
	Permissions []Permission   `gorm:"many2many:role_permissions" json:"permissions,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (r *Role) Validate() error {
	if len(r.Name) < 2 || len(r.Name) > 50 {
		return ErrInvalidName
	}
	return nil
}

func (r *Role) BeforeSave(*gorm.DB) error { return r.Validate() }

// RolePermission is the explicit role/permission join entity.
type RolePermission struct {
	RoleID       uint      `gorm:"primaryKey" json:"role_id"`
	PermissionID uint      `gorm:"primaryKey" json:"permission_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func (RolePermission) TableName() string { return "role_permissions" }
