package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Action is the fixed verb set a permission may grant on a resource.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

var ErrInvalidAction = errors.New("action is not one of create/read/update/delete/manage")

func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage:
		return true
	}
	return false
}

// Permission is a (resource, action) capability. The pair is unique; rows
// with is_system set are seeded at startup and must not be deleted.
type Permission struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description string         `gorm:"size:255" json:"description,omitempty"`
	Resource    string         `gorm:"size:50;not null;uniqueIndex:idx_permissions_resource_action" json:"resource"`
	Action      Action         `gorm:"size:50;not null;uniqueIndex:idx_permissions_resource_action" json:"action"`
	IsSystem    bool           `gorm:"not null;default:false" json:"is_system"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Permission) Validate() error {
	if len(p.Name) < 2 || len(p.Name) > 100 {
		return ErrInvalidName
	}
	if p.Resource == "" {
		return errors.New("resource is required")
	}
	if !p.Action.Valid() {
		return ErrInvalidAction
	}
	return nil
}

func (p *Permission) BeforeSave(*gorm.DB) error { return p.Validate() }
