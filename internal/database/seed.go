package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/pos-suite/pos-backend/internal/models"
)

var seedRoles = []models.Role{
	{Name: "admin", Description: "Full access to every resource", IsDefault: false},
	{Name: "manager", Description: "Manages users and day-to-day operations", IsDefault: false},
	{Name: "user", Description: "Standard account", IsDefault: true},
}

var seedResources = []string{"users", "roles", "permissions"}

// Seed creates the built-in roles and the system permission grid
// (resource x action) if they do not exist yet. Idempotent.
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for i := range seedRoles {
			role := seedRoles[i]
			if err := tx.Where("name = ?", role.Name).FirstOrCreate(&role).Error; err != nil {
				return fmt.Errorf("seed role %q: %w", role.Name, err)
			}
		}

		actions := []models.Action{
			models.ActionCreate, models.ActionRead, models.ActionUpdate,
			models.ActionDelete, models.ActionManage,
		}
		var created int
		for _, resource := range seedResources {
			for _, action := range actions {
				perm := models.Permission{
					Name:        resource + ":" + string(action),
					Description: string(action) + " on " + resource,
					Resource:    resource,
					Action:      action,
					IsSystem:    true,
				}
				res := tx.Where("resource = ? AND action = ?", resource, action).FirstOrCreate(&perm)
				if res.Error != nil {
					return fmt.Errorf("seed permission %q: %w", perm.Name, res.Error)
				}
				created += int(res.RowsAffected)
			}
		}

		// admin holds the manage permission on every resource
		var admin models.Role
		if err := tx.Where("name = ?", "admin").First(&admin).Error; err != nil {
			return err
		}
		var managePerms []models.Permission
		if err := tx.Where("action = ?", models.ActionManage).Find(&managePerms).Error; err != nil {
			return err
		}
		if err := tx.Model(&admin).Association("Permissions").Replace(managePerms); err != nil {
			return fmt.Errorf("link admin permissions: %w", err)
		}

		if created > 0 {
			slog.Info("seeded system permissions", "created", created)
		}
		return nil
	})
}
