package seeders

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/orderdesk/app/models"
	"github.com/shashiranjanraj/orderdesk/app/services"
	"github.com/shashiranjanraj/orderdesk/config"
	"github.com/shashiranjanraj/orderdesk/pkg/rbac"
)

func init() {
	Register("users", seedUsers)
}

// seedUsers creates the first admin from ADMIN_EMAIL / ADMIN_PASSWORD.
func seedUsers(ctx context.Context, db *gorm.DB) error {
	email := config.Get("ADMIN_EMAIL", "admin@orderdesk.test")

	var n int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	_, err := services.NewAuthService().CreateUser(ctx, services.UserInput{
		Name:     "Administrator",
		Email:    email,
		Password: config.Get("ADMIN_PASSWORD", "password123"),
		Role:     rbac.RoleAdmin,
	})
	return err
}
