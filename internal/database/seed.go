package database

import (
	"errors"
	"strings"

	"bullex/internal/domain"
	"bullex/internal/models"
	"bullex/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedAdmin ensures the configured operations account exists with the ADMIN
// role. No-op when no email is configured or the account already exists.
func SeedAdmin(db *gorm.DB, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}
	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		if existing.Role != domain.RoleAdmin {
			return db.Model(&existing).Update("role", domain.RoleAdmin).Error
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		Currency:     domain.DefaultCurrency,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	logger.Log.Info("admin account seeded", zap.String("email", email))
	return nil
}
