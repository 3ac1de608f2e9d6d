package database

import (
	"errors"
	"os"
	"strings"

	"github.com/Payphone-Digital/accounts/internal/model"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultAdmin defines the default admin user credentials
type DefaultAdmin struct {
	Name     string
	Email    string
	Password string
}

// GetDefaultAdmin returns the default admin user, overridable through SEED_ADMIN_* env vars.
func GetDefaultAdmin() DefaultAdmin {
	return DefaultAdmin{
		Name:     getEnv("SEED_ADMIN_NAME", "Administrator"),
		Email:    strings.ToLower(strings.TrimSpace(getEnv("SEED_ADMIN_EMAIL", "admin@example.com"))),
		Password: getEnv("SEED_ADMIN_PASSWORD", "password"),
	}
}

// Seed creates initial data for the database
func Seed(db *gorm.DB) error {
	return SeedAdmin(db, GetDefaultAdmin())
}

// SeedAdmin creates the admin user unless the email is already taken.
func SeedAdmin(db *gorm.DB, admin DefaultAdmin) error {
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))

	var existingUser model.User
	result := db.Where("email = ?", admin.Email).First(&existingUser)

	if result.Error == nil {
		return nil
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := model.User{
		Name:     admin.Name,
		Email:    admin.Email,
		Password: string(hashedPassword),
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}

	logger.GetLogger().Info("Seeded admin user",
		zap.Uint("user_id", user.ID),
		zap.String("email", user.Email),
	)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
