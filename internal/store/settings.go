package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/erazemk/supermercado/internal/model"
)

const settingAdminSecret = "admin_secret"

// GetAdminSecret retrieves the admin token signing key from the database.
// If no key exists, it generates one, stores it, and returns it.
// Uses insert-if-absent + re-select to avoid a race on concurrent startup.
func GetAdminSecret(ctx context.Context, db *gorm.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating admin secret: %w", err)
	}
	candidate := model.Setting{Key: settingAdminSecret, Value: hex.EncodeToString(buf)}

	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&candidate).Error
	if err != nil {
		return "", fmt.Errorf("storing admin secret: %w", err)
	}

	// Always read back (either our insert or the existing value).
	var stored model.Setting
	err = db.WithContext(ctx).
		Where(&model.Setting{Key: settingAdminSecret}).
		First(&stored).Error
	if err != nil {
		return "", fmt.Errorf("querying admin secret: %w", err)
	}

	return stored.Value, nil
}
