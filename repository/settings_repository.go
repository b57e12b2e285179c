package repository

import (
	"context"
	"errors"
	"fmt"

	"GuildFM/model"

	"gorm.io/gorm"
)

// SettingsStore loads and stores the single per-guild settings row.
type SettingsStore interface {
	// Get returns a guild's settings, falling back to defaults when no row
	// exists yet.
	Get(ctx context.Context, guildID string) (*model.GuildSettings, error)
	Save(ctx context.Context, settings *model.GuildSettings) error
	Drop(ctx context.Context, guildID string) error
}

// gormSettingsStore implements SettingsStore on GORM.
type gormSettingsStore struct {
	db *gorm.DB
}

// NewGormSettingsStore creates a GORM-backed settings store.
func NewGormSettingsStore(db *gorm.DB) SettingsStore {
	return &gormSettingsStore{db: db}
}

func (s *gormSettingsStore) Get(ctx context.Context, guildID string) (*model.GuildSettings, error) {
	var row model.GuildSettings
	err := s.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.DefaultGuildSettings(guildID), nil
		}
		return nil, fmt.Errorf("failed to load settings for guild %s: %w", guildID, err)
	}
	return &row, nil
}

func (s *gormSettingsStore) Save(ctx context.Context, settings *model.GuildSettings) error {
	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		return fmt.Errorf("failed to save settings for guild %s: %w", settings.GuildID, err)
	}
	return nil
}

func (s *gormSettingsStore) Drop(ctx context.Context, guildID string) error {
	err := s.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Delete(&model.GuildSettings{}).Error
	if err != nil {
		return fmt.Errorf("failed to drop settings for guild %s: %w", guildID, err)
	}
	return nil
}
