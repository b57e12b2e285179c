package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"GuildFM/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrPlaylistNotFound is returned by Fetch when no playlist matches.
var ErrPlaylistNotFound = errors.New("playlist not found")

// DailyPlaylistPrefix names the automatically maintained history playlists
// that feed autoplay and the daily-expiry sweep.
const DailyPlaylistPrefix = "Daily playlist - "

// PlaylistStore is the scoped durable playlist collection.
type PlaylistStore interface {
	// Upsert writes a playlist, replacing any prior track sequence for the
	// same (scope, scopeID, playlistID) key atomically.
	Upsert(ctx context.Context, scope model.PlaylistScope, scopeID, playlistID, name, authorID, url string, tracks []model.Track) error
	Fetch(ctx context.Context, scope model.PlaylistScope, playlistID, scopeID string) (*model.Playlist, error)
	// FetchAll returns every playlist in a scope, optionally filtered by
	// author.
	FetchAll(ctx context.Context, scope model.PlaylistScope, scopeID, authorID string) ([]*model.Playlist, error)
	// FetchAllByNameOrID is the fuzzy converter lookup: every playlist
	// across all scopes whose name contains nameSubstring or whose id
	// matches id. Ambiguity is returned, not resolved.
	FetchAllByNameOrID(ctx context.Context, nameSubstring, id string) ([]*model.Playlist, error)
	Delete(ctx context.Context, scope model.PlaylistScope, playlistID, scopeID string) error
	// DropScope bulk-removes every playlist in a scope.
	DropScope(ctx context.Context, scope model.PlaylistScope) error
	// ExpireDaily marks daily playlists older than maxAge for deferred
	// deletion.
	ExpireDaily(ctx context.Context, maxAge time.Duration) (int64, error)
	// DeleteScheduled purges rows previously marked for deferred deletion.
	// Safe to call concurrently with Upsert.
	DeleteScheduled(ctx context.Context) (int64, error)
}

// gormPlaylistStore implements PlaylistStore on GORM.
type gormPlaylistStore struct {
	db *gorm.DB
}

// NewGormPlaylistStore creates a GORM-backed playlist store.
func NewGormPlaylistStore(db *gorm.DB) PlaylistStore {
	return &gormPlaylistStore{db: db}
}

func (s *gormPlaylistStore) Upsert(ctx context.Context, scope model.PlaylistScope, scopeID, playlistID, name, authorID, url string, tracks []model.Track) error {
	resolvedID, err := model.ResolveScopeID(scope, scopeID)
	if err != nil {
		return err
	}

	raw, err := model.MarshalTracks(tracks)
	if err != nil {
		return err
	}

	row := &model.Playlist{
		ScopeType:  scope.Type(),
		ScopeID:    resolvedID,
		PlaylistID: playlistID,
		Name:       name,
		AuthorID:   authorID,
		URL:        url,
		Tracks:     raw,
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "scope_type"}, {Name: "scope_id"}, {Name: "playlist_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "author_id", "url", "tracks", "deleted", "updated_at",
		}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert playlist %s: %w", playlistID, err)
	}
	return nil
}

func (s *gormPlaylistStore) Fetch(ctx context.Context, scope model.PlaylistScope, playlistID, scopeID string) (*model.Playlist, error) {
	resolvedID, err := model.ResolveScopeID(scope, scopeID)
	if err != nil {
		return nil, err
	}

	var row model.Playlist
	err = s.db.WithContext(ctx).
		Where("scope_type = ? AND scope_id = ? AND playlist_id = ? AND deleted = ?",
			scope.Type(), resolvedID, playlistID, false).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlaylistNotFound
		}
		return nil, fmt.Errorf("failed to fetch playlist %s: %w", playlistID, err)
	}
	return &row, nil
}

func (s *gormPlaylistStore) FetchAll(ctx context.Context, scope model.PlaylistScope, scopeID, authorID string) ([]*model.Playlist, error) {
	resolvedID, err := model.ResolveScopeID(scope, scopeID)
	if err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).
		Where("scope_type = ? AND scope_id = ? AND deleted = ?", scope.Type(), resolvedID, false)
	if authorID != "" {
		q = q.Where("author_id = ?", authorID)
	}

	var rows []*model.Playlist
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch playlists for scope %s: %w", scope, err)
	}
	return rows, nil
}

func (s *gormPlaylistStore) FetchAllByNameOrID(ctx context.Context, nameSubstring, id string) ([]*model.Playlist, error) {
	q := s.db.WithContext(ctx).Where("deleted = ?", false)
	if id != "" {
		q = q.Where("playlist_id = ? OR name LIKE ?", id, "%"+nameSubstring+"%")
	} else {
		q = q.Where("name LIKE ?", "%"+nameSubstring+"%")
	}

	var rows []*model.Playlist
	if err := q.Order("scope_type, name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to search playlists: %w", err)
	}
	return rows, nil
}

func (s *gormPlaylistStore) Delete(ctx context.Context, scope model.PlaylistScope, playlistID, scopeID string) error {
	resolvedID, err := model.ResolveScopeID(scope, scopeID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).
		Where("scope_type = ? AND scope_id = ? AND playlist_id = ?",
			scope.Type(), resolvedID, playlistID).
		Delete(&model.Playlist{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete playlist %s: %w", playlistID, err)
	}
	return nil
}

func (s *gormPlaylistStore) DropScope(ctx context.Context, scope model.PlaylistScope) error {
	err := s.db.WithContext(ctx).
		Where("scope_type = ?", scope.Type()).
		Delete(&model.Playlist{}).Error
	if err != nil {
		return fmt.Errorf("failed to drop playlist scope %s: %w", scope, err)
	}
	return nil
}

func (s *gormPlaylistStore) ExpireDaily(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	res := s.db.WithContext(ctx).Model(&model.Playlist{}).
		Where("name LIKE ? AND updated_at < ? AND deleted = ?",
			DailyPlaylistPrefix+"%", cutoff, false).
		Update("deleted", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to expire daily playlists: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *gormPlaylistStore) DeleteScheduled(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("deleted = ?", true).
		Delete(&model.Playlist{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge scheduled playlists: %w", res.Error)
	}
	return res.RowsAffected, nil
}
