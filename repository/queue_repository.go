package repository

import (
	"context"
	"fmt"
	"time"

	"GuildFM/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueueLog is the durable append-and-mark-played log of every enqueue,
// used to rebuild in-flight queues after a crash.
type QueueLog interface {
	// Enqueue records a track for a guild's voice room. Re-enqueueing the
	// same track in the same room refreshes its enqueue time instead of
	// duplicating the row.
	Enqueue(ctx context.Context, guildID, roomID string, track model.Track) error
	// MarkPlayed flips the row to played. Idempotent.
	MarkPlayed(ctx context.Context, guildID, trackID string) error
	// MarkAllPlayed flips every row of a guild to played.
	MarkAllPlayed(ctx context.Context, guildID string) error
	// FetchUnplayed returns a guild's unplayed tracks, oldest enqueue
	// first.
	FetchUnplayed(ctx context.Context, guildID string) ([]model.Track, error)
	// DropGuild removes every row of a guild.
	DropGuild(ctx context.Context, guildID string) error
	// UnplayedSessions lists the guild and room pairs that still hold
	// unplayed rows, for startup restore.
	UnplayedSessions(ctx context.Context) ([]QueueSession, error)
	// DeleteScheduled purges played rows.
	DeleteScheduled(ctx context.Context) (int64, error)
}

// QueueSession is a guild and voice room pair with pending tracks.
type QueueSession struct {
	GuildID string
	RoomID  string
}

// gormQueueLog implements QueueLog on GORM.
type gormQueueLog struct {
	db *gorm.DB
}

// NewGormQueueLog creates a GORM-backed queue log.
func NewGormQueueLog(db *gorm.DB) QueueLog {
	return &gormQueueLog{db: db}
}

func (l *gormQueueLog) Enqueue(ctx context.Context, guildID, roomID string, track model.Track) error {
	raw, err := track.MarshalString()
	if err != nil {
		return err
	}

	row := &model.QueueEntry{
		GuildID:    guildID,
		RoomID:     roomID,
		TrackID:    track.ID,
		Track:      raw,
		EnqueuedAt: time.Now().UnixNano(),
	}

	err = l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}, {Name: "room_id"}, {Name: "track_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"track", "enqueued_at"}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to persist enqueue for guild %s: %w", guildID, err)
	}
	return nil
}

func (l *gormQueueLog) MarkPlayed(ctx context.Context, guildID, trackID string) error {
	err := l.db.WithContext(ctx).Model(&model.QueueEntry{}).
		Where("guild_id = ? AND track_id = ?", guildID, trackID).
		Update("played", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark track played for guild %s: %w", guildID, err)
	}
	return nil
}

func (l *gormQueueLog) MarkAllPlayed(ctx context.Context, guildID string) error {
	err := l.db.WithContext(ctx).Model(&model.QueueEntry{}).
		Where("guild_id = ?", guildID).
		Update("played", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark guild %s queue played: %w", guildID, err)
	}
	return nil
}

func (l *gormQueueLog) FetchUnplayed(ctx context.Context, guildID string) ([]model.Track, error) {
	var rows []model.QueueEntry
	err := l.db.WithContext(ctx).
		Where("guild_id = ? AND played = ?", guildID, false).
		Order("enqueued_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unplayed queue for guild %s: %w", guildID, err)
	}

	tracks := make([]model.Track, 0, len(rows))
	for _, row := range rows {
		track, err := model.UnmarshalTrack(row.Track)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func (l *gormQueueLog) DropGuild(ctx context.Context, guildID string) error {
	err := l.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Delete(&model.QueueEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to drop queue log for guild %s: %w", guildID, err)
	}
	return nil
}

func (l *gormQueueLog) UnplayedSessions(ctx context.Context) ([]QueueSession, error) {
	var rows []QueueSession
	err := l.db.WithContext(ctx).Model(&model.QueueEntry{}).
		Select("guild_id", "room_id").
		Where("played = ?", false).
		Group("guild_id, room_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unplayed sessions: %w", err)
	}
	return rows, nil
}

func (l *gormQueueLog) DeleteScheduled(ctx context.Context) (int64, error) {
	res := l.db.WithContext(ctx).
		Where("played = ?", true).
		Delete(&model.QueueEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge played queue rows: %w", res.Error)
	}
	return res.RowsAffected, nil
}
