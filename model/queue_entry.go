package model

// QueueEntry is one row of the persistent queue log: an enqueue that has
// not necessarily been played yet. Re-enqueueing the same track in the same
// voice room upserts the row instead of duplicating it.
type QueueEntry struct {
	GuildID    string `gorm:"primaryKey;size:64" json:"guildId"`
	RoomID     string `gorm:"primaryKey;size:64" json:"roomId"`
	TrackID    string `gorm:"primaryKey;size:191;index:idx_guild_track" json:"trackId"`
	Track      string `gorm:"type:json" json:"track"`
	Played     bool   `gorm:"default:false" json:"played"`
	EnqueuedAt int64  `gorm:"index" json:"enqueuedAt"`
}

// TableName sets the persist queue table name.
func (QueueEntry) TableName() string {
	return "persist_queue"
}
