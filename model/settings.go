package model

import (
	"encoding/json"
	"time"
)

// GuildSettings is the single per-guild settings row. One load and one
// store per logical settings group replaces the per-setting manager
// objects the bot historically kept.
type GuildSettings struct {
	GuildID string `gorm:"primaryKey;size:64" json:"guildId"`

	Shuffle       bool `gorm:"default:false" json:"shuffle"`
	ShuffleBumped bool `gorm:"default:true" json:"shuffleBumped"`
	Repeat        bool `gorm:"default:false" json:"repeat"`
	AutoPlay      bool `gorm:"default:false" json:"autoPlay"`
	Notify        bool `gorm:"default:false" json:"notify"`
	Disconnect    bool `gorm:"default:false" json:"disconnect"`

	EmptyDCTimer   int `gorm:"default:0" json:"emptyDcTimer"`  // seconds, 0 = disabled
	MaxLength      int `gorm:"default:0" json:"maxLength"`     // seconds, 0 = unlimited
	Volume         int `gorm:"default:100" json:"volume"`
	DailyPlaylists bool `gorm:"default:false" json:"dailyPlaylists"`

	DJEnabled bool   `gorm:"default:false" json:"djEnabled"`
	DJRole    string `gorm:"size:64" json:"djRole"`

	// JSON-encoded string lists; see KeywordDenyList/KeywordAllowList.
	URLKeywordDenyList  string `gorm:"type:json" json:"-"`
	URLKeywordAllowList string `gorm:"type:json" json:"-"`

	// JSON-encoded equalizer band gains, flushed back on player teardown.
	EQBands string `gorm:"type:json" json:"-"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName sets the guild settings table name.
func (GuildSettings) TableName() string {
	return "guild_settings"
}

// DefaultGuildSettings returns the settings used for a guild with no row.
func DefaultGuildSettings(guildID string) *GuildSettings {
	return &GuildSettings{
		GuildID:       guildID,
		ShuffleBumped: true,
		Volume:        100,
	}
}

// KeywordDenyList decodes the URL keyword deny list.
func (s *GuildSettings) KeywordDenyList() []string {
	return decodeStringList(s.URLKeywordDenyList)
}

// KeywordAllowList decodes the URL keyword allow list.
func (s *GuildSettings) KeywordAllowList() []string {
	return decodeStringList(s.URLKeywordAllowList)
}

// SetKeywordDenyList encodes the URL keyword deny list.
func (s *GuildSettings) SetKeywordDenyList(words []string) {
	s.URLKeywordDenyList = encodeStringList(words)
}

// SetKeywordAllowList encodes the URL keyword allow list.
func (s *GuildSettings) SetKeywordAllowList(words []string) {
	s.URLKeywordAllowList = encodeStringList(words)
}

// EQ decodes the stored equalizer band gains.
func (s *GuildSettings) EQ() []float64 {
	if s.EQBands == "" {
		return nil
	}
	var bands []float64
	if err := json.Unmarshal([]byte(s.EQBands), &bands); err != nil {
		return nil
	}
	return bands
}

// SetEQ encodes the equalizer band gains.
func (s *GuildSettings) SetEQ(bands []float64) {
	raw, err := json.Marshal(bands)
	if err != nil {
		return
	}
	s.EQBands = string(raw)
}

func decodeStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func encodeStringList(words []string) string {
	if len(words) == 0 {
		return ""
	}
	raw, err := json.Marshal(words)
	if err != nil {
		return ""
	}
	return string(raw)
}
