package model

import (
	"errors"
	"time"
)

// PlaylistScope is the namespace a playlist is stored and looked up under.
type PlaylistScope string

const (
	ScopeGlobal PlaylistScope = "GLOBALPLAYLIST"
	ScopeGuild  PlaylistScope = "GUILDPLAYLIST"
	ScopeUser   PlaylistScope = "USERPLAYLIST"

	// GlobalScopeID is the fixed scope id used for the GLOBAL scope.
	GlobalScopeID = "0"
)

var (
	// ErrInvalidScope is returned for an unrecognized playlist scope.
	ErrInvalidScope = errors.New("invalid playlist scope")
	// ErrMissingGuild is returned when the GUILD scope is used without a
	// guild id. Caller-side scoping bug; fatal to the operation.
	ErrMissingGuild = errors.New("trying to access the guild scope without a guild id")
	// ErrMissingAuthor is returned when the USER scope is used without a
	// user id. Caller-side scoping bug; fatal to the operation.
	ErrMissingAuthor = errors.New("trying to access the user scope without a user id")
)

// Scopes lists all playlist scopes.
func Scopes() []PlaylistScope {
	return []PlaylistScope{ScopeGlobal, ScopeGuild, ScopeUser}
}

// Type converts a scope to its numerical table identifier.
func (s PlaylistScope) Type() int {
	switch s {
	case ScopeGlobal:
		return 1
	case ScopeUser:
		return 3
	default:
		return 2
	}
}

// ResolveScopeID validates a (scope, scopeID) pair and returns the scope id
// to key storage with.
func ResolveScopeID(scope PlaylistScope, scopeID string) (string, error) {
	switch scope {
	case ScopeGlobal:
		return GlobalScopeID, nil
	case ScopeGuild:
		if scopeID == "" {
			return "", ErrMissingGuild
		}
		return scopeID, nil
	case ScopeUser:
		if scopeID == "" {
			return "", ErrMissingAuthor
		}
		return scopeID, nil
	default:
		return "", ErrInvalidScope
	}
}

// Playlist is a named, scoped collection of serialized tracks. The track
// sequence is only ever replaced whole, never partially updated.
type Playlist struct {
	ScopeType  int       `gorm:"primaryKey;autoIncrement:false" json:"scopeType"`
	ScopeID    string    `gorm:"primaryKey;size:64" json:"scopeId"`
	PlaylistID string    `gorm:"primaryKey;size:64" json:"playlistId"`
	Name       string    `gorm:"size:256;index" json:"name"`
	AuthorID   string    `gorm:"size:64;index" json:"authorId"`
	URL        string    `gorm:"size:1024" json:"url,omitempty"`
	Tracks     string    `gorm:"type:json" json:"tracks"`
	Deleted    bool      `gorm:"default:false;index" json:"-"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TableName sets the playlist table name.
func (Playlist) TableName() string {
	return "playlists"
}

// TrackList decodes the playlist's serialized track sequence.
func (p *Playlist) TrackList() ([]Track, error) {
	return UnmarshalTracks(p.Tracks)
}
