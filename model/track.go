package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Extras keys stamped onto a track when it is enqueued.
const (
	ExtrasEnqueueTime = "enqueue_time"
	ExtrasRequester   = "requester"
	ExtrasVoiceRoom   = "vc"
	ExtrasAutoplay    = "autoplay"
)

// Track is a playable track as returned by a provider. Immutable once
// constructed; equality is by provider-assigned ID. Duration is in
// milliseconds and 0 for live streams.
type Track struct {
	ID        string                 `json:"id"`
	Title     string                 `json:"title"`
	Author    string                 `json:"author"`
	URI       string                 `json:"uri"`
	Duration  int64                  `json:"duration"`
	IsStream  bool                   `json:"isStream"`
	StartTime int64                  `json:"startTime,omitempty"` // start offset, milliseconds
	Extras    map[string]interface{} `json:"extras,omitempty"`
}

// Equal reports whether two tracks identify the same upstream track.
func (t Track) Equal(other Track) bool {
	return t.ID == other.ID
}

// WithExtras returns a copy of the track with the given enqueue metadata
// merged into its extras bag. The receiver is not modified.
func (t Track) WithExtras(requesterID, voiceRoomID string, autoplay bool) Track {
	extras := make(map[string]interface{}, len(t.Extras)+4)
	for k, v := range t.Extras {
		extras[k] = v
	}
	extras[ExtrasEnqueueTime] = time.Now().Unix()
	extras[ExtrasRequester] = requesterID
	extras[ExtrasVoiceRoom] = voiceRoomID
	if autoplay {
		extras[ExtrasAutoplay] = true
	}
	t.Extras = extras
	return t
}

// IsAutoplay reports whether the track was enqueued by autoplay rather
// than a user.
func (t Track) IsAutoplay() bool {
	v, ok := t.Extras[ExtrasAutoplay]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// MarshalString serializes the track as the flat JSON record stored in the
// playlist and persist-queue tables.
func (t Track) MarshalString() (string, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("failed to marshal track %s: %w", t.ID, err)
	}
	return string(raw), nil
}

// UnmarshalTrack decodes a serialized track record.
func UnmarshalTrack(raw string) (Track, error) {
	var t Track
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return Track{}, fmt.Errorf("failed to unmarshal track: %w", err)
	}
	return t, nil
}

// MarshalTracks serializes a track sequence for atomic storage.
func MarshalTracks(tracks []Track) (string, error) {
	raw, err := json.Marshal(tracks)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %d tracks: %w", len(tracks), err)
	}
	return string(raw), nil
}

// UnmarshalTracks decodes a serialized track sequence.
func UnmarshalTracks(raw string) ([]Track, error) {
	if raw == "" {
		return nil, nil
	}
	var tracks []Track
	if err := json.Unmarshal([]byte(raw), &tracks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tracks: %w", err)
	}
	return tracks, nil
}
