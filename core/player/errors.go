package player

import "errors"

var (
	// ErrQueryUnauthorized is returned when a query matches the guild's
	// keyword deny list or misses a non-empty allow list.
	ErrQueryUnauthorized = errors.New("query is not allowed in this guild")
	// ErrTrackTooLong is returned when a track exceeds the configured
	// maximum length.
	ErrTrackTooLong = errors.New("track exceeds maximum length")
	// ErrQueueFull is returned when an enqueue would exceed the queue cap.
	// The queue is left untouched.
	ErrQueueFull = errors.New("queue size limit reached")
	// ErrStillLoading is returned when a playlist load is already in
	// flight for the guild.
	ErrStillLoading = errors.New("wait until the current playlist has finished loading")
	// ErrPlayerDestroyed is returned for operations on a destroyed player.
	ErrPlayerDestroyed = errors.New("player has been destroyed")
	// ErrNotConnected is returned when playback is requested without a
	// voice room.
	ErrNotConnected = errors.New("player is not connected to a voice room")
	// ErrInvalidIndex is returned for an out-of-range skip target.
	ErrInvalidIndex = errors.New("skip index is out of range")
	// ErrNotPrivileged is returned when a non-DJ targets a skip index
	// other than the current track.
	ErrNotPrivileged = errors.New("only a DJ may skip to an arbitrary position")
)
