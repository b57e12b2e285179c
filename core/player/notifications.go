package player

import "GuildFM/model"

// NotificationKind names an event emitted for the calling layer.
type NotificationKind string

const (
	NoteTrackStart     NotificationKind = "track_start"
	NoteTrackEnd       NotificationKind = "track_end"
	NoteTrackEnqueue   NotificationKind = "track_enqueue"
	NoteQueueEnd       NotificationKind = "queue_end"
	NoteTrackError     NotificationKind = "track_error"
	NoteMultipleErrors NotificationKind = "multiple_errors"
	NoteDisconnect     NotificationKind = "disconnect"
	NoteAutoplay       NotificationKind = "autoplay_started"
)

// Notification is a side-effect signal for the notification layer, which
// is outside this core. Delivery is best-effort; rendering is the
// caller's concern.
type Notification struct {
	Kind    NotificationKind
	GuildID string
	Track   *model.Track
	Message string
}
