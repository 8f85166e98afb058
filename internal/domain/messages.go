package domain

// NoticeLevel categorizes a user-facing notice for UI presentation.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient toast-style message shown to every connected viewer.
// Notices are not persisted; a viewer that connects later never sees it.
type Notice struct {
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
}

// EventName identifies a lifecycle signal on the event stream.
type EventName string

const (
	EventStarted       EventName = "started"
	EventAuthenticated EventName = "authenticated"
	EventTrackSkipped  EventName = "track_skipped"
	EventTrackQueued   EventName = "track_queued"
)

// Event is an internal lifecycle signal with an optional structured payload.
type Event struct {
	Name    EventName `json:"name"`
	Payload any       `json:"payload,omitempty"`
}
