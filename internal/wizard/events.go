package wizard

import (
	"fmt"
	"time"
)

// Scheduler runs fn after d on the same event loop that owns the wizard.
// Implementations must never run fn concurrently with other wizard calls.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// EventType categorizes a wizard state change.
type EventType int

const (
	EventStepChanged EventType = iota
	EventClaimUpdated
	EventPhotosAdded
	EventPhotoRemoved
	EventUploadRejected
	EventAnalysisStarted
	EventAnalysisCompleted
	EventDetailSaved
	EventSavedCleared
	EventSubmitStarted
	EventSubmitted
)

func (e EventType) String() string {
	switch e {
	case EventStepChanged:
		return "step_changed"
	case EventClaimUpdated:
		return "claim_updated"
	case EventPhotosAdded:
		return "photos_added"
	case EventPhotoRemoved:
		return "photo_removed"
	case EventUploadRejected:
		return "upload_rejected"
	case EventAnalysisStarted:
		return "analysis_started"
	case EventAnalysisCompleted:
		return "analysis_completed"
	case EventDetailSaved:
		return "detail_saved"
	case EventSavedCleared:
		return "saved_cleared"
	case EventSubmitStarted:
		return "submit_started"
	case EventSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e EventType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *EventType) UnmarshalText(b []byte) error {
	for t := EventStepChanged; t <= EventSubmitted; t++ {
		if t.String() == string(b) {
			*e = t
			return nil
		}
	}
	return fmt.Errorf("invalid event type %q", b)
}

// Event is emitted to the wizard's observer after a state change.
type Event struct {
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`
}

func (w *Wizard) emit(t EventType, msg string) {
	if w.opts.OnEvent != nil {
		w.opts.OnEvent(Event{Type: t, Message: msg})
	}
}
