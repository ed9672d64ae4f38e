package messages

import (
	"time"

	"github.com/lull-app/lull/internal/update"
)

// ErrorMsg indicates an error occurred somewhere in a background command.
// Errors are displayed, never fatal.
type ErrorMsg struct {
	Err error
}

// ClockTickMsg drives the home screen clock.
type ClockTickMsg struct {
	Now time.Time
}

// UpdateEventMsg wraps a release-poller event for the banner.
type UpdateEventMsg struct {
	Event update.Event
}
