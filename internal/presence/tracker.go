// Package presence tracks which users are currently editing a document.
// Presence is advisory: it feeds active-editor lists and is never used as a lock.
package presence

import (
	"time"
)

// DefaultIdleWindow is how long a user stays active after their last save
const DefaultIdleWindow = 5 * time.Minute

// WatermarkRetention bounds how long a document's last-activity marker outlives its editors
const WatermarkRetention = 30 * 24 * time.Hour

type options struct {
	idleWindow time.Duration
	now        func() time.Time
}

// Option configures a tracker
type Option func(*options)

// WithIdleWindow sets how long a user counts as active after their last activity
func WithIdleWindow(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.idleWindow = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{idleWindow: DefaultIdleWindow, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
