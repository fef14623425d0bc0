package repository

import "time"

// settings is shared by both stores.
type settings struct {
	now         func() time.Time
	busyTimeout time.Duration
}

func defaultSettings() settings {
	return settings{
		now:         func() time.Time { return time.Now().UTC() },
		busyTimeout: 5 * time.Second,
	}
}

// Option configures a store.
type Option func(*settings)

// WithClock overrides the clock used to stamp CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}
