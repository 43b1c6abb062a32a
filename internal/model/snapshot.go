package model

import "time"

// FocusSession is a single timed focus (pomodoro) session as it appears in
// an activity snapshot. StartedAt keeps the timezone it was recorded in so
// time-of-day rules evaluate against the user's clock, not the server's.
type FocusSession struct {
	StartedAt time.Time
	Duration  time.Duration
}

// ActivitySnapshot is a point-in-time, read-only projection of a user's
// productivity data. It is assembled from storage on demand and never
// persisted as its own entity. Zero values mean "no activity"; rule
// evaluation treats the snapshot as total and never fails on it.
type ActivitySnapshot struct {
	UserID int64

	Sessions []FocusSession

	TasksTotal     int
	TasksCompleted int

	GoalsTotal     int
	GoalsCompleted int

	MentorTurns int

	Streak int
	Level  int

	TakenAt time.Time
}

// SessionCount returns the number of completed focus sessions.
func (s ActivitySnapshot) SessionCount() int {
	return len(s.Sessions)
}

// LongestSession returns the duration of the longest session, or zero.
func (s ActivitySnapshot) LongestSession() time.Duration {
	var longest time.Duration
	for _, fs := range s.Sessions {
		if fs.Duration > longest {
			longest = fs.Duration
		}
	}
	return longest
}

// SessionsAtLeast counts sessions lasting at least d.
func (s ActivitySnapshot) SessionsAtLeast(d time.Duration) int {
	n := 0
	for _, fs := range s.Sessions {
		if fs.Duration >= d {
			n++
		}
	}
	return n
}

// HasSessionBefore reports whether any session started before the given
// hour of day, in the session's own location.
func (s ActivitySnapshot) HasSessionBefore(hour int) bool {
	for _, fs := range s.Sessions {
		if !fs.StartedAt.IsZero() && fs.StartedAt.Hour() < hour {
			return true
		}
	}
	return false
}
