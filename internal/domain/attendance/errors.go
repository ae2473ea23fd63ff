package attendance

import "errors"

// Attendance domain errors
var (
	// Business-rule rejections: the record is left unchanged and the caller
	// translates these into a user-facing message.
	ErrAlreadyCheckedIn      = errors.New("already checked in, check out first")
	ErrNoActiveSession       = errors.New("no active check-in found")
	ErrCheckOutBeforeCheckIn = errors.New("check-out time is before check-in time")
	ErrOutOfOrderEvent       = errors.New("event time is earlier than the previous event")
	ErrBreakInProgress       = errors.New("a break is already in progress")
	ErrNoActiveBreak         = errors.New("no break in progress")

	// General errors
	ErrRecordNotFound = errors.New("attendance record not found")

	// ErrCorruptRecord means the record violates its own invariants (e.g.
	// more than one open session). It signals a concurrency bug upstream and
	// is never repaired silently.
	ErrCorruptRecord = errors.New("attendance record is internally inconsistent")
)
