package attendance

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// The transition functions below are the write path of the engine. They are
// pure state transitions on the record, detached from any storage identity:
// the caller loads the record, applies a transition, and persists the result.
// Every successful transition ends with Recompute; every rejected one leaves
// the record untouched.

// CheckIn opens a new session at the given time. It fails with
// ErrAlreadyCheckedIn while another session is open, and with
// ErrOutOfOrderEvent if the time precedes the latest recorded check-in
// (sessions stay ordered by check-in time).
func CheckIn(rec *AttendanceRecord, at time.Time, notes string) (*Session, error) {
	if ActiveSession(rec) != nil {
		return nil, ErrAlreadyCheckedIn
	}
	if n := len(rec.Sessions); n > 0 && at.Before(rec.Sessions[n-1].CheckInTime) {
		return nil, ErrOutOfOrderEvent
	}

	rec.Sessions = append(rec.Sessions, Session{
		CheckInTime: at,
		IsActive:    true,
		Notes:       notes,
	})
	Recompute(rec)
	return &rec.Sessions[len(rec.Sessions)-1], nil
}

// CheckOut closes the active session. It fails with ErrNoActiveSession when
// every session is already closed, with ErrBreakInProgress while a break is
// open, and with ErrCheckOutBeforeCheckIn when the checkout time precedes the
// session's check-in. Non-empty notes overwrite the session notes.
func CheckOut(rec *AttendanceRecord, at time.Time, notes string) (*Session, error) {
	sess := ActiveSession(rec)
	if sess == nil {
		return nil, ErrNoActiveSession
	}
	if ActiveBreak(rec) != nil {
		return nil, ErrBreakInProgress
	}
	if at.Before(sess.CheckInTime) {
		return nil, ErrCheckOutBeforeCheckIn
	}

	out := at
	sess.CheckOutTime = &out
	sess.SessionHours = out.Sub(sess.CheckInTime).Hours()
	sess.IsActive = false
	if notes != "" {
		sess.Notes = notes
	}
	Recompute(rec)
	return sess, nil
}

// StartBreak opens a break interval. A break requires an active session and
// at most one break may be open at a time.
func StartBreak(rec *AttendanceRecord, at time.Time) (*Break, error) {
	sess := ActiveSession(rec)
	if sess == nil {
		return nil, ErrNoActiveSession
	}
	if ActiveBreak(rec) != nil {
		return nil, ErrBreakInProgress
	}
	if at.Before(sess.CheckInTime) {
		return nil, ErrOutOfOrderEvent
	}

	rec.Breaks = append(rec.Breaks, Break{BreakOut: at})
	Recompute(rec)
	return &rec.Breaks[len(rec.Breaks)-1], nil
}

// EndBreak closes the open break and records its duration in whole minutes.
func EndBreak(rec *AttendanceRecord, at time.Time) (*Break, error) {
	br := ActiveBreak(rec)
	if br == nil {
		return nil, ErrNoActiveBreak
	}
	if at.Before(br.BreakOut) {
		return nil, ErrOutOfOrderEvent
	}

	in := at
	br.BreakIn = &in
	br.DurationMinutes = int(in.Sub(br.BreakOut).Minutes())
	Recompute(rec)
	return br, nil
}

// ActiveSession returns the session with no checkout, or nil. Uniqueness is
// guaranteed by the at-most-one-open-session invariant.
func ActiveSession(rec *AttendanceRecord) *Session {
	for i := range rec.Sessions {
		if rec.Sessions[i].Open() {
			return &rec.Sessions[i]
		}
	}
	return nil
}

// ActiveBreak returns the break with no end time, or nil.
func ActiveBreak(rec *AttendanceRecord) *Break {
	for i := range rec.Breaks {
		if rec.Breaks[i].Open() {
			return &rec.Breaks[i]
		}
	}
	return nil
}

// Validate checks the record's internal consistency as loaded from the store.
// More than one open session means the per-record write serialization was
// broken somewhere; that is surfaced as ErrCorruptRecord rather than
// repaired.
func Validate(rec *AttendanceRecord) error {
	open := 0
	for i := range rec.Sessions {
		if rec.Sessions[i].Open() {
			open++
		}
		if i > 0 && rec.Sessions[i].CheckInTime.Before(rec.Sessions[i-1].CheckInTime) {
			return fmt.Errorf("%w: sessions out of order at index %d", ErrCorruptRecord, i)
		}
	}
	if open > 1 {
		return fmt.Errorf("%w: %d open sessions", ErrCorruptRecord, open)
	}

	openBreaks := 0
	for i := range rec.Breaks {
		if rec.Breaks[i].Open() {
			openBreaks++
		}
	}
	if openBreaks > 1 {
		return fmt.Errorf("%w: %d open breaks", ErrCorruptRecord, openBreaks)
	}
	return nil
}

// Recompute derives status, totals and the late/early flags from the current
// sessions and breaks. It is idempotent and invoked after every mutation so
// the derived fields are never stale.
func Recompute(rec *AttendanceRecord) {
	rec.TotalBreakMinutes = 0
	for i := range rec.Breaks {
		rec.TotalBreakMinutes += rec.Breaks[i].DurationMinutes
	}

	if len(rec.Sessions) == 0 {
		rec.Status = StatusAbsent
		rec.TotalHours = 0
		rec.WorkingHours = 0
		rec.OvertimeHours = 0
		rec.IsLateCheckIn = false
		rec.IsEarlyCheckOut = false
		return
	}

	total := 0.0
	hasActive := false
	var lastCompleted *Session
	for i := range rec.Sessions {
		s := &rec.Sessions[i]
		if s.Open() {
			hasActive = true
			continue
		}
		total += s.SessionHours
		lastCompleted = s
	}
	rec.TotalHours = total

	first := &rec.Sessions[0]
	rec.IsLateCheckIn = first.CheckInTime.After(clockOn(rec.Date, rec.ExpectedCheckIn))

	rec.IsEarlyCheckOut = false
	if lastCompleted != nil {
		rec.IsEarlyCheckOut = lastCompleted.CheckOutTime.Before(clockOn(rec.Date, rec.ExpectedCheckOut))
	}

	rec.WorkingHours = rec.TotalHours - float64(rec.TotalBreakMinutes)/60.0

	// An employee still clocked in is present (or late) no matter how many
	// hours have accumulated; the completeness thresholds only apply once
	// all sessions are closed.
	switch {
	case hasActive:
		if rec.IsLateCheckIn {
			rec.Status = StatusLate
		} else {
			rec.Status = StatusPresent
		}
	case rec.WorkingHours >= FullDayHours && !rec.IsLateCheckIn && !rec.IsEarlyCheckOut:
		rec.Status = StatusPresent
	case rec.WorkingHours >= HalfDayHours:
		if rec.IsLateCheckIn || rec.IsEarlyCheckOut {
			rec.Status = StatusLate
		} else {
			rec.Status = StatusHalfDay
		}
	case rec.WorkingHours > 0:
		rec.Status = StatusEarlyCheckout
	default:
		rec.Status = StatusAbsent
	}

	rec.OvertimeHours = 0
	if rec.WorkingHours > FullDayHours {
		rec.OvertimeHours = rec.WorkingHours - FullDayHours
	}
}

// clockOn combines the record's date with an "HH:MM" clock string into an
// instant on that day, in the date's location. Malformed clocks fall back to
// midnight.
func clockOn(date time.Time, clock string) time.Time {
	hour, minute := 0, 0
	if h, m, ok := splitClock(clock); ok {
		hour, minute = h, m
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
}

func splitClock(clock string) (hour, minute int, ok bool) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}
