package attendance

import (
	"context"
	"time"
)

// MutateOptions controls how Mutate resolves the day's record before applying
// a transition.
type MutateOptions struct {
	// CreateIfMissing creates a fresh record (status absent, no sessions)
	// when none exists for the (employee, date) key. Check-in sets this;
	// check-out and break transitions do not.
	CreateIfMissing bool

	// Expected office-hours boundaries for a newly created record, "HH:MM".
	ExpectedCheckIn  string
	ExpectedCheckOut string
}

// AttendanceRepository defines data access for attendance records. Mutate is
// the only write path: the store must serialize the read-modify-write cycle
// per (employeeID, date) so concurrent transitions on the same record cannot
// both observe the pre-mutation state. This is a hard requirement, not an
// optimization.
type AttendanceRepository interface {
	// Mutate loads (or creates, per opts) the record for the employee and
	// date, verifies its invariants, applies fn and persists the result,
	// all under a per-record lock. A business-rule error from fn aborts
	// without persisting and is returned unchanged. Returns
	// ErrRecordNotFound when the record is absent and CreateIfMissing is
	// unset, and ErrCorruptRecord when the loaded record fails validation.
	Mutate(ctx context.Context, employeeID string, date time.Time, opts MutateOptions, fn func(*AttendanceRecord) error) (AttendanceRecord, error)

	// FindByEmployeeAndDate retrieves one day's record, or nil when the
	// employee has no record for that date.
	FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*AttendanceRecord, error)

	// FindRange retrieves records with date in [start, end], ordered by
	// date descending.
	FindRange(ctx context.Context, employeeID string, start, end time.Time) ([]AttendanceRecord, error)

	// DeleteClosedBefore purges records older than cutoff that have no open
	// session, returning the number removed. Used by the retention job.
	DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
