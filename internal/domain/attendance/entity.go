package attendance

import (
	"time"
)

// Status is always derived from the record's sessions and breaks; callers
// never set it directly.
type Status string

const (
	StatusPresent       Status = "present"
	StatusLate          Status = "late"
	StatusHalfDay       Status = "half_day"
	StatusAbsent        Status = "absent"
	StatusEarlyCheckout Status = "early_checkout"
)

const (
	DefaultExpectedCheckIn  = "09:00"
	DefaultExpectedCheckOut = "18:00"

	// FullDayHours is the working-hours threshold for a complete day;
	// anything above it counts as overtime.
	FullDayHours = 8.0
	// HalfDayHours is the minimum working hours for a half day.
	HalfDayHours = 4.0
)

// Session is one contiguous check-in-to-check-out interval. A nil
// CheckOutTime means the session is still open; IsActive is a fast-path flag
// but the authoritative test is CheckOutTime == nil.
type Session struct {
	CheckInTime  time.Time  `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
	SessionHours float64    `json:"session_hours"`
	IsActive     bool       `json:"is_active"`
	Notes        string     `json:"notes,omitempty"`
}

// Open reports whether the session has no recorded checkout.
func (s *Session) Open() bool {
	return s.CheckOutTime == nil
}

// Break is one break interval within the working day. BreakOut is when the
// employee stepped away, BreakIn when they returned (nil while the break is
// open).
type Break struct {
	BreakOut        time.Time  `json:"break_out"`
	BreakIn         *time.Time `json:"break_in,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
}

// Open reports whether the break has not ended yet.
func (b *Break) Open() bool {
	return b.BreakIn == nil
}

// AttendanceRecord holds one employee's attendance for one calendar date.
// Unique on (EmployeeID, Date). All derived fields (Status, TotalHours,
// WorkingHours, OvertimeHours, the late/early flags) are recomputed after
// every mutation.
type AttendanceRecord struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	Date       time.Time `json:"date"`

	Sessions []Session `json:"sessions"`
	Breaks   []Break   `json:"breaks"`

	Status            Status  `json:"status"`
	TotalHours        float64 `json:"total_hours"`
	WorkingHours      float64 `json:"working_hours"`
	OvertimeHours     float64 `json:"overtime_hours"`
	TotalBreakMinutes int     `json:"total_break_minutes"`
	IsLateCheckIn     bool    `json:"is_late_check_in"`
	IsEarlyCheckOut   bool    `json:"is_early_check_out"`

	// ExpectedCheckIn / ExpectedCheckOut are "HH:MM" office-hours boundaries
	// used to flag lateness and early departure.
	ExpectedCheckIn  string `json:"expected_check_in"`
	ExpectedCheckOut string `json:"expected_check_out"`

	Notes string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRecord creates an empty record for the given day: status absent, no
// sessions. The date is normalized to midnight and is immutable afterwards.
// Empty expected clock strings fall back to the 09:00/18:00 defaults.
func NewRecord(employeeID string, date time.Time, expectedCheckIn, expectedCheckOut string) *AttendanceRecord {
	if expectedCheckIn == "" {
		expectedCheckIn = DefaultExpectedCheckIn
	}
	if expectedCheckOut == "" {
		expectedCheckOut = DefaultExpectedCheckOut
	}
	return &AttendanceRecord{
		EmployeeID:       employeeID,
		Date:             Midnight(date),
		Sessions:         []Session{},
		Breaks:           []Break{},
		Status:           StatusAbsent,
		ExpectedCheckIn:  expectedCheckIn,
		ExpectedCheckOut: expectedCheckOut,
	}
}

// Midnight normalizes t to the start of its calendar day, keeping the
// location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
