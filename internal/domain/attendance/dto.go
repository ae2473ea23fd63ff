package attendance

import (
	"time"

	"github.com/worklane/attendance-backend-go/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type CheckInRequest struct {
	Notes string `json:"notes"`
}

func (r *CheckInRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.Notes) > 500 {
		errs = append(errs, validator.ValidationError{
			Field:   "notes",
			Message: "notes must not exceed 500 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type CheckOutRequest struct {
	Notes string `json:"notes"`
}

func (r *CheckOutRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.Notes) > 500 {
		errs = append(errs, validator.ValidationError{
			Field:   "notes",
			Message: "notes must not exceed 500 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SummaryFilter struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (f *SummaryFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Year < 2000 || f.Year > 2100 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year must be between 2000 and 2100",
		})
	}

	if f.Month < 1 || f.Month > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ReportFilter struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

func (f *ReportFilter) Validate() error {
	var errs validator.ValidationErrors

	start, startOK := validator.IsValidDate(f.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be a valid date in YYYY-MM-DD format",
		})
	}

	end, endOK := validator.IsValidDate(f.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be a valid date in YYYY-MM-DD format",
		})
	}

	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SessionResponse struct {
	CheckInTime  string  `json:"check_in_time"`
	CheckOutTime *string `json:"check_out_time,omitempty"`
	SessionHours float64 `json:"session_hours"`
	IsActive     bool    `json:"is_active"`
	Notes        string  `json:"notes,omitempty"`
}

type BreakResponse struct {
	BreakOut        string  `json:"break_out"`
	BreakIn         *string `json:"break_in,omitempty"`
	DurationMinutes int     `json:"duration_minutes"`
}

type RecordResponse struct {
	ID                string            `json:"id"`
	EmployeeID        string            `json:"employee_id"`
	Date              string            `json:"date"`
	Sessions          []SessionResponse `json:"sessions"`
	Breaks            []BreakResponse   `json:"breaks"`
	Status            string            `json:"status"`
	TotalHours        float64           `json:"total_hours"`
	WorkingHours      float64           `json:"working_hours"`
	OvertimeHours     float64           `json:"overtime_hours"`
	TotalBreakMinutes int               `json:"total_break_minutes"`
	IsLateCheckIn     bool              `json:"is_late_check_in"`
	IsEarlyCheckOut   bool              `json:"is_early_check_out"`
	ExpectedCheckIn   string            `json:"expected_check_in"`
	ExpectedCheckOut  string            `json:"expected_check_out"`
	Notes             string            `json:"notes,omitempty"`
}

type ReportResponse struct {
	EmployeeID string           `json:"employee_id"`
	StartDate  string           `json:"start_date"`
	EndDate    string           `json:"end_date"`
	TotalDays  int              `json:"total_days"`
	Records    []RecordResponse `json:"records"`
}

// MapRecordToResponse converts an AttendanceRecord to its transport shape.
func MapRecordToResponse(rec AttendanceRecord) RecordResponse {
	sessions := make([]SessionResponse, 0, len(rec.Sessions))
	for _, s := range rec.Sessions {
		sessions = append(sessions, SessionResponse{
			CheckInTime:  s.CheckInTime.Format(time.RFC3339),
			CheckOutTime: formatTimePtr(s.CheckOutTime),
			SessionHours: s.SessionHours,
			IsActive:     s.IsActive,
			Notes:        s.Notes,
		})
	}

	breaks := make([]BreakResponse, 0, len(rec.Breaks))
	for _, b := range rec.Breaks {
		breaks = append(breaks, BreakResponse{
			BreakOut:        b.BreakOut.Format(time.RFC3339),
			BreakIn:         formatTimePtr(b.BreakIn),
			DurationMinutes: b.DurationMinutes,
		})
	}

	return RecordResponse{
		ID:                rec.ID,
		EmployeeID:        rec.EmployeeID,
		Date:              rec.Date.Format("2006-01-02"),
		Sessions:          sessions,
		Breaks:            breaks,
		Status:            string(rec.Status),
		TotalHours:        rec.TotalHours,
		WorkingHours:      rec.WorkingHours,
		OvertimeHours:     rec.OvertimeHours,
		TotalBreakMinutes: rec.TotalBreakMinutes,
		IsLateCheckIn:     rec.IsLateCheckIn,
		IsEarlyCheckOut:   rec.IsEarlyCheckOut,
		ExpectedCheckIn:   rec.ExpectedCheckIn,
		ExpectedCheckOut:  rec.ExpectedCheckOut,
		Notes:             rec.Notes,
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}
