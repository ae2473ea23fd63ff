package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/worklane/attendance-backend-go/internal/domain/attendance"
)

// Defaults carries the configured office-hours boundaries applied to newly
// created records.
type Defaults struct {
	ExpectedCheckIn  string
	ExpectedCheckOut string
}

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	defaults Defaults

	// now is the wall-clock source; swapped out in tests.
	now func() time.Time
}

func NewAttendanceService(attendanceRepo attendance.AttendanceRepository, defaults Defaults) attendance.AttendanceService {
	if defaults.ExpectedCheckIn == "" {
		defaults.ExpectedCheckIn = attendance.DefaultExpectedCheckIn
	}
	if defaults.ExpectedCheckOut == "" {
		defaults.ExpectedCheckOut = attendance.DefaultExpectedCheckOut
	}
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		defaults:             defaults,
		now:                  time.Now,
	}
}

// employeeIDFromContext resolves the authenticated employee from the JWT
// claims placed in the context by the verifier middleware.
func employeeIDFromContext(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	employeeID, ok := claims["employee_id"].(string)
	if !ok || employeeID == "" {
		return "", fmt.Errorf("employee_id claim is missing or invalid")
	}
	return employeeID, nil
}

// CheckIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	employeeID, err := employeeIDFromContext(ctx)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	now := a.now().UTC()
	opts := attendance.MutateOptions{
		CreateIfMissing:  true,
		ExpectedCheckIn:  a.defaults.ExpectedCheckIn,
		ExpectedCheckOut: a.defaults.ExpectedCheckOut,
	}

	rec, err := a.AttendanceRepository.Mutate(ctx, employeeID, now, opts, func(rec *attendance.AttendanceRecord) error {
		_, err := attendance.CheckIn(rec, now, req.Notes)
		return err
	})
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	return attendance.MapRecordToResponse(rec), nil
}

// CheckOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	employeeID, err := employeeIDFromContext(ctx)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	now := a.now().UTC()
	rec, err := a.AttendanceRepository.Mutate(ctx, employeeID, now, attendance.MutateOptions{}, func(rec *attendance.AttendanceRecord) error {
		_, err := attendance.CheckOut(rec, now, req.Notes)
		return err
	})
	if err != nil {
		if errors.Is(err, attendance.ErrRecordNotFound) {
			// No record for today means no check-in happened.
			return attendance.RecordResponse{}, attendance.ErrNoActiveSession
		}
		return attendance.RecordResponse{}, err
	}

	return attendance.MapRecordToResponse(rec), nil
}

// StartBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) StartBreak(ctx context.Context) (attendance.RecordResponse, error) {
	employeeID, err := employeeIDFromContext(ctx)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	now := a.now().UTC()
	rec, err := a.AttendanceRepository.Mutate(ctx, employeeID, now, attendance.MutateOptions{}, func(rec *attendance.AttendanceRecord) error {
		_, err := attendance.StartBreak(rec, now)
		return err
	})
	if err != nil {
		if errors.Is(err, attendance.ErrRecordNotFound) {
			return attendance.RecordResponse{}, attendance.ErrNoActiveSession
		}
		return attendance.RecordResponse{}, err
	}

	return attendance.MapRecordToResponse(rec), nil
}

// EndBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) EndBreak(ctx context.Context) (attendance.RecordResponse, error) {
	employeeID, err := employeeIDFromContext(ctx)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	now := a.now().UTC()
	rec, err := a.AttendanceRepository.Mutate(ctx, employeeID, now, attendance.MutateOptions{}, func(rec *attendance.AttendanceRecord) error {
		_, err := attendance.EndBreak(rec, now)
		return err
	})
	if err != nil {
		if errors.Is(err, attendance.ErrRecordNotFound) {
			return attendance.RecordResponse{}, attendance.ErrNoActiveBreak
		}
		return attendance.RecordResponse{}, err
	}

	return attendance.MapRecordToResponse(rec), nil
}

// Today implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Today(ctx context.Context) (attendance.RecordResponse, error) {
	employeeID, err := employeeIDFromContext(ctx)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	rec, err := a.AttendanceRepository.FindByEmployeeAndDate(ctx, employeeID, a.now().UTC())
	if err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
	}
	if rec == nil {
		return attendance.RecordResponse{}, attendance.ErrRecordNotFound
	}

	return attendance.MapRecordToResponse(*rec), nil
}

// MonthlySummary implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) MonthlySummary(ctx context.Context, filter attendance.SummaryFilter) (attendance.MonthlySummary, error) {
	if err := filter.Validate(); err != nil {
		return attendance.MonthlySummary{}, err
	}

	employeeID, err := employeeIDFromContext(ctx)
	if err != nil {
		return attendance.MonthlySummary{}, err
	}

	firstOfMonth := time.Date(filter.Year, time.Month(filter.Month), 1, 0, 0, 0, 0, time.UTC)
	lastOfMonth := firstOfMonth.AddDate(0, 1, -1)

	records, err := a.AttendanceRepository.FindRange(ctx, employeeID, firstOfMonth, lastOfMonth)
	if err != nil {
		return attendance.MonthlySummary{}, fmt.Errorf("failed to get records for summary: %w", err)
	}

	return attendance.BuildMonthlySummary(employeeID, filter.Year, filter.Month, records), nil
}

// Report implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Report(ctx context.Context, filter attendance.ReportFilter) (attendance.ReportResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ReportResponse{}, err
	}

	employeeID, err := employeeIDFromContext(ctx)
	if err != nil {
		return attendance.ReportResponse{}, err
	}

	start, _ := time.Parse("2006-01-02", filter.StartDate)
	end, _ := time.Parse("2006-01-02", filter.EndDate)

	records, err := a.AttendanceRepository.FindRange(ctx, employeeID, start, end)
	if err != nil {
		return attendance.ReportResponse{}, fmt.Errorf("failed to get records for report: %w", err)
	}

	responses := make([]attendance.RecordResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, attendance.MapRecordToResponse(rec))
	}

	return attendance.ReportResponse{
		EmployeeID: employeeID,
		StartDate:  filter.StartDate,
		EndDate:    filter.EndDate,
		TotalDays:  len(responses),
		Records:    responses,
	}, nil
}
