package attendance

import (
	"context"
)

// AttendanceService defines business logic for attendance operations. The
// authenticated employee is resolved from the request context claims.
type AttendanceService interface {
	// CheckIn opens a new session for today, creating today's record on
	// first check-in.
	CheckIn(ctx context.Context, req CheckInRequest) (RecordResponse, error)

	// CheckOut closes the active session.
	CheckOut(ctx context.Context, req CheckOutRequest) (RecordResponse, error)

	// StartBreak opens a break interval within the active session.
	StartBreak(ctx context.Context) (RecordResponse, error)

	// EndBreak closes the open break interval.
	EndBreak(ctx context.Context) (RecordResponse, error)

	// Today retrieves today's record for the authenticated employee.
	Today(ctx context.Context) (RecordResponse, error)

	// MonthlySummary aggregates the employee's records over one month.
	MonthlySummary(ctx context.Context, filter SummaryFilter) (MonthlySummary, error)

	// Report retrieves the employee's records in a date range, newest first.
	Report(ctx context.Context, filter ReportFilter) (ReportResponse, error)
}
