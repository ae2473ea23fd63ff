package attendance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worklane/attendance-backend-go/internal/domain/attendance"
)

// memoryRepository is an in-process model of the repository contract: one
// lock serializes every read-modify-write cycle, mirroring the row lock the
// PostgreSQL implementation takes.
type memoryRepository struct {
	mu      sync.Mutex
	records map[string]*attendance.AttendanceRecord
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{records: make(map[string]*attendance.AttendanceRecord)}
}

func (m *memoryRepository) key(employeeID string, date time.Time) string {
	return employeeID + "|" + attendance.Midnight(date.UTC()).Format("2006-01-02")
}

func (m *memoryRepository) Mutate(ctx context.Context, employeeID string, date time.Time, opts attendance.MutateOptions, fn func(*attendance.AttendanceRecord) error) (attendance.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.key(employeeID, date)
	rec, ok := m.records[key]
	if !ok {
		if !opts.CreateIfMissing {
			return attendance.AttendanceRecord{}, attendance.ErrRecordNotFound
		}
		rec = attendance.NewRecord(employeeID, date.UTC(), opts.ExpectedCheckIn, opts.ExpectedCheckOut)
		rec.ID = key
	}

	if err := attendance.Validate(rec); err != nil {
		return attendance.AttendanceRecord{}, err
	}

	work := *rec
	work.Sessions = append([]attendance.Session(nil), rec.Sessions...)
	work.Breaks = append([]attendance.Break(nil), rec.Breaks...)
	if err := fn(&work); err != nil {
		return attendance.AttendanceRecord{}, err
	}

	m.records[key] = &work
	return work, nil
}

func (m *memoryRepository) FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[m.key(employeeID, date)]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (m *memoryRepository) FindRange(ctx context.Context, employeeID string, start, end time.Time) ([]attendance.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []attendance.AttendanceRecord
	for _, rec := range m.records {
		if rec.EmployeeID != employeeID {
			continue
		}
		if rec.Date.Before(attendance.Midnight(start.UTC())) || rec.Date.After(attendance.Midnight(end.UTC())) {
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (m *memoryRepository) DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var purged int64
	for key, rec := range m.records {
		if !rec.Date.Before(attendance.Midnight(cutoff.UTC())) {
			continue
		}
		if attendance.ActiveSession(rec) != nil {
			continue
		}
		delete(m.records, key)
		purged++
	}
	return purged, nil
}

func authedContext(t *testing.T, employeeID string) context.Context {
	t.Helper()
	tokenAuth := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := tokenAuth.Encode(map[string]interface{}{
		"user_id":     "user-1",
		"employee_id": employeeID,
		"type":        "access",
	})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func newTestService(repo attendance.AttendanceRepository, now time.Time) *AttendanceServiceImpl {
	svc := NewAttendanceService(repo, Defaults{}).(*AttendanceServiceImpl)
	svc.now = func() time.Time { return now }
	return svc
}

func TestService_CheckInCreatesRecord(t *testing.T) {
	repo := newMemoryRepository()
	now := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)
	ctx := authedContext(t, "emp-1")

	resp, err := svc.CheckIn(ctx, attendance.CheckInRequest{Notes: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "emp-1", resp.EmployeeID)
	assert.Equal(t, "2024-03-11", resp.Date)
	assert.Equal(t, string(attendance.StatusPresent), resp.Status)
	require.Len(t, resp.Sessions, 1)
	assert.True(t, resp.Sessions[0].IsActive)
	assert.Equal(t, "09:00", resp.ExpectedCheckIn)
}

func TestService_DoubleCheckInRejected(t *testing.T) {
	repo := newMemoryRepository()
	now := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)
	ctx := authedContext(t, "emp-1")

	_, err := svc.CheckIn(ctx, attendance.CheckInRequest{})
	require.NoError(t, err)

	_, err = svc.CheckIn(ctx, attendance.CheckInRequest{})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	rec, err := repo.FindByEmployeeAndDate(context.Background(), "emp-1", now)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Len(t, rec.Sessions, 1)
}

func TestService_CheckOutWithoutCheckIn(t *testing.T) {
	repo := newMemoryRepository()
	now := time.Date(2024, 3, 11, 18, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)
	ctx := authedContext(t, "emp-1")

	_, err := svc.CheckOut(ctx, attendance.CheckOutRequest{})
	assert.ErrorIs(t, err, attendance.ErrNoActiveSession)
}

func TestService_FullDayFlow(t *testing.T) {
	repo := newMemoryRepository()
	day := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	svc := newTestService(repo, day.Add(9*time.Hour))
	ctx := authedContext(t, "emp-1")

	_, err := svc.CheckIn(ctx, attendance.CheckInRequest{})
	require.NoError(t, err)

	svc.now = func() time.Time { return day.Add(12 * time.Hour) }
	_, err = svc.StartBreak(ctx)
	require.NoError(t, err)

	svc.now = func() time.Time { return day.Add(12*time.Hour + 30*time.Minute) }
	_, err = svc.EndBreak(ctx)
	require.NoError(t, err)

	svc.now = func() time.Time { return day.Add(18 * time.Hour) }
	resp, err := svc.CheckOut(ctx, attendance.CheckOutRequest{})
	require.NoError(t, err)

	assert.Equal(t, string(attendance.StatusPresent), resp.Status)
	assert.InDelta(t, 9.0, resp.TotalHours, 1e-9)
	assert.InDelta(t, 8.5, resp.WorkingHours, 1e-9)
	assert.Equal(t, 30, resp.TotalBreakMinutes)
	assert.InDelta(t, 0.5, resp.OvertimeHours, 1e-9)
}

func TestService_BreakWithoutCheckIn(t *testing.T) {
	repo := newMemoryRepository()
	now := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)
	ctx := authedContext(t, "emp-1")

	_, err := svc.StartBreak(ctx)
	assert.ErrorIs(t, err, attendance.ErrNoActiveSession)

	_, err = svc.EndBreak(ctx)
	assert.ErrorIs(t, err, attendance.ErrNoActiveBreak)
}

func TestService_Today(t *testing.T) {
	repo := newMemoryRepository()
	now := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)
	ctx := authedContext(t, "emp-1")

	_, err := svc.Today(ctx)
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)

	_, err = svc.CheckIn(ctx, attendance.CheckInRequest{})
	require.NoError(t, err)

	resp, err := svc.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", resp.Date)
}

func TestService_MonthlySummary(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo, time.Time{})
	ctx := authedContext(t, "emp-1")

	days := []struct {
		day      int
		in, out  int
		expected attendance.Status
	}{
		{4, 9, 18, attendance.StatusPresent},
		{5, 9, 18, attendance.StatusPresent},
		{6, 9, 18, attendance.StatusPresent},
		{7, 11, 15, attendance.StatusLate},
	}
	for _, d := range days {
		svc.now = func() time.Time {
			return time.Date(2024, 3, d.day, d.in, 0, 0, 0, time.UTC)
		}
		_, err := svc.CheckIn(ctx, attendance.CheckInRequest{})
		require.NoError(t, err)
		svc.now = func() time.Time {
			return time.Date(2024, 3, d.day, d.out, 0, 0, 0, time.UTC)
		}
		_, err = svc.CheckOut(ctx, attendance.CheckOutRequest{})
		require.NoError(t, err)
	}

	// One absent day with a record but no sessions.
	_, err := repo.Mutate(ctx, "emp-1", time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
		attendance.MutateOptions{CreateIfMissing: true}, func(*attendance.AttendanceRecord) error { return nil })
	require.NoError(t, err)

	summary, err := svc.MonthlySummary(ctx, attendance.SummaryFilter{Year: 2024, Month: 3})
	require.NoError(t, err)

	assert.Equal(t, 5, summary.TotalDays)
	assert.Equal(t, 3, summary.PresentDays)
	assert.Equal(t, 1, summary.LateDays)
	assert.Equal(t, 1, summary.AbsentDays)
	assert.Equal(t, 4, summary.TotalSessions)
	assert.InDelta(t, 0.8, summary.AverageSessionsPerDay, 1e-9)
}

func TestService_MonthlySummaryInvalidFilter(t *testing.T) {
	svc := newTestService(newMemoryRepository(), time.Now())
	ctx := authedContext(t, "emp-1")

	_, err := svc.MonthlySummary(ctx, attendance.SummaryFilter{Year: 2024, Month: 13})
	assert.Error(t, err)
}

func TestService_Report(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo, time.Time{})
	ctx := authedContext(t, "emp-1")

	for _, day := range []int{4, 5, 6} {
		svc.now = func() time.Time { return time.Date(2024, 3, day, 9, 0, 0, 0, time.UTC) }
		_, err := svc.CheckIn(ctx, attendance.CheckInRequest{})
		require.NoError(t, err)
		svc.now = func() time.Time { return time.Date(2024, 3, day, 18, 0, 0, 0, time.UTC) }
		_, err = svc.CheckOut(ctx, attendance.CheckOutRequest{})
		require.NoError(t, err)
	}

	report, err := svc.Report(ctx, attendance.ReportFilter{StartDate: "2024-03-05", EndDate: "2024-03-31"})
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalDays)
	assert.Len(t, report.Records, 2)
}

func TestService_ReportInvalidRange(t *testing.T) {
	svc := newTestService(newMemoryRepository(), time.Now())
	ctx := authedContext(t, "emp-1")

	_, err := svc.Report(ctx, attendance.ReportFilter{StartDate: "2024-03-31", EndDate: "2024-03-01"})
	assert.Error(t, err)
}

func TestService_MissingEmployeeClaim(t *testing.T) {
	svc := newTestService(newMemoryRepository(), time.Now())

	_, err := svc.CheckIn(context.Background(), attendance.CheckInRequest{})
	assert.Error(t, err)
}
