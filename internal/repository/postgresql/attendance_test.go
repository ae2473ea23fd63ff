package postgresql_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worklane/attendance-backend-go/internal/domain/attendance"
	"github.com/worklane/attendance-backend-go/internal/pkg/database"
	"github.com/worklane/attendance-backend-go/internal/repository/postgresql"
)

const schema = `
CREATE TABLE IF NOT EXISTS attendance_records (
	id TEXT PRIMARY KEY,
	employee_id TEXT NOT NULL,
	date TIMESTAMPTZ NOT NULL,
	sessions JSONB NOT NULL DEFAULT '[]',
	breaks JSONB NOT NULL DEFAULT '[]',
	status TEXT NOT NULL,
	total_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
	working_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
	overtime_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_break_minutes INT NOT NULL DEFAULT 0,
	is_late_check_in BOOLEAN NOT NULL DEFAULT FALSE,
	is_early_check_out BOOLEAN NOT NULL DEFAULT FALSE,
	expected_check_in TEXT NOT NULL,
	expected_check_out TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (employee_id, date)
)`

// setupTestDB connects to the test database named by TEST_DATABASE_URL and
// resets the attendance table. Tests are skipped when the variable is unset.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	_, err = db.Exec(ctx, schema)
	require.NoError(t, err)
	_, err = db.Exec(ctx, "TRUNCATE attendance_records")
	require.NoError(t, err)

	return db
}

func checkInAt(repo attendance.AttendanceRepository, employeeID string, at time.Time) (attendance.AttendanceRecord, error) {
	return repo.Mutate(context.Background(), employeeID, at, attendance.MutateOptions{
		CreateIfMissing:  true,
		ExpectedCheckIn:  "09:00",
		ExpectedCheckOut: "18:00",
	}, func(rec *attendance.AttendanceRecord) error {
		_, err := attendance.CheckIn(rec, at, "")
		return err
	})
}

func TestAttendanceRepository_MutateRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := postgresql.NewAttendanceRepository(db)
	ctx := context.Background()

	in := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	rec, err := checkInAt(repo, "emp-1", in)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, attendance.StatusPresent, rec.Status)

	out := in.Add(9 * time.Hour)
	rec, err = repo.Mutate(ctx, "emp-1", out, attendance.MutateOptions{}, func(rec *attendance.AttendanceRecord) error {
		_, err := attendance.CheckOut(rec, out, "done")
		return err
	})
	require.NoError(t, err)
	assert.InDelta(t, 9.0, rec.TotalHours, 1e-9)

	found, err := repo.FindByEmployeeAndDate(ctx, "emp-1", in)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, found.Sessions, 1)
	assert.False(t, found.Sessions[0].Open())
	assert.Equal(t, "done", found.Sessions[0].Notes)
}

func TestAttendanceRepository_MutateWithoutRecord(t *testing.T) {
	db := setupTestDB(t)
	repo := postgresql.NewAttendanceRepository(db)

	now := time.Date(2024, 3, 11, 18, 0, 0, 0, time.UTC)
	_, err := repo.Mutate(context.Background(), "emp-1", now, attendance.MutateOptions{}, func(rec *attendance.AttendanceRecord) error {
		t.Fatal("fn must not run when the record is missing")
		return nil
	})
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestAttendanceRepository_RejectionDoesNotPersist(t *testing.T) {
	db := setupTestDB(t)
	repo := postgresql.NewAttendanceRepository(db)
	ctx := context.Background()

	in := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	_, err := checkInAt(repo, "emp-1", in)
	require.NoError(t, err)

	_, err = checkInAt(repo, "emp-1", in.Add(time.Hour))
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	found, err := repo.FindByEmployeeAndDate(ctx, "emp-1", in)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Len(t, found.Sessions, 1)
}

func TestAttendanceRepository_ConcurrentFirstCheckIn(t *testing.T) {
	db := setupTestDB(t)
	repo := postgresql.NewAttendanceRepository(db)
	ctx := context.Background()

	in := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = checkInAt(repo, "emp-1", in)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent check-in may win")

	found, err := repo.FindByEmployeeAndDate(ctx, "emp-1", in)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Len(t, found.Sessions, 1)
	assert.NoError(t, attendance.Validate(found))
}

func TestAttendanceRepository_FindRange(t *testing.T) {
	db := setupTestDB(t)
	repo := postgresql.NewAttendanceRepository(db)
	ctx := context.Background()

	for day := 4; day <= 6; day++ {
		in := time.Date(2024, 3, day, 9, 0, 0, 0, time.UTC)
		_, err := checkInAt(repo, "emp-1", in)
		require.NoError(t, err)
	}
	_, err := checkInAt(repo, "emp-2", time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	records, err := repo.FindRange(ctx, "emp-1",
		time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.True(t, records[0].Date.After(records[1].Date), "newest first")
	for _, rec := range records {
		assert.Equal(t, "emp-1", rec.EmployeeID)
	}
}

func TestAttendanceRepository_DeleteClosedBefore(t *testing.T) {
	db := setupTestDB(t)
	repo := postgresql.NewAttendanceRepository(db)
	ctx := context.Background()

	// Old closed record.
	oldIn := time.Date(2023, 1, 10, 9, 0, 0, 0, time.UTC)
	_, err := checkInAt(repo, "emp-1", oldIn)
	require.NoError(t, err)
	_, err = repo.Mutate(ctx, "emp-1", oldIn, attendance.MutateOptions{}, func(rec *attendance.AttendanceRecord) error {
		_, err := attendance.CheckOut(rec, oldIn.Add(8*time.Hour), "")
		return err
	})
	require.NoError(t, err)

	// Old record with a still-open session.
	_, err = checkInAt(repo, "emp-2", oldIn)
	require.NoError(t, err)

	// Recent record.
	_, err = checkInAt(repo, "emp-1", time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	purged, err := repo.DeleteClosedBefore(ctx, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	kept, err := repo.FindByEmployeeAndDate(ctx, "emp-2", oldIn)
	require.NoError(t, err)
	assert.NotNil(t, kept, "open sessions are never purged")
}
