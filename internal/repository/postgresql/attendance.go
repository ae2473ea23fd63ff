package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/worklane/attendance-backend-go/internal/domain/attendance"
	"github.com/worklane/attendance-backend-go/internal/pkg/database"
)

// attendanceRepository stores one row per (employee_id, date). Sessions and
// breaks live in JSONB columns so the whole record is the atomic unit; the
// mutating path locks the row with SELECT ... FOR UPDATE, which serializes
// concurrent transitions on the same record.
type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const recordColumns = `
	id, employee_id, date, sessions, breaks, status,
	total_hours, working_hours, overtime_hours, total_break_minutes,
	is_late_check_in, is_early_check_out,
	expected_check_in, expected_check_out, notes,
	created_at, updated_at
`

// Mutate implements attendance.AttendanceRepository.
func (a *attendanceRepository) Mutate(ctx context.Context, employeeID string, date time.Time, opts attendance.MutateOptions, fn func(*attendance.AttendanceRecord) error) (attendance.AttendanceRecord, error) {
	day := attendance.Midnight(date.UTC())

	var result attendance.AttendanceRecord
	err := WithTransaction(ctx, a.db, func(tx pgx.Tx) error {
		rec, err := a.lockRecord(ctx, tx, employeeID, day)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("failed to lock attendance record: %w", err)
			}
			if !opts.CreateIfMissing {
				return attendance.ErrRecordNotFound
			}
			rec, err = a.insertRecord(ctx, tx, employeeID, day, opts)
			if err != nil {
				return fmt.Errorf("failed to create attendance record: %w", err)
			}
		}

		if err := attendance.Validate(rec); err != nil {
			return err
		}

		if err := fn(rec); err != nil {
			return err
		}

		if err := a.updateRecord(ctx, tx, rec); err != nil {
			return fmt.Errorf("failed to save attendance record: %w", err)
		}

		result = *rec
		return nil
	})
	if err != nil {
		return attendance.AttendanceRecord{}, err
	}
	return result, nil
}

func (a *attendanceRepository) lockRecord(ctx context.Context, tx pgx.Tx, employeeID string, day time.Time) (*attendance.AttendanceRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE employee_id = $1 AND date = $2
		FOR UPDATE
	`
	return scanRecord(tx.QueryRow(ctx, query, employeeID, day))
}

func (a *attendanceRepository) insertRecord(ctx context.Context, tx pgx.Tx, employeeID string, day time.Time, opts attendance.MutateOptions) (*attendance.AttendanceRecord, error) {
	rec := attendance.NewRecord(employeeID, day, opts.ExpectedCheckIn, opts.ExpectedCheckOut)
	rec.ID = uuid.NewString()

	sessions, breaks, err := marshalIntervals(rec)
	if err != nil {
		return nil, err
	}

	// ON CONFLICT keeps first-check-in races harmless: if another request
	// created the row between our lock attempt and this insert, fall back
	// to locking the existing row.
	query := `
		INSERT INTO attendance_records (
			id, employee_id, date, sessions, breaks, status,
			total_hours, working_hours, overtime_hours, total_break_minutes,
			is_late_check_in, is_early_check_out,
			expected_check_in, expected_check_out, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
		ON CONFLICT (employee_id, date) DO NOTHING
		RETURNING created_at, updated_at
	`
	err = tx.QueryRow(ctx, query,
		rec.ID, rec.EmployeeID, rec.Date, sessions, breaks, string(rec.Status),
		rec.TotalHours, rec.WorkingHours, rec.OvertimeHours, rec.TotalBreakMinutes,
		rec.IsLateCheckIn, rec.IsEarlyCheckOut,
		rec.ExpectedCheckIn, rec.ExpectedCheckOut, rec.Notes,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return a.lockRecord(ctx, tx, employeeID, day)
		}
		return nil, err
	}

	return rec, nil
}

func (a *attendanceRepository) updateRecord(ctx context.Context, tx pgx.Tx, rec *attendance.AttendanceRecord) error {
	sessions, breaks, err := marshalIntervals(rec)
	if err != nil {
		return err
	}

	touchUpdatedAt(rec)

	query := `
		UPDATE attendance_records
		SET sessions = $1, breaks = $2, status = $3,
			total_hours = $4, working_hours = $5, overtime_hours = $6,
			total_break_minutes = $7, is_late_check_in = $8, is_early_check_out = $9,
			notes = $10, updated_at = $11
		WHERE id = $12
	`
	tag, err := tx.Exec(ctx, query,
		sessions, breaks, string(rec.Status),
		rec.TotalHours, rec.WorkingHours, rec.OvertimeHours,
		rec.TotalBreakMinutes, rec.IsLateCheckIn, rec.IsEarlyCheckOut,
		rec.Notes, rec.UpdatedAt,
		rec.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrRecordNotFound
	}
	return nil
}

// touchUpdatedAt is the explicit write-path step that stamps the record
// before persistence; nothing updates this field implicitly.
func touchUpdatedAt(rec *attendance.AttendanceRecord) {
	rec.UpdatedAt = time.Now().UTC()
}

// FindByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) FindByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)
	day := attendance.Midnight(date.UTC())

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE employee_id = $1 AND date = $2
	`
	rec, err := scanRecord(q.QueryRow(ctx, query, employeeID, day))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance record: %w", err)
	}
	return rec, nil
}

// FindRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) FindRange(ctx context.Context, employeeID string, start, end time.Time) ([]attendance.AttendanceRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE employee_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date DESC
	`
	rows, err := q.Query(ctx, query, employeeID, attendance.Midnight(start.UTC()), attendance.Midnight(end.UTC()))
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	var records []attendance.AttendanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// DeleteClosedBefore implements attendance.AttendanceRepository.
func (a *attendanceRepository) DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	q := GetQuerier(ctx, a.db)

	// Records with an open session are never purged, whatever their age.
	query := `
		DELETE FROM attendance_records
		WHERE date < $1
		  AND NOT EXISTS (
			SELECT 1 FROM jsonb_array_elements(sessions) s
			WHERE s->>'check_out_time' IS NULL
		  )
	`
	tag, err := q.Exec(ctx, query, attendance.Midnight(cutoff.UTC()))
	if err != nil {
		return 0, fmt.Errorf("failed to purge attendance records: %w", err)
	}
	return tag.RowsAffected(), nil
}

func marshalIntervals(rec *attendance.AttendanceRecord) (sessions, breaks []byte, err error) {
	sessions, err = json.Marshal(rec.Sessions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal sessions: %w", err)
	}
	breaks, err = json.Marshal(rec.Breaks)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal breaks: %w", err)
	}
	return sessions, breaks, nil
}

func scanRecord(row pgx.Row) (*attendance.AttendanceRecord, error) {
	var rec attendance.AttendanceRecord
	var sessions, breaks []byte
	var status string

	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.Date, &sessions, &breaks, &status,
		&rec.TotalHours, &rec.WorkingHours, &rec.OvertimeHours, &rec.TotalBreakMinutes,
		&rec.IsLateCheckIn, &rec.IsEarlyCheckOut,
		&rec.ExpectedCheckIn, &rec.ExpectedCheckOut, &rec.Notes,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Status = attendance.Status(status)
	if err := json.Unmarshal(sessions, &rec.Sessions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sessions: %w", err)
	}
	if err := json.Unmarshal(breaks, &rec.Breaks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal breaks: %w", err)
	}
	return &rec, nil
}
