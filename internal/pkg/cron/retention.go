package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/worklane/attendance-backend-go/internal/domain/attendance"
)

// RetentionJobs purges old, closed attendance records. Records with an open
// session are never purged regardless of age.
type RetentionJobs struct {
	attendanceRepo attendance.AttendanceRepository
	retentionDays  int
}

func NewRetentionJobs(attendanceRepo attendance.AttendanceRepository, retentionDays int) *RetentionJobs {
	return &RetentionJobs{
		attendanceRepo: attendanceRepo,
		retentionDays:  retentionDays,
	}
}

func (j *RetentionJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("purge_old_attendance_records", 24*time.Hour, j.PurgeOldRecords)
}

func (j *RetentionJobs) PurgeOldRecords(ctx context.Context) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -j.retentionDays)

	purged, err := j.attendanceRepo.DeleteClosedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge old attendance records: %w", err)
	}

	if purged > 0 {
		slog.Info("Cron: Purged old attendance records", "count", purged, "cutoff", cutoff.Format("2006-01-02"))
	}
	return nil
}
