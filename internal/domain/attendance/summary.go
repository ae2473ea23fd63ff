package attendance

// MonthlySummary aggregates one employee's records over a calendar month.
type MonthlySummary struct {
	EmployeeID            string  `json:"employee_id"`
	Year                  int     `json:"year"`
	Month                 int     `json:"month"`
	TotalDays             int     `json:"total_days"`
	PresentDays           int     `json:"present_days"`
	LateDays              int     `json:"late_days"`
	HalfDays              int     `json:"half_days"`
	AbsentDays            int     `json:"absent_days"`
	EarlyCheckoutDays     int     `json:"early_checkout_days"`
	TotalWorkingHours     float64 `json:"total_working_hours"`
	TotalOvertimeHours    float64 `json:"total_overtime_hours"`
	TotalSessions         int     `json:"total_sessions"`
	AverageSessionsPerDay float64 `json:"average_sessions_per_day"`
}

// BuildMonthlySummary folds a month's records into per-status day counts and
// hour totals. Records are counted as-is; no rederivation happens here.
func BuildMonthlySummary(employeeID string, year, month int, records []AttendanceRecord) MonthlySummary {
	summary := MonthlySummary{
		EmployeeID: employeeID,
		Year:       year,
		Month:      month,
		TotalDays:  len(records),
	}

	for i := range records {
		rec := &records[i]
		switch rec.Status {
		case StatusPresent:
			summary.PresentDays++
		case StatusLate:
			summary.LateDays++
		case StatusHalfDay:
			summary.HalfDays++
		case StatusAbsent:
			summary.AbsentDays++
		case StatusEarlyCheckout:
			summary.EarlyCheckoutDays++
		}
		summary.TotalWorkingHours += rec.WorkingHours
		summary.TotalOvertimeHours += rec.OvertimeHours
		summary.TotalSessions += len(rec.Sessions)
	}

	if summary.TotalDays > 0 {
		summary.AverageSessionsPerDay = float64(summary.TotalSessions) / float64(summary.TotalDays)
	}
	return summary
}
