package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/worklane/attendance-backend-go/internal/config"
	appHTTP "github.com/worklane/attendance-backend-go/internal/handler/http"
	"github.com/worklane/attendance-backend-go/internal/pkg/cron"
	"github.com/worklane/attendance-backend-go/internal/pkg/database"
	"github.com/worklane/attendance-backend-go/internal/pkg/jwt"
	"github.com/worklane/attendance-backend-go/internal/repository/postgresql"
	attendanceService "github.com/worklane/attendance-backend-go/internal/service/attendance"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(context.Background(), dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	attendanceRepo := postgresql.NewAttendanceRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo, attendanceService.Defaults{
		ExpectedCheckIn:  cfg.Attendance.ExpectedCheckIn,
		ExpectedCheckOut: cfg.Attendance.ExpectedCheckOut,
	})

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)

	scheduler := cron.NewScheduler()
	cron.NewRetentionJobs(attendanceRepo, cfg.Attendance.RetentionDays).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(JWTService, attendanceHandler, cfg.App.Env)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
