package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/worklane/attendance-backend-go/internal/domain/attendance"
	"github.com/worklane/attendance-backend-go/internal/handler/http/response"
)

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	StartBreak(w http.ResponseWriter, r *http.Request)
	EndBreak(w http.ResponseWriter, r *http.Request)
	Today(w http.ResponseWriter, r *http.Request)
	Summary(w http.ResponseWriter, r *http.Request)
	Report(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// CheckIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req attendance.CheckInRequest

	// Body is optional; check-in without notes is the common case.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.CheckIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Checked in", result)
}

// CheckOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	var req attendance.CheckOutRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.attendanceService.CheckOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Checked out", result)
}

// StartBreak implements AttendanceHandler.
func (h *attendanceHandlerImpl) StartBreak(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.StartBreak(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Break started", result)
}

// EndBreak implements AttendanceHandler.
func (h *attendanceHandlerImpl) EndBreak(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.EndBreak(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Break ended", result)
}

// Today implements AttendanceHandler.
func (h *attendanceHandlerImpl) Today(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.Today(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Summary implements AttendanceHandler.
func (h *attendanceHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	filter := attendance.SummaryFilter{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if y := r.URL.Query().Get("year"); y != "" {
		if year, err := strconv.Atoi(y); err == nil {
			filter.Year = year
		}
	}
	if m := r.URL.Query().Get("month"); m != "" {
		if month, err := strconv.Atoi(m); err == nil {
			filter.Month = month
		}
	}

	result, err := h.attendanceService.MonthlySummary(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Report implements AttendanceHandler.
func (h *attendanceHandlerImpl) Report(w http.ResponseWriter, r *http.Request) {
	filter := attendance.ReportFilter{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	}

	result, err := h.attendanceService.Report(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
