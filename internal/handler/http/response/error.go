package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/worklane/attendance-backend-go/internal/domain/attendance"
	"github.com/worklane/attendance-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses. Business-rule rejections
// become 4xx with their own message; everything else is an infrastructure
// fault and surfaces as a generic 500 with the detail only logged.
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		Conflict(w, "Already checked in, check out first")
	case errors.Is(err, attendance.ErrNoActiveSession):
		BadRequest(w, "No active check-in found", nil)
	case errors.Is(err, attendance.ErrCheckOutBeforeCheckIn):
		BadRequest(w, "Check-out time cannot be before check-in time", nil)
	case errors.Is(err, attendance.ErrOutOfOrderEvent):
		BadRequest(w, "Event time is earlier than the previous event", nil)
	case errors.Is(err, attendance.ErrBreakInProgress):
		Conflict(w, "A break is already in progress, end it first")
	case errors.Is(err, attendance.ErrNoActiveBreak):
		BadRequest(w, "No break in progress", nil)
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")

	// Corrupt records indicate a concurrency bug, not a user mistake.
	case errors.Is(err, attendance.ErrCorruptRecord):
		slog.Error("Corrupt attendance record detected", "error", err)
		InternalServerError(w, "An unexpected error occurred")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
