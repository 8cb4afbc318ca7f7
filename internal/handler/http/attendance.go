package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

type AttendanceHandler interface {
	Capture(w http.ResponseWriter, r *http.Request)
	RecordManual(w http.ResponseWriter, r *http.Request)
	GetMonthly(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{attendanceService: attendanceService}
}

func (h *attendanceHandlerImpl) Capture(w http.ResponseWriter, r *http.Request) {
	var req attendance.CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.attendanceService.Capture(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if result.Action == attendance.ActionCheckIn {
		response.Created(w, "Checked in", result)
		return
	}
	response.SuccessWithMessage(w, "Checked out", result)
}

func (h *attendanceHandlerImpl) RecordManual(w http.ResponseWriter, r *http.Request) {
	var req attendance.ManualEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.attendanceService.RecordManual(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Manual attendance recorded", result)
}

func (h *attendanceHandlerImpl) GetMonthly(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	month, err := period.Parse(r.URL.Query().Get("month"))
	if err != nil {
		response.BadRequest(w, "Invalid month, expected YYYY-MM", map[string]string{"month": err.Error()})
		return
	}

	result, err := h.attendanceService.MonthlyAttendance(r.Context(), employeeID, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
