package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

type PayrollHandler interface {
	// Runs
	RunBatch(w http.ResponseWriter, r *http.Request)

	// Records
	Finalize(w http.ResponseWriter, r *http.Request)
	GetRecord(w http.ResponseWriter, r *http.Request)
	ListRecords(w http.ResponseWriter, r *http.Request)

	// Adjustments
	UpsertAdjustments(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

func monthParam(r *http.Request) (period.Period, map[string]string, bool) {
	month, err := period.Parse(chi.URLParam(r, "month"))
	if err != nil {
		return period.Period{}, map[string]string{"month": err.Error()}, false
	}
	return month, nil, true
}

// ========== RUNS ==========

func (h *payrollHandlerImpl) RunBatch(w http.ResponseWriter, r *http.Request) {
	var req payroll.RunBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.RunBatch(r.Context(), req)
	if err != nil {
		// An aborted batch still reports what was committed before the outage.
		if errors.Is(err, payroll.ErrStoreUnavailable) && result.Aborted {
			response.ServiceUnavailable(w, "Payroll batch aborted: record store unavailable", result)
			return
		}
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll batch completed", result)
}

// ========== RECORDS ==========

func (h *payrollHandlerImpl) Finalize(w http.ResponseWriter, r *http.Request) {
	month, details, ok := monthParam(r)
	if !ok {
		response.BadRequest(w, "Invalid month, expected YYYY-MM", details)
		return
	}

	override := false
	if raw := r.URL.Query().Get("override"); raw != "" {
		var err error
		if override, err = strconv.ParseBool(raw); err != nil {
			response.BadRequest(w, "override must be true or false", nil)
			return
		}
	}

	result, err := h.payrollService.Finalize(r.Context(), payroll.FinalizeRequest{
		EmployeeID: chi.URLParam(r, "employeeID"),
		Month:      month,
		Override:   override,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	switch result.Outcome {
	case payroll.OutcomeInserted:
		response.Created(w, "Salary record finalized", result)
	case payroll.OutcomeReplaced:
		response.SuccessWithMessage(w, "Salary record replaced", result)
	default:
		response.SuccessWithMessage(w, "Salary record skipped", result)
	}
}

func (h *payrollHandlerImpl) GetRecord(w http.ResponseWriter, r *http.Request) {
	month, details, ok := monthParam(r)
	if !ok {
		response.BadRequest(w, "Invalid month, expected YYYY-MM", details)
		return
	}

	result, err := h.payrollService.GetRecord(r.Context(), chi.URLParam(r, "employeeID"), month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ListRecords(w http.ResponseWriter, r *http.Request) {
	month, err := period.Parse(r.URL.Query().Get("month"))
	if err != nil {
		response.BadRequest(w, "Invalid month, expected YYYY-MM", map[string]string{"month": err.Error()})
		return
	}

	result, err := h.payrollService.ListRecords(r.Context(), month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result, &response.Meta{TotalItems: len(result)})
}

// ========== ADJUSTMENTS ==========

func (h *payrollHandlerImpl) UpsertAdjustments(w http.ResponseWriter, r *http.Request) {
	month, details, ok := monthParam(r)
	if !ok {
		response.BadRequest(w, "Invalid month, expected YYYY-MM", details)
		return
	}

	var req payroll.AdjustmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.EmployeeID = chi.URLParam(r, "employeeID")
	req.Month = month

	result, err := h.payrollService.UpsertAdjustments(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Adjustments saved", result)
}
