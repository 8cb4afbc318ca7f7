package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
)

type PolicyHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
}

type policyHandlerImpl struct {
	policyStore policy.Store
}

func NewPolicyHandler(policyStore policy.Store) PolicyHandler {
	return &policyHandlerImpl{policyStore: policyStore}
}

type policyResponse struct {
	Timezone string `json:"timezone"`
	policy.Tables
}

func (h *policyHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	tables, err := h.policyStore.Tables(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, policyResponse{Timezone: tables.Loc().String(), Tables: tables},
		&response.Meta{PolicyVersion: tables.Version})
}
