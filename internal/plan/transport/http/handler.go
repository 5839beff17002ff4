package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"subvault/internal/api/dto"
	"subvault/internal/plan"
	"subvault/internal/plan/service"
	"subvault/pkg/middleware"
	"subvault/pkg/pda"
)

type Handler struct {
	PlanService *service.Service
	ProgramID   pda.Address
}

func NewPlanHandler(ps *service.Service, programID pda.Address) *Handler {
	return &Handler{PlanService: ps, ProgramID: programID}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	creator := r.Context().Value(middleware.WalletKey).(pda.Address)

	var req dto.CreatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := dto.Validate.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.PlanService.Create(r.Context(), creator, req.PlanID, req.Name, req.Price, req.DurationDays)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanAlreadyExists):
			errorResponse(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrInsufficientFunds):
			errorResponse(w, http.StatusPaymentRequired, err.Error())
		case errors.Is(err, service.ErrEmptyName),
			errors.Is(err, service.ErrNameTooLong),
			errors.Is(err, service.ErrInvalidPrice),
			errors.Is(err, service.ErrPriceTooHigh),
			errors.Is(err, service.ErrInvalidDuration),
			errors.Is(err, service.ErrDurationTooLong):
			errorResponse(w, http.StatusBadRequest, err.Error())
		default:
			errorResponse(w, http.StatusInternalServerError, "failed to create plan")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(p)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.PlanService.List(r.Context())
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to list plans")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(plans)
}

func (h *Handler) ListMy(w http.ResponseWriter, r *http.Request) {
	creator := r.Context().Value(middleware.WalletKey).(pda.Address)

	plans, err := h.PlanService.ListByCreator(r.Context(), creator)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to list plans")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(plans)
}

// DeriveAddress lets any client compute a plan address from its identifying
// fields, no directory service involved.
func (h *Handler) DeriveAddress(w http.ResponseWriter, r *http.Request) {
	creator, err := pda.AddressFromString(r.URL.Query().Get("creator"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid creator address")
		return
	}
	planID, err := strconv.ParseUint(r.URL.Query().Get("plan_id"), 10, 64)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid plan_id")
		return
	}

	addr, bump, err := plan.DeriveAddress(h.ProgramID, creator, planID)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "address derivation failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"address": addr.String(),
		"bump":    bump,
	})
}

func errorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
