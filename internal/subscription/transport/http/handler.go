package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"subvault/internal/api/dto"
	"subvault/internal/subscription"
	"subvault/internal/subscription/service"
	"subvault/pkg/middleware"
	"subvault/pkg/pda"
)

type Handler struct {
	SubscriptionService *service.Service
	ProgramID           pda.Address
}

func NewSubscriptionHandler(ss *service.Service, programID pda.Address) *Handler {
	return &Handler{SubscriptionService: ss, ProgramID: programID}
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	subscriber := r.Context().Value(middleware.WalletKey).(pda.Address)

	var req dto.SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := dto.Validate.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	creator, err := pda.AddressFromString(req.Creator)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid creator address")
		return
	}

	sub, err := h.SubscriptionService.Subscribe(r.Context(), subscriber, creator, req.PlanID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			errorResponse(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrCannotSubscribeToOwnPlan):
			errorResponse(w, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrAlreadySubscribed):
			errorResponse(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrInsufficientFunds):
			errorResponse(w, http.StatusPaymentRequired, err.Error())
		default:
			errorResponse(w, http.StatusInternalServerError, "failed to subscribe")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sub)
}

// Check reports whether the subscription at {address} is currently active.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	address, err := pda.AddressFromString(chi.URLParam(r, "address"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid subscription address")
		return
	}

	sub, err := h.SubscriptionService.Check(r.Context(), address)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubscriptionNotFound):
			errorResponse(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrSubscriptionExpired):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusGone)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"active":     false,
				"error":      err.Error(),
				"expires_at": sub.ExpiresAt,
			})
		default:
			errorResponse(w, http.StatusInternalServerError, "failed to check subscription")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"active":     true,
		"expires_at": sub.ExpiresAt,
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.SubscriptionService.List(r.Context())
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(subs)
}

type subscriptionStatus struct {
	subscription.Subscription
	Active bool `json:"active"`
}

func (h *Handler) ListMy(w http.ResponseWriter, r *http.Request) {
	subscriber := r.Context().Value(middleware.WalletKey).(pda.Address)

	subs, err := h.SubscriptionService.ListBySubscriber(r.Context(), subscriber)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to list subscriptions")
		return
	}
	now, err := h.SubscriptionService.Now(r.Context())
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to read ledger clock")
		return
	}

	out := make([]subscriptionStatus, 0, len(subs))
	for _, s := range subs {
		out = append(out, subscriptionStatus{Subscription: s, Active: s.IsActive(now)})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// DeriveAddress computes a subscription address from its identifying triple.
func (h *Handler) DeriveAddress(w http.ResponseWriter, r *http.Request) {
	subscriber, err := pda.AddressFromString(r.URL.Query().Get("subscriber"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid subscriber address")
		return
	}
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

	addr, bump, err := subscription.DeriveAddress(h.ProgramID, subscriber, creator, planID)
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
