package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mr-tron/base58"

	"subvault/internal/api/dto"
	"subvault/internal/ledger"
	"subvault/internal/wallet/service"
	"subvault/pkg/pda"
)

type Handler struct {
	WalletService *service.Service
	Ledger        ledger.Ledger
	FaucetEnabled bool
}

func NewWalletHandler(ws *service.Service, led ledger.Ledger, faucetEnabled bool) *Handler {
	return &Handler{WalletService: ws, Ledger: led, FaucetEnabled: faucetEnabled}
}

func (h *Handler) Challenge(w http.ResponseWriter, r *http.Request) {
	var req dto.ChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := dto.Validate.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	wallet, err := pda.AddressFromString(req.Address)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	nonce, err := h.WalletService.Challenge(wallet)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to issue challenge")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"nonce": nonce,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := dto.Validate.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	wallet, err := pda.AddressFromString(req.Address)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid wallet address")
		return
	}
	signature, err := base58.Decode(req.Signature)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid signature encoding")
		return
	}

	token, err := h.WalletService.Login(wallet, signature)
	if err != nil {
		if errors.Is(err, service.ErrChallengeNotFound) || errors.Is(err, service.ErrInvalidSignature) {
			errorResponse(w, http.StatusUnauthorized, err.Error())
			return
		}
		errorResponse(w, http.StatusInternalServerError, "login failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"address": wallet.String(),
		"token":   token,
	})
}

// Faucet airdrops lamports on dev deployments. Disabled in production config.
func (h *Handler) Faucet(w http.ResponseWriter, r *http.Request) {
	if !h.FaucetEnabled {
		errorResponse(w, http.StatusForbidden, "faucet disabled")
		return
	}

	var req dto.FaucetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := dto.Validate.Struct(req); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	wallet, err := pda.AddressFromString(req.Address)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid wallet address")
		return
	}

	if err := h.Ledger.Airdrop(r.Context(), wallet, req.Lamports); err != nil {
		errorResponse(w, http.StatusInternalServerError, "airdrop failed")
		return
	}

	balance, err := h.Ledger.Balance(r.Context(), wallet)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "airdrop failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"address": wallet.String(),
		"balance": balance,
	})
}

func errorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
