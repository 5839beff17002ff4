package dto

import "github.com/go-playground/validator/v10"

// Addresses and signatures travel as base58 strings. Numeric constraints are
// checked by the services so the caller gets the precise violated rule, not a
// generic tag failure; plan_id zero is a perfectly valid id.

type CreatePlanRequest struct {
	PlanID       uint64 `json:"plan_id"`
	Name         string `json:"name"`
	Price        uint64 `json:"price"`
	DurationDays uint32 `json:"duration_days"`
}

type SubscribeRequest struct {
	Creator string `json:"creator" validate:"required"`
	PlanID  uint64 `json:"plan_id"`
}

type ChallengeRequest struct {
	Address string `json:"address" validate:"required"`
}

type LoginRequest struct {
	Address   string `json:"address" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

type FaucetRequest struct {
	Address  string `json:"address" validate:"required"`
	Lamports uint64 `json:"lamports" validate:"required"`
}

var Validate = validator.New()
