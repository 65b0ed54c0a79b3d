// Package handlers implements the reelgen HTTP API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"reelgen/internal/admission"
	"reelgen/internal/domain"
	"reelgen/internal/middleware"
)

// Admitter is the admission entry point.
type Admitter interface {
	Admit(ctx context.Context, req admission.Request) (*admission.Result, error)
}

// JobReader loads a job on behalf of its owner.
type JobReader interface {
	GetForUser(ctx context.Context, jobID, userID string) (*domain.VideoJob, error)
}

// BalanceReader reports a user's credit balance.
type BalanceReader interface {
	Balance(ctx context.Context, userID string) (int, error)
}

// Pinger reports dependency health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	Admission Admitter
	Jobs      JobReader
	Ledger    BalanceReader
	DB        Pinger
	Logger    zerolog.Logger
}

type errorPayload struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorPayload{Error: errorDetail{Code: code, Message: message}})
}

func (a *App) currentUser(r *http.Request) middleware.Identity {
	return middleware.IdentityFromContext(r.Context())
}
