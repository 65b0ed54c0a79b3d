package handlers

import (
	"errors"
	"net/http"

	"reelgen/internal/admission"
	"reelgen/internal/domain"
)

const lowCreditThreshold = 5

type creditsResponse struct {
	Credits int    `json:"credits"`
	State   string `json:"state"`
}

// creditState buckets a balance for display. It never gates admission.
func creditState(credits int) string {
	switch {
	case credits <= 0:
		return "empty"
	case credits <= lowCreditThreshold:
		return "low"
	default:
		return "ok"
	}
}

func (a *App) MyCredits(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(r)
	if user.UserID == "" {
		a.error(w, http.StatusUnauthorized, admission.CodeUnauthenticated, "Authentication required")
		return
	}
	credits, err := a.Ledger.Balance(r.Context(), user.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		credits, err = 0, nil
	}
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", user.UserID).Msg("credits: balance failed")
		a.error(w, http.StatusInternalServerError, admission.CodeInternal, "Failed to load credits")
		return
	}
	a.json(w, http.StatusOK, creditsResponse{Credits: credits, State: creditState(credits)})
}
