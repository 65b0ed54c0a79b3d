package domain

import "time"

// LowCreditThreshold is the balance at or below which a user is warned.
const LowCreditThreshold = 5

// CreditState buckets a balance for display.
type CreditState string

const (
	CreditStateEmpty CreditState = "empty"
	CreditStateLow   CreditState = "low"
	CreditStateOK    CreditState = "ok"
)

// User is the ledger view of an external identity.
type User struct {
	ID        string
	Email     string
	Credits   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StateOf classifies a credit balance.
func StateOf(credits int) CreditState {
	switch {
	case credits <= 0:
		return CreditStateEmpty
	case credits <= LowCreditThreshold:
		return CreditStateLow
	default:
		return CreditStateOK
	}
}
