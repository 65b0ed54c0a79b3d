package repo

import (
	"context"
	"fmt"
	"strings"

	"reelgen/internal/domain"
	"reelgen/internal/infra"
	"reelgen/internal/sqlinline"
)

// LedgerRepository owns credit balances. Inside an admission transaction it is
// constructed on the transaction's executor so ReserveOne holds the row lock.
type LedgerRepository struct {
	sql infra.SQLExecutor
}

// NewLedgerRepository creates a ledger backed by the given executor.
func NewLedgerRepository(sql infra.SQLExecutor) *LedgerRepository {
	return &LedgerRepository{sql: sql}
}

// EnsureUser creates the ledger row for a newly observed identity. Existing
// rows are left untouched.
func (r *LedgerRepository) EnsureUser(ctx context.Context, userID, email string, initialCredits int) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrUnauthorized
	}
	if initialCredits < 0 {
		initialCredits = 0
	}
	_, err := r.sql.Exec(ctx, sqlinline.QEnsureUser, userID, strings.TrimSpace(email), initialCredits)
	return err
}

// ReserveOne locks the user's row, checks the balance and decrements it by
// one. It must run inside a transaction.
func (r *LedgerRepository) ReserveOne(ctx context.Context, userID string) (int, error) {
	var balance int
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectCreditsForUpdate, userID).Scan(&balance); err != nil {
		if infra.IsNoRows(err) {
			return 0, domain.ErrUserNotFound
		}
		return 0, fmt.Errorf("read balance: %w", err)
	}
	if balance < 1 {
		return balance, domain.ErrInsufficientCredits
	}
	var remaining int
	if err := r.sql.QueryRow(ctx, sqlinline.QDecrementCredit, userID).Scan(&remaining); err != nil {
		if infra.IsNoRows(err) {
			return balance, domain.ErrInsufficientCredits
		}
		return 0, fmt.Errorf("decrement balance: %w", err)
	}
	return remaining, nil
}

// Balance is a snapshot read for display only.
func (r *LedgerRepository) Balance(ctx context.Context, userID string) (int, error) {
	var credits int
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectCredits, userID).Scan(&credits); err != nil {
		if infra.IsNoRows(err) {
			return 0, domain.ErrUserNotFound
		}
		return 0, err
	}
	return credits, nil
}

// Grant adds purchased or promotional credits.
func (r *LedgerRepository) Grant(ctx context.Context, userID string, amount int) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, domain.ErrUserNotFound
	}
	if amount < 1 {
		return 0, domain.ErrInvalidAmount
	}
	var credits int
	if err := r.sql.QueryRow(ctx, sqlinline.QGrantCredits, userID, amount).Scan(&credits); err != nil {
		if infra.IsNoRows(err) {
			return 0, domain.ErrUserNotFound
		}
		return 0, err
	}
	return credits, nil
}

// RefundJob credits the owner of a FAILED job at most once and returns the
// owner and new balance.
func (r *LedgerRepository) RefundJob(ctx context.Context, jobID string, amount int) (string, int, error) {
	if amount < 1 {
		return "", 0, domain.ErrInvalidAmount
	}
	var (
		userID  string
		credits int
	)
	err := r.sql.QueryRow(ctx, sqlinline.QRefundFailedJob, jobID, amount).Scan(&userID, &credits)
	if err == nil {
		return userID, credits, nil
	}
	if !infra.IsNoRows(err) {
		return "", 0, err
	}

	var (
		status   string
		refunded bool
	)
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectJobRefundState, jobID).Scan(&status, &refunded); err != nil {
		if infra.IsNoRows(err) {
			return "", 0, domain.ErrNotFound
		}
		return "", 0, err
	}
	if refunded {
		return "", 0, domain.ErrDuplicateOperation
	}
	return "", 0, fmt.Errorf("%w: job is %s", domain.ErrInvalidTransition, status)
}

var _ domain.CreditLedger = (*LedgerRepository)(nil)
