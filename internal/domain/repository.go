package domain

import (
	"context"
	"time"
)

// CreditLedger exposes balance operations that happen outside admission.
// Admission itself reserves credits through a transactional store.
type CreditLedger interface {
	EnsureUser(ctx context.Context, userID, email string, initialCredits int) error
	Balance(ctx context.Context, userID string) (int, error)
	Grant(ctx context.Context, userID string, amount int) (int, error)
	RefundJob(ctx context.Context, jobID string, amount int) (string, int, error)
}

// JobStore persists video jobs and guards their status transitions.
// Every mutating method is conditional on the current status and returns
// ErrInvalidTransition when the job is not in the expected state.
type JobStore interface {
	Get(ctx context.Context, jobID string) (*VideoJob, error)
	GetForUser(ctx context.Context, jobID, userID string) (*VideoJob, error)
	Claim(ctx context.Context, jobID string) (*VideoJob, error)
	SaveScript(ctx context.Context, jobID string, scenes []Scene, usage *Usage) error
	SaveAssets(ctx context.Context, jobID string, scenes []Scene) error
	Complete(ctx context.Context, jobID, artifactRef string) error
	Fail(ctx context.Context, jobID string, failure Failure) error
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]string, error)
}

// AdmissionTx is the view of the ledger and job store available inside the
// admission transaction.
type AdmissionTx interface {
	ReserveOne(ctx context.Context, userID string) (remaining int, err error)
	InsertJob(ctx context.Context, job *VideoJob) error
}

// AdmissionStore runs fn atomically: every write made through the AdmissionTx
// commits when fn returns nil and rolls back otherwise.
type AdmissionStore interface {
	WithinTx(ctx context.Context, fn func(AdmissionTx) error) error
}
