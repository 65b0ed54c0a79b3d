package repo

import (
	"context"

	"reelgen/internal/domain"
	"reelgen/internal/infra"
)

// AdmissionStore binds the ledger and job repositories to one transaction so
// the credit decrement and the job insert commit or roll back together.
type AdmissionStore struct {
	tx infra.TxRunner
}

func NewAdmissionStore(tx infra.TxRunner) *AdmissionStore {
	return &AdmissionStore{tx: tx}
}

func (s *AdmissionStore) WithinTx(ctx context.Context, fn func(domain.AdmissionTx) error) error {
	return s.tx.InTx(ctx, func(exec infra.SQLExecutor) error {
		return fn(admissionTx{
			LedgerRepository: NewLedgerRepository(exec),
			JobRepository:    NewJobRepository(exec),
		})
	})
}

type admissionTx struct {
	*LedgerRepository
	*JobRepository
}

var _ domain.AdmissionStore = (*AdmissionStore)(nil)
