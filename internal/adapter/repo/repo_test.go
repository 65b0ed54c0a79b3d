package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelgen/internal/domain"
	"reelgen/internal/infra"
)

const testJobID = "6f1c0d2e-8a4b-4c7e-9f3a-2b5d7e9c1a04"

// scriptedExecutor answers QueryRow calls in order and records every call.
type scriptedExecutor struct {
	rows     []scriptedRow
	execTag  pgconn.CommandTag
	execErr  error
	calls    []call
	listRows []string
}

type call struct {
	query string
	args  []any
}

func (s *scriptedExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.calls = append(s.calls, call{query: query, args: args})
	return s.execTag, s.execErr
}

func (s *scriptedExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.calls = append(s.calls, call{query: query, args: args})
	if len(s.rows) == 0 {
		return scriptedRow{err: errors.New("unexpected query")}
	}
	row := s.rows[0]
	s.rows = s.rows[1:]
	return row
}

func (s *scriptedExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.calls = append(s.calls, call{query: query, args: args})
	return &idRows{ids: s.listRows, pos: -1}, nil
}

type scriptedRow struct {
	values []any
	err    error
}

func (r scriptedRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: got %d targets, have %d values", len(dest), len(r.values))
	}
	for i, v := range r.values {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int:
			*d = v.(int)
		case *bool:
			*d = v.(bool)
		case *[]byte:
			if v != nil {
				*d = v.([]byte)
			}
		case *time.Time:
			*d = v.(time.Time)
		default:
			return fmt.Errorf("scan: unsupported target %T", dest[i])
		}
	}
	return nil
}

type idRows struct {
	pgx.Rows
	ids []string
	pos int
}

func (r *idRows) Next() bool {
	r.pos++
	return r.pos < len(r.ids)
}

func (r *idRows) Scan(dest ...any) error {
	*(dest[0].(*string)) = r.ids[r.pos]
	return nil
}

func (r *idRows) Err() error { return nil }
func (r *idRows) Close()     {}

func TestReserveOne(t *testing.T) {
	exec := &scriptedExecutor{rows: []scriptedRow{{values: []any{3}}, {values: []any{2}}}}
	remaining, err := NewLedgerRepository(exec).ReserveOne(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
	require.Len(t, exec.calls, 2)
	assert.Contains(t, exec.calls[0].query, "for update")
}

func TestReserveOneErrors(t *testing.T) {
	t.Run("unknown user", func(t *testing.T) {
		exec := &scriptedExecutor{rows: []scriptedRow{{err: pgx.ErrNoRows}}}
		_, err := NewLedgerRepository(exec).ReserveOne(context.Background(), "ghost")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
	t.Run("empty balance", func(t *testing.T) {
		exec := &scriptedExecutor{rows: []scriptedRow{{values: []any{0}}}}
		remaining, err := NewLedgerRepository(exec).ReserveOne(context.Background(), "u1")
		assert.ErrorIs(t, err, domain.ErrInsufficientCredits)
		assert.Equal(t, 0, remaining)
		assert.Len(t, exec.calls, 1, "no decrement should be attempted")
	})
	t.Run("guard rejects decrement", func(t *testing.T) {
		exec := &scriptedExecutor{rows: []scriptedRow{{values: []any{1}}, {err: pgx.ErrNoRows}}}
		_, err := NewLedgerRepository(exec).ReserveOne(context.Background(), "u1")
		assert.ErrorIs(t, err, domain.ErrInsufficientCredits)
	})
}

func TestGrantValidatesAmount(t *testing.T) {
	ledger := NewLedgerRepository(&scriptedExecutor{})
	_, err := ledger.Grant(context.Background(), "u1", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	exec := &scriptedExecutor{rows: []scriptedRow{{values: []any{8}}}}
	credits, err := NewLedgerRepository(exec).Grant(context.Background(), "u1", 5)
	require.NoError(t, err)
	assert.Equal(t, 8, credits)
	assert.Equal(t, []any{"u1", 5}, exec.calls[0].args)
}

func TestRefundJob(t *testing.T) {
	t.Run("refunds failed job", func(t *testing.T) {
		exec := &scriptedExecutor{rows: []scriptedRow{{values: []any{"u1", 4}}}}
		user, credits, err := NewLedgerRepository(exec).RefundJob(context.Background(), "j1", 1)
		require.NoError(t, err)
		assert.Equal(t, "u1", user)
		assert.Equal(t, 4, credits)
	})
	t.Run("already refunded", func(t *testing.T) {
		exec := &scriptedExecutor{rows: []scriptedRow{{err: pgx.ErrNoRows}, {values: []any{"FAILED", true}}}}
		_, _, err := NewLedgerRepository(exec).RefundJob(context.Background(), "j1", 1)
		assert.ErrorIs(t, err, domain.ErrDuplicateOperation)
	})
	t.Run("not failed", func(t *testing.T) {
		exec := &scriptedExecutor{rows: []scriptedRow{{err: pgx.ErrNoRows}, {values: []any{"COMPLETE", false}}}}
		_, _, err := NewLedgerRepository(exec).RefundJob(context.Background(), "j1", 1)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
	t.Run("unknown job", func(t *testing.T) {
		exec := &scriptedExecutor{rows: []scriptedRow{{err: pgx.ErrNoRows}, {err: pgx.ErrNoRows}}}
		_, _, err := NewLedgerRepository(exec).RefundJob(context.Background(), "j1", 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func jobRow(status domain.JobStatus, scenes []domain.Scene, usage *domain.Usage, failure [3]string) scriptedRow {
	var scenesJSON, usageJSON []byte
	if scenes != nil {
		scenesJSON, _ = json.Marshal(scenes)
	}
	if usage != nil {
		usageJSON, _ = json.Marshal(usage)
	}
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return scriptedRow{values: []any{
		"job-1", "u1", "a prompt long enough", "en", string(status),
		scenesJSON, usageJSON, failure[0], failure[1], failure[2], "", now, now,
	}}
}

func TestClaim(t *testing.T) {
	exec := &scriptedExecutor{rows: []scriptedRow{jobRow(domain.JobStatusScripting, nil, nil, [3]string{})}}
	job, err := NewJobRepository(exec).Claim(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusScripting, job.Status)
	assert.Nil(t, job.Failure)

	exec = &scriptedExecutor{rows: []scriptedRow{{err: pgx.ErrNoRows}}}
	_, err = NewJobRepository(exec).Claim(context.Background(), "job-1")
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)
}

func TestGetDecodesScenesAndFailure(t *testing.T) {
	scenes := []domain.Scene{{ImagePrompt: "sunrise", ContentText: "hello"}}
	usage := &domain.Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30}
	exec := &scriptedExecutor{rows: []scriptedRow{
		jobRow(domain.JobStatusFailed, scenes, usage, [3]string{"RENDERING", "TIMEOUT", "deadline"}),
	}}
	job, err := NewJobRepository(exec).Get(context.Background(), testJobID)
	require.NoError(t, err)
	assert.Equal(t, scenes, job.Scenes)
	assert.Equal(t, usage, job.Usage)
	require.NotNil(t, job.Failure)
	assert.Equal(t, domain.StageRendering, job.Failure.Stage)
	assert.Equal(t, domain.FailureTimeout, job.Failure.Kind)
}

func TestGetForUserMissing(t *testing.T) {
	exec := &scriptedExecutor{rows: []scriptedRow{{err: pgx.ErrNoRows}}}
	_, err := NewJobRepository(exec).GetForUser(context.Background(), testJobID, "other")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetMalformedIDIsNotFound(t *testing.T) {
	exec := &scriptedExecutor{}
	repo := NewJobRepository(exec)
	_, err := repo.GetForUser(context.Background(), "not-a-uuid", "owner")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.Get(context.Background(), "job-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, exec.calls, "malformed ids must not reach the database")
}

func TestTransitionsRequireAffectedRow(t *testing.T) {
	exec := &scriptedExecutor{execTag: pgconn.NewCommandTag("UPDATE 0")}
	repo := NewJobRepository(exec)
	err := repo.SaveScript(context.Background(), "job-1", []domain.Scene{{ImagePrompt: "a", ContentText: "b"}}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	exec.execTag = pgconn.NewCommandTag("UPDATE 1")
	require.NoError(t, repo.Complete(context.Background(), "job-1", "artifacts/job-1.zip"))
	last := exec.calls[len(exec.calls)-1]
	assert.Equal(t, []any{"job-1", "artifacts/job-1.zip"}, last.args)

	require.NoError(t, repo.Fail(context.Background(), "job-1", domain.Failure{
		Stage: domain.StageScripting, Kind: domain.FailureUnauthorized, Reason: "bad key",
	}))
	last = exec.calls[len(exec.calls)-1]
	assert.Equal(t, []any{"job-1", "SCRIPTING", "UNAUTHORIZED", "bad key"}, last.args)
}

func TestListStalePending(t *testing.T) {
	exec := &scriptedExecutor{listRows: []string{"a", "b"}}
	before := time.Now()
	ids, err := NewJobRepository(exec).ListStalePending(context.Background(), before, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.Equal(t, []any{before, 10}, exec.calls[0].args)
}

type fakeTxRunner struct {
	exec      *scriptedExecutor
	committed bool
}

func (f *fakeTxRunner) InTx(ctx context.Context, fn func(infra.SQLExecutor) error) error {
	if err := fn(f.exec); err != nil {
		return err
	}
	f.committed = true
	return nil
}

func TestAdmissionStoreRunsInOneTx(t *testing.T) {
	exec := &scriptedExecutor{rows: []scriptedRow{{values: []any{1}}, {values: []any{0}}}}
	runner := &fakeTxRunner{exec: exec}
	store := NewAdmissionStore(runner)

	err := store.WithinTx(context.Background(), func(tx domain.AdmissionTx) error {
		remaining, err := tx.ReserveOne(context.Background(), "u1")
		if err != nil {
			return err
		}
		assert.Equal(t, 0, remaining)
		return tx.InsertJob(context.Background(), &domain.VideoJob{ID: "job-1", UserID: "u1", Prompt: "p", Locale: "en"})
	})
	require.NoError(t, err)
	assert.True(t, runner.committed)
	require.Len(t, exec.calls, 3)
	assert.True(t, strings.Contains(exec.calls[2].query, "insert into video_jobs"))
}
