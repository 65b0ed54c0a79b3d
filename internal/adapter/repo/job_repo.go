package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reelgen/internal/domain"
	"reelgen/internal/infra"
	"reelgen/internal/sqlinline"
)

// JobRepository implements domain.JobStore on top of marked inline SQL. Every
// status change is a conditional update so a lost race surfaces as
// domain.ErrInvalidTransition instead of overwriting a newer state.
type JobRepository struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a job repository backed by PostgreSQL.
func NewJobRepository(sql infra.SQLExecutor) *JobRepository {
	return &JobRepository{sql: sql}
}

// InsertJob writes a new PENDING job. Used inside the admission transaction.
func (r *JobRepository) InsertJob(ctx context.Context, job *domain.VideoJob) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertVideoJob, job.ID, job.UserID, job.Prompt, job.Locale)
	return err
}

func (r *JobRepository) Get(ctx context.Context, jobID string) (*domain.VideoJob, error) {
	if !validJobID(jobID) {
		return nil, domain.ErrNotFound
	}
	return scanJob(r.sql.QueryRow(ctx, sqlinline.QSelectVideoJob, jobID))
}

// GetForUser hides jobs owned by someone else behind domain.ErrNotFound.
func (r *JobRepository) GetForUser(ctx context.Context, jobID, userID string) (*domain.VideoJob, error) {
	if !validJobID(jobID) {
		return nil, domain.ErrNotFound
	}
	return scanJob(r.sql.QueryRow(ctx, sqlinline.QSelectVideoJobForUser, jobID, userID))
}

// Claim moves a PENDING job to SCRIPTING. Only one caller can win; the others
// get domain.ErrAlreadyClaimed.
func (r *JobRepository) Claim(ctx context.Context, jobID string) (*domain.VideoJob, error) {
	job, err := scanJob(r.sql.QueryRow(ctx, sqlinline.QClaimVideoJob, jobID))
	if err == domain.ErrNotFound {
		return nil, domain.ErrAlreadyClaimed
	}
	return job, err
}

func (r *JobRepository) SaveScript(ctx context.Context, jobID string, scenes []domain.Scene, usage *domain.Usage) error {
	scenesJSON, err := json.Marshal(scenes)
	if err != nil {
		return fmt.Errorf("encode scenes: %w", err)
	}
	var usageJSON []byte
	if usage != nil {
		if usageJSON, err = json.Marshal(usage); err != nil {
			return fmt.Errorf("encode usage: %w", err)
		}
	}
	return r.transition(ctx, sqlinline.QSaveVideoScript, jobID, scenesJSON, usageJSON)
}

func (r *JobRepository) SaveAssets(ctx context.Context, jobID string, scenes []domain.Scene) error {
	scenesJSON, err := json.Marshal(scenes)
	if err != nil {
		return fmt.Errorf("encode scenes: %w", err)
	}
	return r.transition(ctx, sqlinline.QSaveVideoAssets, jobID, scenesJSON)
}

func (r *JobRepository) Complete(ctx context.Context, jobID, artifactRef string) error {
	return r.transition(ctx, sqlinline.QCompleteVideoJob, jobID, artifactRef)
}

func (r *JobRepository) Fail(ctx context.Context, jobID string, failure domain.Failure) error {
	return r.transition(ctx, sqlinline.QFailVideoJob, jobID, string(failure.Stage), string(failure.Kind), failure.Reason)
}

func (r *JobRepository) ListStalePending(ctx context.Context, before time.Time, limit int) ([]string, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSelectStalePendingJobs, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *JobRepository) transition(ctx context.Context, query, jobID string, args ...any) error {
	tag, err := r.sql.Exec(ctx, query, append([]any{jobID}, args...)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.VideoJob, error) {
	var (
		job           domain.VideoJob
		status        string
		scenesJSON    []byte
		usageJSON     []byte
		failureStage  string
		failureKind   string
		failureReason string
	)
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.Prompt,
		&job.Locale,
		&status,
		&scenesJSON,
		&usageJSON,
		&failureStage,
		&failureKind,
		&failureReason,
		&job.ArtifactRef,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	if len(scenesJSON) > 0 {
		if err := json.Unmarshal(scenesJSON, &job.Scenes); err != nil {
			return nil, fmt.Errorf("decode scenes: %w", err)
		}
	}
	if len(usageJSON) > 0 && string(usageJSON) != "null" {
		var usage domain.Usage
		if err := json.Unmarshal(usageJSON, &usage); err != nil {
			return nil, fmt.Errorf("decode usage: %w", err)
		}
		job.Usage = &usage
	}
	if job.Status == domain.JobStatusFailed {
		job.Failure = &domain.Failure{
			Stage:  domain.Stage(failureStage),
			Kind:   domain.FailureKind(failureKind),
			Reason: failureReason,
		}
	}
	return &job, nil
}

var _ domain.JobStore = (*JobRepository)(nil)

// validJobID rejects ids the uuid column cast would fail on.
func validJobID(jobID string) bool {
	_, err := uuid.Parse(jobID)
	return err == nil
}
