// Package admission validates video requests and turns them into PENDING jobs,
// charging exactly one credit in the same transaction as the job insert.
package admission

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"reelgen/internal/domain"
	"reelgen/internal/metrics"
)

const (
	MinPromptLength = 10
	MaxPromptLength = 500

	dispatchTimeout = 3 * time.Second
)

// Dispatcher hands a committed job to the pipeline. Failures are tolerated;
// the stale-pending sweep picks the job up later.
type Dispatcher interface {
	Dispatch(ctx context.Context, jobID string) error
}

// Provisioner creates a ledger row for a user seen for the first time.
type Provisioner interface {
	EnsureUser(ctx context.Context, userID, email string, initialCredits int) error
}

type Options struct {
	AutoProvision  bool
	NewUserCredits int
}

type Controller struct {
	store       domain.AdmissionStore
	provisioner Provisioner
	dispatcher  Dispatcher
	opts        Options
	logger      zerolog.Logger
	newID       func() string
}

func NewController(store domain.AdmissionStore, provisioner Provisioner, dispatcher Dispatcher, opts Options, logger zerolog.Logger) *Controller {
	return &Controller{
		store:       store,
		provisioner: provisioner,
		dispatcher:  dispatcher,
		opts:        opts,
		logger:      logger,
		newID:       func() string { return uuid.NewString() },
	}
}

// Request carries the raw prompt as received. Prompt is typed any because
// the transport may hand over a non-string JSON value.
type Request struct {
	Prompt any
	UserID string
	Email  string
	Locale string
}

type Result struct {
	JobID            string
	RemainingCredits int
	Dispatched       bool
}

// Admit validates the request, reserves one credit and inserts the job in a
// single transaction, then dispatches the job without waiting for it.
func (c *Controller) Admit(ctx context.Context, req Request) (*Result, error) {
	prompt, verr := ValidatePrompt(req.Prompt)
	if verr != nil {
		metrics.Admission(verr.Code)
		return nil, verr
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		metrics.Admission(CodeUnauthenticated)
		return nil, newError(CodeUnauthenticated, "Authentication required. Please sign in to create videos", domain.ErrUnauthorized)
	}

	if c.opts.AutoProvision && c.provisioner != nil {
		if err := c.provisioner.EnsureUser(ctx, userID, req.Email, c.opts.NewUserCredits); err != nil {
			c.logger.Error().Err(err).Str("user_id", userID).Msg("admission: provision user failed")
			metrics.Admission(CodeInternal)
			return nil, newError(CodeInternal, "Failed to create video. Please try again.", err)
		}
	}

	job := &domain.VideoJob{
		ID:     c.newID(),
		UserID: userID,
		Prompt: prompt,
		Locale: req.Locale,
		Status: domain.JobStatusPending,
	}
	var remaining int
	err := c.store.WithinTx(ctx, func(tx domain.AdmissionTx) error {
		left, err := tx.ReserveOne(ctx, userID)
		if err != nil {
			return err
		}
		if err := tx.InsertJob(ctx, job); err != nil {
			return err
		}
		remaining = left
		return nil
	})
	if err != nil {
		aerr := classify(err)
		if aerr.Code == CodeInternal {
			c.logger.Error().Err(err).Str("user_id", userID).Msg("admission: transaction failed")
		}
		metrics.Admission(aerr.Code)
		return nil, aerr
	}
	metrics.Admission("admitted")
	c.logger.Info().Str("job_id", job.ID).Str("user_id", userID).Int("remaining_credits", remaining).Msg("admission: job created")

	res := &Result{JobID: job.ID, RemainingCredits: remaining}
	if c.dispatcher != nil {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
		defer cancel()
		if err := c.dispatcher.Dispatch(dctx, job.ID); err != nil {
			c.logger.Warn().Err(err).Str("job_id", job.ID).Msg("admission: dispatch failed, left for sweep")
		} else {
			res.Dispatched = true
		}
	}
	return res, nil
}

// ValidatePrompt applies the checks in order and returns the sanitized prompt.
// Lengths are counted in characters, not bytes.
func ValidatePrompt(raw any) (string, *Error) {
	s, ok := raw.(string)
	if !ok {
		return "", newError(CodeInvalidPrompt, "Prompt is missing or not text", domain.ErrInvalidPrompt)
	}
	prompt := sanitize(s)
	if prompt == "" {
		return "", newError(CodeInvalidPrompt, "Video description cannot be empty", domain.ErrInvalidPrompt)
	}
	n := utf8.RuneCountInString(prompt)
	if n < MinPromptLength {
		return "", newError(CodePromptTooShort, "Please provide a more detailed description (at least 10 characters)", domain.ErrInvalidPrompt)
	}
	if n > MaxPromptLength {
		return "", newError(CodePromptTooLong, "Description is too long. Please keep it under 500 characters", domain.ErrInvalidPrompt)
	}
	return prompt, nil
}

// sanitize trims surrounding whitespace and drops control characters other
// than newlines and tabs.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if strings.IndexFunc(s, isStripped) < 0 {
		return s
	}
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if isStripped(r) {
			return -1
		}
		return r
	}, s))
}

func isStripped(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t'
}

func classify(err error) *Error {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return newError(CodeUserNotFound, "User not found", err)
	case errors.Is(err, domain.ErrInsufficientCredits):
		return newError(CodeInsufficientCredits, "You do not have enough credits to create a video. Please upgrade your account to continue.", err)
	default:
		return newError(CodeInternal, "Failed to create video. Please try again.", err)
	}
}
