package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"reelgen/internal/admission"
	"reelgen/internal/domain"
	"reelgen/internal/middleware"
)

const maxBodyBytes = 64 << 10

// createVideoRequest keeps prompt untyped so a non-string value reaches
// validation instead of failing JSON decoding.
type createVideoRequest struct {
	Prompt any `json:"prompt"`
}

type createVideoResponse struct {
	JobID            string `json:"job_id"`
	Status           string `json:"status"`
	RemainingCredits int    `json:"remaining_credits"`
}

type jobView struct {
	JobID       string          `json:"job_id"`
	Status      string          `json:"status"`
	Prompt      string          `json:"prompt"`
	Locale      string          `json:"locale,omitempty"`
	Scenes      []domain.Scene  `json:"scenes"`
	Usage       *domain.Usage   `json:"usage,omitempty"`
	Failure     *domain.Failure `json:"failure,omitempty"`
	ArtifactRef string          `json:"artifact_ref,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

var admissionStatus = map[string]int{
	admission.CodeInvalidPrompt:       http.StatusBadRequest,
	admission.CodePromptTooShort:      http.StatusBadRequest,
	admission.CodePromptTooLong:       http.StatusBadRequest,
	admission.CodeUnauthenticated:     http.StatusUnauthorized,
	admission.CodeInsufficientCredits: http.StatusPaymentRequired,
	admission.CodeUserNotFound:        http.StatusNotFound,
	admission.CodeInternal:            http.StatusInternalServerError,
}

func (a *App) CreateVideo(w http.ResponseWriter, r *http.Request) {
	var req createVideoRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, admission.CodeInvalidPrompt, "Request body must be a JSON object with a prompt")
		return
	}
	user := a.currentUser(r)
	res, err := a.Admission.Admit(r.Context(), admission.Request{
		Prompt: req.Prompt,
		UserID: user.UserID,
		Email:  user.Email,
		Locale: middleware.LocaleFromContext(r.Context()),
	})
	if err != nil {
		var aerr *admission.Error
		if !errors.As(err, &aerr) {
			a.Logger.Error().Err(err).Msg("create video: unexpected admission error")
			a.error(w, http.StatusInternalServerError, admission.CodeInternal, "Failed to create video. Please try again.")
			return
		}
		status, ok := admissionStatus[aerr.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		a.error(w, status, aerr.Code, aerr.Message)
		return
	}
	w.Header().Set("Location", "/v1/videos/"+res.JobID)
	a.json(w, http.StatusAccepted, createVideoResponse{
		JobID:            res.JobID,
		Status:           string(domain.JobStatusPending),
		RemainingCredits: res.RemainingCredits,
	})
}

func (a *App) GetVideo(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(r)
	if user.UserID == "" {
		a.error(w, http.StatusUnauthorized, admission.CodeUnauthenticated, "Authentication required")
		return
	}
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "BAD_REQUEST", "job_id required")
		return
	}
	if _, err := uuid.Parse(jobID); err != nil {
		a.error(w, http.StatusNotFound, "NOT_FOUND", "Video not found")
		return
	}
	job, err := a.Jobs.GetForUser(r.Context(), jobID, user.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "NOT_FOUND", "Video not found")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("get video: load failed")
		a.error(w, http.StatusInternalServerError, admission.CodeInternal, "Failed to load video")
		return
	}
	scenes := job.Scenes
	if scenes == nil {
		scenes = []domain.Scene{}
	}
	a.json(w, http.StatusOK, jobView{
		JobID:       job.ID,
		Status:      string(job.Status),
		Prompt:      job.Prompt,
		Locale:      job.Locale,
		Scenes:      scenes,
		Usage:       job.Usage,
		Failure:     job.Failure,
		ArtifactRef: job.ArtifactRef,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
	})
}
