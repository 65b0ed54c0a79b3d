package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"reelgen/internal/admission"
	"reelgen/internal/domain"
	"reelgen/internal/middleware"
)

type stubAdmitter struct {
	got admission.Request
	res *admission.Result
	err error
}

func (s *stubAdmitter) Admit(ctx context.Context, req admission.Request) (*admission.Result, error) {
	s.got = req
	return s.res, s.err
}

type stubJobs struct {
	job *domain.VideoJob
	err error
}

func (s *stubJobs) GetForUser(ctx context.Context, jobID, userID string) (*domain.VideoJob, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.job == nil || s.job.ID != jobID || s.job.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return s.job, nil
}

type stubLedger struct {
	credits int
	err     error
}

func (s stubLedger) Balance(ctx context.Context, userID string) (int, error) {
	return s.credits, s.err
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

func withUser(r *http.Request, userID string) *http.Request {
	ctx := middleware.ContextWithIdentity(r.Context(), middleware.Identity{UserID: userID, Email: userID + "@example.com"})
	return r.WithContext(ctx)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorDetail {
	t.Helper()
	var body errorPayload
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestCreateVideoAccepted(t *testing.T) {
	adm := &stubAdmitter{res: &admission.Result{JobID: "job-1", RemainingCredits: 2, Dispatched: true}}
	app := &App{Admission: adm, Logger: zerolog.Nop()}

	req := httptest.NewRequest(http.MethodPost, "/v1/videos", strings.NewReader(`{"prompt":"A video about honey bees"}`))
	req = withUser(req, "user-1")
	req = req.WithContext(context.WithValue(req.Context(), middleware.LocaleKey, "id"))
	rec := httptest.NewRecorder()
	app.CreateVideo(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	var body createVideoResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.JobID != "job-1" || body.Status != "PENDING" || body.RemainingCredits != 2 {
		t.Fatalf("body = %+v", body)
	}
	if adm.got.UserID != "user-1" || adm.got.Email != "user-1@example.com" || adm.got.Locale != "id" {
		t.Fatalf("admission request = %+v", adm.got)
	}
	if adm.got.Prompt != "A video about honey bees" {
		t.Fatalf("prompt = %v", adm.got.Prompt)
	}
	if rec.Header().Get("Location") != "/v1/videos/job-1" {
		t.Fatalf("Location = %q", rec.Header().Get("Location"))
	}
}

func TestCreateVideoPassesNonStringPrompt(t *testing.T) {
	adm := &stubAdmitter{err: &admission.Error{Code: admission.CodeInvalidPrompt, Message: "Prompt is missing or not text"}}
	app := &App{Admission: adm, Logger: zerolog.Nop()}

	rec := httptest.NewRecorder()
	app.CreateVideo(rec, withUser(httptest.NewRequest(http.MethodPost, "/v1/videos", strings.NewReader(`{"prompt":42}`)), "u"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if _, ok := adm.got.Prompt.(float64); !ok {
		t.Fatalf("prompt type = %T, want float64", adm.got.Prompt)
	}
}

func TestCreateVideoMapsAdmissionErrors(t *testing.T) {
	cases := []struct {
		code   string
		status int
	}{
		{admission.CodeInvalidPrompt, http.StatusBadRequest},
		{admission.CodePromptTooShort, http.StatusBadRequest},
		{admission.CodePromptTooLong, http.StatusBadRequest},
		{admission.CodeUnauthenticated, http.StatusUnauthorized},
		{admission.CodeInsufficientCredits, http.StatusPaymentRequired},
		{admission.CodeUserNotFound, http.StatusNotFound},
		{admission.CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			app := &App{Admission: &stubAdmitter{err: &admission.Error{Code: tc.code, Message: "msg"}}, Logger: zerolog.Nop()}
			rec := httptest.NewRecorder()
			app.CreateVideo(rec, withUser(httptest.NewRequest(http.MethodPost, "/v1/videos", strings.NewReader(`{"prompt":"x"}`)), "u"))
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if got := decodeError(t, rec); got.Code != tc.code || got.Message != "msg" {
				t.Fatalf("error = %+v", got)
			}
		})
	}
}

func TestCreateVideoRejectsMalformedBody(t *testing.T) {
	adm := &stubAdmitter{}
	app := &App{Admission: adm, Logger: zerolog.Nop()}
	rec := httptest.NewRecorder()
	app.CreateVideo(rec, withUser(httptest.NewRequest(http.MethodPost, "/v1/videos", strings.NewReader(`{`)), "u"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if adm.got.UserID != "" {
		t.Fatal("admission should not be called")
	}
}

const testJobID = "6f1c0d2e-8a4b-4c7e-9f3a-2b5d7e9c1a04"

func getVideo(app *App, jobID, userID string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/v1/videos/{job_id}", app.GetVideo)
	req := httptest.NewRequest(http.MethodGet, "/v1/videos/"+jobID, nil)
	if userID != "" {
		req = withUser(req, userID)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGetVideo(t *testing.T) {
	job := &domain.VideoJob{
		ID:      testJobID,
		UserID:  "owner",
		Prompt:  "honey bees at work",
		Status:  domain.JobStatusFailed,
		Failure: &domain.Failure{Stage: domain.StageScripting, Kind: domain.FailureTimeout, Reason: "deadline"},
	}
	app := &App{Jobs: &stubJobs{job: job}, Logger: zerolog.Nop()}

	rec := getVideo(app, testJobID, "owner")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var view jobView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Status != "FAILED" || view.Failure == nil || view.Failure.Kind != domain.FailureTimeout {
		t.Fatalf("view = %+v", view)
	}
	if view.Scenes == nil {
		t.Fatal("scenes should encode as an empty list")
	}

	if rec := getVideo(app, testJobID, "intruder"); rec.Code != http.StatusNotFound {
		t.Fatalf("other user status = %d, want 404", rec.Code)
	}
	if rec := getVideo(app, testJobID, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", rec.Code)
	}
	app.Jobs = &stubJobs{err: errors.New("db down")}
	if rec := getVideo(app, testJobID, "owner"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("db error status = %d, want 500", rec.Code)
	}
	if rec := getVideo(app, "not-a-uuid", "owner"); rec.Code != http.StatusNotFound {
		t.Fatalf("malformed id status = %d, want 404", rec.Code)
	}
}

func TestMyCredits(t *testing.T) {
	cases := []struct {
		name    string
		ledger  stubLedger
		status  int
		credits int
		state   string
	}{
		{"ok", stubLedger{credits: 12}, http.StatusOK, 12, "ok"},
		{"low", stubLedger{credits: 5}, http.StatusOK, 5, "low"},
		{"empty", stubLedger{credits: 0}, http.StatusOK, 0, "empty"},
		{"unknown user", stubLedger{err: domain.ErrUserNotFound}, http.StatusOK, 0, "empty"},
		{"db error", stubLedger{err: errors.New("boom")}, http.StatusInternalServerError, 0, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := &App{Ledger: tc.ledger, Logger: zerolog.Nop()}
			rec := httptest.NewRecorder()
			app.MyCredits(rec, withUser(httptest.NewRequest(http.MethodGet, "/v1/me/credits", nil), "u"))
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.status != http.StatusOK {
				return
			}
			var body creditsResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Credits != tc.credits || body.State != tc.state {
				t.Fatalf("body = %+v, want %d/%s", body, tc.credits, tc.state)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	app := &App{DB: stubPinger{}, Logger: zerolog.Nop()}
	rec := httptest.NewRecorder()
	app.Health(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	app.DB = stubPinger{err: errors.New("down")}
	rec = httptest.NewRecorder()
	app.Health(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
