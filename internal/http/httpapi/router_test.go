package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelgen/internal/admission"
	"reelgen/internal/http/handlers"
	"reelgen/internal/middleware"
)

type fakeAdmitter struct{ locale string }

func (f *fakeAdmitter) Admit(ctx context.Context, req admission.Request) (*admission.Result, error) {
	f.locale = req.Locale
	return &admission.Result{JobID: "job-" + req.UserID, RemainingCredits: 1}, nil
}

type fakeLedger struct{}

func (fakeLedger) Balance(ctx context.Context, userID string) (int, error) { return 7, nil }

func newTestRouter(adm *fakeAdmitter) http.Handler {
	app := &handlers.App{Admission: adm, Ledger: fakeLedger{}, Logger: zerolog.Nop()}
	return NewRouter(app, Options{JWTSecret: "s", DefaultLocale: "en", RateLimitPerMin: 1, Logger: zerolog.Nop()})
}

func TestRouterRequiresAuthForAPI(t *testing.T) {
	h := newTestRouter(&fakeAdmitter{})
	for _, path := range []string{"/v1/me/credits", "/v1/videos/abc"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterCreateVideoFlow(t *testing.T) {
	adm := &fakeAdmitter{}
	h := newTestRouter(adm)
	token, err := middleware.SignToken("s", "", "user-1", "", time.Hour)
	require.NoError(t, err)

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/videos", strings.NewReader(`{"prompt":"a long enough prompt"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept-Language", "id-ID")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}
	first := post()
	assert.Equal(t, http.StatusAccepted, first.Code)
	assert.Contains(t, first.Body.String(), `"job_id":"job-user-1"`)
	assert.Equal(t, "id", adm.locale)
	assert.NotEmpty(t, first.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusTooManyRequests, post().Code)
}
