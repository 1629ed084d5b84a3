package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"github.com/maroux/heroku-deployer/internal/app"
	"github.com/maroux/heroku-deployer/internal/app/errtype"
	"github.com/maroux/heroku-deployer/internal/app/svc"
	"github.com/maroux/heroku-deployer/pkg/logger"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeTargets map[string]app.Target

func (f fakeTargets) FindByName(_ context.Context, name string) (app.Target, error) {
	t, ok := f[name]
	if !ok {
		return t, fmt.Errorf("%w: target %s", errtype.ErrNotFound, name)
	}
	if t.SourceURL == "" {
		return app.Target{}, fmt.Errorf("%w: target %s is incomplete", errtype.ErrConfiguration, name)
	}
	return t, nil
}

func (f fakeTargets) FindAll(_ context.Context) ([]app.Target, error) {
	return []app.Target{f["web"]}, nil
}

type fakeQueue struct {
	jobs []app.Job
	err  error
}

func (q *fakeQueue) Enqueue(j app.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, j)
	return nil
}

var testTargets = fakeTargets{
	"web": {
		Name:      "web",
		Variant:   app.TargetVariantPipeline,
		SourceURL: "git@github.com:acme/web.git",
		SourceKey: app.Credential{Name: "web", PrivateKey: "secret-key"},
		StageURL:  "git@heroku.com:acme-web-staging.git",
		MasterURL: "git@heroku.com:acme-web.git",
		Branches:  app.Branches{Next: "next", Staging: "staging", Master: "master"},
	},
	"broken": {Name: "broken"},
}

func newTestRouter(queue *fakeQueue, secret app.WebhookSecret) (http.Handler, app.RunRepo) {
	runs := svc.NewMemoryRuns()
	h := NewHandler(testTargets, queue, runs, "key", secret, logger.Discard())
	h.now = func() time.Time { return time.Date(2024, time.March, 4, 17, 0, 0, 0, time.UTC) }
	return NewRouter(h), runs
}

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestHook(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		body      string
		secret    app.WebhookSecret
		signature string
		queueErr  error
		code      int
		queued    bool
	}{
		{name: "accepted", path: "/hooks/web?accessKey=key", body: `{"ref":"refs/heads/next"}`, code: http.StatusAccepted, queued: true},
		{name: "unrelated ref is accepted too", path: "/hooks/web?accessKey=key", body: `{"ref":"refs/heads/feature"}`, code: http.StatusAccepted, queued: true},
		{name: "wrong key", path: "/hooks/web?accessKey=nope", body: `{"ref":"refs/heads/next"}`, code: http.StatusUnauthorized},
		{name: "unknown target", path: "/hooks/api?accessKey=key", body: `{"ref":"refs/heads/next"}`, code: http.StatusNotFound},
		{name: "incomplete target", path: "/hooks/broken?accessKey=key", body: `{"ref":"refs/heads/next"}`, code: http.StatusNotFound},
		{name: "malformed body", path: "/hooks/web?accessKey=key", body: `{"ref":`, code: http.StatusBadRequest},
		{name: "empty ref", path: "/hooks/web?accessKey=key", body: `{}`, code: http.StatusBadRequest},
		{name: "queue is full", path: "/hooks/web?accessKey=key", body: `{"ref":"refs/heads/next"}`, queueErr: errtype.ErrQueueFull, code: http.StatusServiceUnavailable},
		{
			name:      "valid signature",
			path:      "/hooks/web?accessKey=key",
			body:      `{"ref":"refs/heads/next"}`,
			secret:    "s3cret",
			signature: sign("s3cret", `{"ref":"refs/heads/next"}`),
			code:      http.StatusAccepted,
			queued:    true,
		},
		{
			name:      "invalid signature",
			path:      "/hooks/web?accessKey=key",
			body:      `{"ref":"refs/heads/next"}`,
			secret:    "s3cret",
			signature: sign("other", `{"ref":"refs/heads/next"}`),
			code:      http.StatusUnauthorized,
		},
		{name: "missing signature", path: "/hooks/web?accessKey=key", body: `{"ref":"refs/heads/next"}`, secret: "s3cret", code: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := &fakeQueue{err: tt.queueErr}
			router, _ := newTestRouter(queue, tt.secret)
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			if tt.signature != "" {
				req.Header.Set(SignatureHeader, tt.signature)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			if queued := len(queue.jobs) == 1; queued != tt.queued {
				t.Fatalf("expected queued=%v, got %+v", tt.queued, queue.jobs)
			}
			if tt.queued {
				j := queue.jobs[0]
				if j.Target != "web" || j.Event.At.IsZero() {
					t.Fatalf("unexpected job %+v", j)
				}
			}
		})
	}
}

func TestTargetsHidesSecrets(t *testing.T) {
	router, _ := newTestRouter(&fakeQueue{}, "")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/targets?accessKey=key", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, secret := range []string{"secret-key", "git@"} {
		if strings.Contains(body, secret) {
			t.Fatalf("expected %q to be hidden, got %s", secret, body)
		}
	}
	var res []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil || len(res) != 1 || res[0]["name"] != "web" {
		t.Fatalf("unexpected response %s", body)
	}
}

func TestRuns(t *testing.T) {
	router, runs := newTestRouter(&fakeQueue{}, "")
	for i := 0; i < 3; i++ {
		_ = runs.Add(context.Background(), app.Run{ID: fmt.Sprint(i), Target: "web", Outcome: app.RunOutcomeSucceeded})
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs?accessKey=key&limit=2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res []app.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res) != 2 || res[0].ID != "2" {
		t.Fatalf("unexpected runs %+v", res)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs?accessKey=key&limit=x", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(&fakeQueue{}, "")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
