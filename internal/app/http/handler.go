package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"github.com/beldeveloper/go-errors-context"
	"github.com/julienschmidt/httprouter"
	"github.com/maroux/heroku-deployer/internal/app"
	"github.com/maroux/heroku-deployer/internal/app/errtype"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// SignatureHeader is the header holding the HMAC of the webhook payload.
	SignatureHeader = "X-Hub-Signature-256"
	// MaxBodySize is the limit of the webhook payload.
	MaxBodySize = 1 << 20
	// DefaultRunsLimit is the number of runs returned when the limit is not specified.
	DefaultRunsLimit = 20
	// MaxRunsLimit is the maximum number of returned runs.
	MaxRunsLimit = 100
)

// NewHandler creates a new instance of the REST API handler.
func NewHandler(
	targets app.TargetRepo,
	queue app.DispatcherSvc,
	runs app.RunRepo,
	accessKey app.ApiAccessKey,
	secret app.WebhookSecret,
	logger *slog.Logger,
) Handler {
	return Handler{
		targets:   targets,
		queue:     queue,
		runs:      runs,
		accessKey: string(accessKey),
		secret:    []byte(secret),
		logger:    logger,
		now:       time.Now,
	}
}

// Handler handles the REST API requests.
type Handler struct {
	targets   app.TargetRepo
	queue     app.DispatcherSvc
	runs      app.RunRepo
	accessKey string
	secret    []byte
	logger    *slog.Logger
	now       func() time.Time
}

type hookResponse struct {
	Queued bool `json:"queued"`
}

// Hook accepts a push event of the target and enqueues the deployment.
func (h Handler) Hook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	err := h.validateKey(r)
	if err != nil {
		apiError(w, h.logger, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		apiError(w, h.logger, fmt.Errorf("%w: read body: %v", errtype.ErrBadInput, err))
		return
	}
	err = h.validateSignature(body, r.Header.Get(SignatureHeader))
	if err != nil {
		apiError(w, h.logger, err)
		return
	}
	var e app.Event
	err = json.Unmarshal(body, &e)
	if err != nil {
		apiError(w, h.logger, fmt.Errorf("%w: invalid payload: %v", errtype.ErrBadInput, err))
		return
	}
	if strings.TrimSpace(e.Ref) == "" {
		apiError(w, h.logger, fmt.Errorf("%w: ref is empty", errtype.ErrBadInput))
		return
	}
	name := ps.ByName("target")
	_, err = h.targets.FindByName(r.Context(), name)
	if err != nil {
		apiError(w, h.logger, err)
		return
	}
	e.At = h.now()
	err = h.queue.Enqueue(app.Job{Target: name, Event: e})
	if err != nil {
		apiError(w, h.logger, err)
		return
	}
	apiAccepted(w, h.logger, hookResponse{Queued: true})
}

// Targets returns the configured targets without the secrets.
func (h Handler) Targets(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	err := h.validateKey(r)
	if err != nil {
		apiError(w, h.logger, err)
		return
	}
	res, err := h.targets.FindAll(r.Context())
	if err != nil {
		apiError(w, h.logger, err)
		return
	}
	apiSuccess(w, h.logger, res)
}

// Runs returns the latest runs.
func (h Handler) Runs(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	err := h.validateKey(r)
	if err != nil {
		apiError(w, h.logger, err)
		return
	}
	limit := DefaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			apiError(w, h.logger, fmt.Errorf("%w: invalid limit %q", errtype.ErrBadInput, v))
			return
		}
		if limit > MaxRunsLimit {
			limit = MaxRunsLimit
		}
	}
	res, err := h.runs.FindLatest(r.Context(), limit)
	if err != nil {
		apiError(w, h.logger, err)
		return
	}
	apiSuccess(w, h.logger, res)
}

func (h Handler) validateKey(r *http.Request) error {
	if r.URL.Query().Get("accessKey") != h.accessKey {
		return errors.WrapContext(errtype.ErrUnauthorized, errors.Context{Path: "http.Handler.validateKey"})
	}
	return nil
}

// validateSignature checks the "sha256=<hex>" HMAC of the payload when the secret is configured.
func (h Handler) validateSignature(payload []byte, provided string) error {
	if len(h.secret) == 0 {
		return nil
	}
	provided = strings.TrimPrefix(provided, "sha256=")
	if provided == "" {
		return errors.WrapContext(fmt.Errorf("%w: missing webhook signature", errtype.ErrUnauthorized), errors.Context{
			Path: "http.Handler.validateSignature",
		})
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(provided), []byte(expected)) {
		return errors.WrapContext(fmt.Errorf("%w: invalid webhook signature", errtype.ErrUnauthorized), errors.Context{
			Path: "http.Handler.validateSignature",
		})
	}
	return nil
}
