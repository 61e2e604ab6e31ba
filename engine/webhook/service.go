package webhook

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/devclub/formsheets/engine/form"
	"github.com/devclub/formsheets/engine/intake"
	"github.com/devclub/formsheets/pkg/config"
	"github.com/devclub/formsheets/pkg/logger"
)

// Error taxonomy (router maps to HTTP)
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
)

// Executor runs the submission pipeline for one form response.
type Executor interface {
	Execute(ctx context.Context, resp *form.Response) (*intake.Result, error)
}

// Result is the transport-agnostic outcome of a request.
type Result struct {
	Status int
	Data   *intake.Result
}

// Orchestrator reads, verifies and deduplicates a delivery before handing
// its form response to the executor. The request body is fully consumed.
type Orchestrator struct {
	exec      Executor
	verifier  Verifier
	idem      Service
	metrics   *Metrics
	maxBody   int64
	dedupeTTL time.Duration
}

type Option func(*Orchestrator)

// WithIdempotency enables dedupe by delivery key.
func WithIdempotency(idem Service, ttl time.Duration) Option {
	return func(o *Orchestrator) {
		o.idem = idem
		o.dedupeTTL = ttl
	}
}

func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// NewOrchestrator builds the orchestrator from the webhook config.
func NewOrchestrator(exec Executor, cfg *config.WebhookConfig, opts ...Option) (*Orchestrator, error) {
	verifier, err := NewVerifier(&cfg.Verify)
	if err != nil {
		return nil, err
	}
	o := &Orchestrator{exec: exec, verifier: verifier, maxBody: cfg.MaxBody, dedupeTTL: cfg.Dedupe.TTL}
	for _, opt := range opts {
		opt(o)
	}
	if o.maxBody <= 0 {
		o.maxBody = 1 << 20
	}
	if o.dedupeTTL <= 0 {
		o.dedupeTTL = 24 * time.Hour
	}
	return o, nil
}

// Process executes the webhook pipeline for one request.
func (o *Orchestrator) Process(ctx context.Context, r *http.Request) (res Result, err error) {
	start := time.Now()
	defer func() {
		o.metrics.ObserveOutcome(ctx, outcomeOf(err), time.Since(start))
	}()
	body, err := o.readBody(ctx, r)
	if err != nil {
		return Result{Status: http.StatusBadRequest}, err
	}
	o.metrics.OnReceived(ctx, len(body))
	if err := o.verify(ctx, r, body); err != nil {
		return Result{Status: http.StatusUnauthorized}, err
	}
	env, err := ParseEnvelope(body)
	if err != nil {
		logger.FromContext(ctx).Warn("invalid webhook payload", "error", err)
		return Result{Status: http.StatusBadRequest}, err
	}
	dedupeKey, err := o.checkIdempotency(ctx, body)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return Result{Status: http.StatusOK}, err
		}
		return Result{Status: http.StatusInternalServerError}, err
	}
	out, err := o.exec.Execute(ctx, env.FormResponse)
	if err != nil {
		o.releaseIdempotency(ctx, dedupeKey)
		return Result{Status: http.StatusInternalServerError}, err
	}
	return Result{Status: http.StatusOK, Data: out}, nil
}

func (o *Orchestrator) readBody(ctx context.Context, r *http.Request) ([]byte, error) {
	b, err := ReadRawJSON(r.Body, o.maxBody)
	if err != nil {
		logger.FromContext(ctx).Warn("invalid webhook body", "error", err)
		return nil, ErrBadRequest
	}
	return b, nil
}

func (o *Orchestrator) verify(ctx context.Context, r *http.Request, body []byte) error {
	if err := o.verifier.Verify(ctx, r, body); err != nil {
		logger.FromContext(ctx).Warn("signature verification failed", "error", err)
		return ErrUnauthorized
	}
	return nil
}

// checkIdempotency is a no-op unless a store is installed and the delivery
// carries a key. It returns the recorded key, or "" when nothing was
// recorded.
func (o *Orchestrator) checkIdempotency(ctx context.Context, body []byte) (string, error) {
	if o.idem == nil {
		return "", nil
	}
	key := DeriveKey(body)
	if key == "" {
		return "", nil
	}
	log := logger.FromContext(ctx)
	namespaced := KeyWithNamespace(FormID(body), key)
	err := o.idem.CheckAndSet(ctx, namespaced, o.dedupeTTL)
	switch {
	case err == nil:
		return namespaced, nil
	case errors.Is(err, ErrDuplicate):
		log.Info("duplicate webhook delivery", "key", key)
		return "", err
	default:
		log.Error("idempotency check failed", "error", err)
		return "", err
	}
}

// releaseIdempotency forgets a recorded key after a failed run so the
// sender's retry is not answered as a duplicate.
func (o *Orchestrator) releaseIdempotency(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := o.idem.Release(ctx, key); err != nil {
		logger.FromContext(ctx).Error("failed to release idempotency key", "key", key, "error", err)
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrDuplicate):
		return OutcomeDuplicate
	case errors.Is(err, ErrBadRequest):
		return OutcomeBadRequest
	case errors.Is(err, ErrUnauthorized):
		return OutcomeUnauthorized
	default:
		return OutcomeError
	}
}
