// Package runtime is the chat orchestrator: one Runtime composes the
// provider registry, token estimator, rate limiter, concurrency gate,
// circuit breakers, retry executor, and HTTP transport into a single
// resilient Chat entry point.
//
// Admission order is fixed: validate, price the prompt, check the
// endpoint's breaker, pass the rate limiter, take a concurrency slot,
// then run the attempt loop with the breaker re-checked before every
// attempt. Failures surface as *chat.Error with the provider, model,
// attempt, and status populated.
package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/ganymede/pkg/breaker"
	"mercator-hq/ganymede/pkg/catalog"
	"mercator-hq/ganymede/pkg/chat"
	"mercator-hq/ganymede/pkg/clock"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/dialect"
	"mercator-hq/ganymede/pkg/gate"
	"mercator-hq/ganymede/pkg/journal"
	"mercator-hq/ganymede/pkg/jsonpath"
	"mercator-hq/ganymede/pkg/ratelimit"
	"mercator-hq/ganymede/pkg/registry"
	"mercator-hq/ganymede/pkg/retry"
	"mercator-hq/ganymede/pkg/secrets"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
	"mercator-hq/ganymede/pkg/telemetry/tracing"
	"mercator-hq/ganymede/pkg/tokens"
	"mercator-hq/ganymede/pkg/transport"
)

// Runtime is the chat pipeline. Construct with New or NewFromConfig; all
// methods are safe for concurrent use.
type Runtime struct {
	reg       *registry.Registry
	estimator tokens.Estimator
	clk       clock.Clock
	http      *transport.Client
	gate      *gate.Gate
	exec      *retry.Executor

	defaultPolicy   retry.Policy
	defaultProvider string

	limMu      sync.Mutex
	limiter    *ratelimit.Limiter
	limiterCfg ratelimit.Config

	boardMu    sync.Mutex
	board      *breaker.Board
	boards     map[breaker.Config]*breaker.Board
	breakerCfg breaker.Config

	paths sync.Map // response parse path -> *jsonpath.Path

	collector *metrics.Collector
	tracer    *tracing.Tracer
	recorder  *journal.Recorder
	catalog   *catalog.Cache
	logger    *slog.Logger

	closers []func() error
}

// New assembles a runtime from explicit components.
func New(opts Options) (*Runtime, error) {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	client, err := transport.New(opts.Transport)
	if err != nil {
		return nil, err
	}

	reg := opts.Registry
	if reg == nil {
		reg = registry.New(registry.Options{HTTP: client})
	}

	estimator := opts.Estimator
	if estimator == nil {
		estimator = tokens.DefaultHeuristic()
	}

	collector := opts.Metrics
	if collector == nil {
		collector = metrics.NewCollector(&config.MetricsConfig{}, nil)
	}

	tracer := opts.Tracer
	if tracer == nil {
		tracer, err = tracing.New(&config.TracingConfig{})
		if err != nil {
			return nil, err
		}
	}

	defaultProvider := registry.Normalize(opts.DefaultProvider)
	if defaultProvider == "" {
		defaultProvider = DefaultProvider
	}

	limiterCfg := opts.RateLimit
	limiterCfg.ApplyDefaults()
	breakerCfg := opts.Breaker
	breakerCfg.ApplyDefaults()

	// At the constructor a zero Retries means "default"; single-attempt
	// calls say so per call through ChatOptions.Retries.
	policy := opts.Retry
	if policy.Retries == 0 {
		policy.Retries = retry.DefaultRetries
	}
	policy.ApplyDefaults()

	rt := &Runtime{
		reg:             reg,
		estimator:       estimator,
		clk:             clk,
		http:            client,
		gate:            gate.New(opts.MaxConcurrent),
		exec:            retry.New(clk),
		defaultPolicy:   policy,
		defaultProvider: defaultProvider,
		limiter:         ratelimit.New(limiterCfg, clk),
		limiterCfg:      limiterCfg,
		boards:          make(map[breaker.Config]*breaker.Board),
		breakerCfg:      breakerCfg,
		collector:       collector,
		tracer:          tracer,
		recorder:        opts.Journal,
		logger:          slog.Default().With("component", "runtime"),
	}
	rt.board = breaker.NewBoard(breakerCfg, clk, collector.BreakerStateChanged)

	return rt, nil
}

// Chat sends a conversation and returns the completion text.
func (rt *Runtime) Chat(ctx context.Context, history []chat.Message, opts *ChatOptions) (string, error) {
	result, err := rt.ChatResult(ctx, history, opts)
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

// ChatResult is Chat with usage and attempt metadata.
func (rt *Runtime) ChatResult(ctx context.Context, history []chat.Message, opts *ChatOptions) (*chat.Result, error) {
	if opts == nil {
		opts = &ChatOptions{}
	}
	requestID := uuid.NewString()
	start := rt.clk.Now()

	call, cerr := rt.prepare(history, opts)
	if cerr != nil {
		rt.finish(requestID, call, start, 0, 0, cerr)
		return nil, cerr
	}

	estimate := rt.estimator.EstimateMessages(history)

	ctx, span := rt.tracer.Start(ctx, "ganymede.chat",
		tracing.WithChatAttributes(call.provider, call.model, requestID, estimate))
	defer span.End()

	// Admission: breaker first, so a circuit known to be open charges no
	// limiter budget and occupies no gate slot. Check claims nothing; the
	// attempt loop re-checks with Allow and owns the probe slot.
	brk := rt.boardFor(opts.Breaker).Get(breaker.Key(call.provider, call.model))
	if err := brk.Check(); err != nil {
		cerr := &chat.Error{Kind: chat.KindCircuitOpen, Provider: call.provider, Model: call.model, Message: "circuit open", Cause: err}
		tracing.SetStatus(span, cerr)
		rt.finish(requestID, call, start, estimate, 0, cerr)
		return nil, cerr
	}

	// Then the rate limit, then a concurrency slot. Charged budget is
	// never refunded, even when the call later fails.
	waitStart := rt.clk.Now()
	if err := rt.limiterFor(opts.RateLimit).Acquire(ctx, estimate); err != nil {
		cerr := admissionError(err, call)
		tracing.SetStatus(span, cerr)
		rt.finish(requestID, call, start, estimate, 0, cerr)
		return nil, cerr
	}
	rt.collector.RecordLimiterWait(rt.clk.Now().Sub(waitStart))

	if err := rt.gate.Acquire(ctx); err != nil {
		cerr := &chat.Error{Kind: chat.KindCancelled, Provider: call.provider, Model: call.model, Cause: err}
		tracing.SetStatus(span, cerr)
		rt.finish(requestID, call, start, estimate, 0, cerr)
		return nil, cerr
	}
	rt.collector.GateAcquired()
	defer func() {
		rt.gate.Release()
		rt.collector.GateReleased()
	}()

	var (
		content  string
		attempts int
	)
	err := rt.exec.Do(ctx, rt.policyFor(opts), brk, func(ctx context.Context, attempt int) error {
		attempts = attempt
		tracing.SetAttempt(span, attempt)

		resp, err := rt.http.PostJSON(ctx, call.url, call.payload, call.headers)
		if err != nil {
			return err
		}
		tracing.SetHTTPStatus(span, resp.Status)

		text, err := dialect.ExtractContent(call.parsePath, resp.Body)
		if err != nil {
			return err
		}
		content = text
		return nil
	})
	if err != nil {
		cerr := rt.stamp(err, call, attempts)
		tracing.SetStatus(span, cerr)
		tracing.SetErrorKind(span, string(cerr.Kind))
		rt.finish(requestID, call, start, estimate, attempts, cerr)
		return nil, cerr
	}

	tracing.SetStatus(span, nil)
	rt.finish(requestID, call, start, estimate, attempts, nil)

	return &chat.Result{
		Content:         content,
		Provider:        call.provider,
		Model:           call.model,
		Attempts:        attempts,
		EstimatedTokens: estimate,
		RequestID:       requestID,
	}, nil
}

// preparedCall is everything resolved before any admission cost is paid.
type preparedCall struct {
	provider  string
	model     string
	url       string
	payload   []byte
	headers   map[string]string
	parsePath *jsonpath.Path
}

// prepare validates the history, resolves provider and model, builds the
// dialect body, and composes auth. Auth failures surface here, before the
// limiter or gate charge anything.
func (rt *Runtime) prepare(history []chat.Message, opts *ChatOptions) (*preparedCall, *chat.Error) {
	provider := registry.Normalize(opts.Provider)
	if provider == "" {
		provider = rt.defaultProvider
	}

	call := &preparedCall{provider: provider, model: opts.Model}

	if len(history) == 0 {
		return call, chat.New(chat.KindBadRequest, provider, opts.Model, "history is empty")
	}

	cfg, err := rt.reg.Get(provider)
	if err != nil {
		return call, chat.New(chat.KindConfig, provider, opts.Model, "unknown provider")
	}
	if cfg.ChatAPIURL == "" {
		return call, chat.New(chat.KindConfig, provider, opts.Model, "provider has no chat endpoint")
	}

	model := opts.Model
	if model == "" {
		model = cfg.DefaultModel
	}
	if model == "" {
		return call, chat.New(chat.KindConfig, provider, "", "no model given and provider has no default")
	}
	call.model = model

	body, berr := dialect.BuildBody(cfg.Chat, dialect.Request{
		Model:          model,
		Messages:       history,
		MaxTokens:      opts.MaxTokens,
		Temperature:    opts.Temperature,
		TopP:           opts.TopP,
		ResponseFormat: opts.ResponseFormat,
		Tools:          opts.Tools,
		ToolChoice:     opts.ToolChoice,
	})
	if berr != nil {
		return call, rt.stamp(berr, call, 0)
	}
	payload, merr := json.Marshal(body)
	if merr != nil {
		return call, &chat.Error{Kind: chat.KindBadRequest, Provider: provider, Model: model,
			Message: "request body is not serializable", Cause: merr}
	}
	call.payload = payload

	headers, herr := rt.reg.BuildAuthHeaders(provider, opts.APIKey,
		map[string]string{"Content-Type": "application/json"})
	if herr != nil {
		return call, rt.stamp(herr, call, 0)
	}
	call.headers = headers

	url, uerr := rt.reg.BuildAPIURL(provider, cfg.ChatAPIURL, opts.APIKey)
	if uerr != nil {
		return call, rt.stamp(uerr, call, 0)
	}
	call.url = url

	path, perr := rt.parsePath(cfg.Chat.ResponseParsePath)
	if perr != nil {
		return call, &chat.Error{Kind: chat.KindConfig, Provider: provider, Model: model,
			Message: "invalid response parse path", Cause: perr}
	}
	call.parsePath = path

	return call, nil
}

// parsePath compiles and caches a provider's response path. Providers are
// few and stable, so the cache never evicts.
func (rt *Runtime) parsePath(src string) (*jsonpath.Path, error) {
	if cached, ok := rt.paths.Load(src); ok {
		return cached.(*jsonpath.Path), nil
	}
	path, err := jsonpath.Compile(src)
	if err != nil {
		return nil, err
	}
	rt.paths.Store(src, path)
	return path, nil
}

// limiterFor returns the current limiter, replacing it when a call carries
// a different budget. The replacement starts with full buckets.
func (rt *Runtime) limiterFor(override *ratelimit.Config) *ratelimit.Limiter {
	rt.limMu.Lock()
	defer rt.limMu.Unlock()

	if override == nil {
		return rt.limiter
	}
	cfg := *override
	cfg.ApplyDefaults()
	if cfg == rt.limiterCfg {
		return rt.limiter
	}
	rt.limiterCfg = cfg
	rt.limiter = ratelimit.New(cfg, rt.clk)
	rt.logger.Info("rate limiter replaced",
		"requests_per_minute", cfg.RequestsPerMinute,
		"tokens_per_minute", cfg.TokensPerMinute,
	)
	return rt.limiter
}

// boardFor returns the breaker board for a call, creating one per distinct
// override tuning. Endpoints under different tunings trip independently.
func (rt *Runtime) boardFor(override *breaker.Config) *breaker.Board {
	if override == nil {
		return rt.board
	}
	cfg := *override
	cfg.ApplyDefaults()
	if cfg == rt.breakerCfg {
		return rt.board
	}

	rt.boardMu.Lock()
	defer rt.boardMu.Unlock()

	if board, ok := rt.boards[cfg]; ok {
		return board
	}
	board := breaker.NewBoard(cfg, rt.clk, rt.collector.BreakerStateChanged)
	rt.boards[cfg] = board
	return board
}

// stamp fills provider/model/attempt on a pipeline error without changing
// its kind.
func (rt *Runtime) stamp(err error, call *preparedCall, attempts int) *chat.Error {
	cerr, ok := chat.AsError(err)
	if !ok {
		cerr = &chat.Error{Kind: chat.KindOther, Cause: err}
	}
	if cerr.Provider == "" {
		cerr.Provider = call.provider
	}
	if cerr.Model == "" {
		cerr.Model = call.model
	}
	if cerr.Attempt == 0 {
		cerr.Attempt = attempts
	}
	return cerr
}

// admissionError maps limiter failures into the taxonomy: an impossible
// estimate is the caller's fault, everything else is cancellation.
func admissionError(err error, call *preparedCall) *chat.Error {
	kind := chat.KindCancelled
	if errors.Is(err, ratelimit.ErrImpossible) {
		kind = chat.KindBadRequest
	}
	return &chat.Error{
		Kind:     kind,
		Provider: call.provider,
		Model:    call.model,
		Cause:    err,
	}
}

// finish records the call's outcome in logs, metrics, and the journal.
func (rt *Runtime) finish(requestID string, call *preparedCall, start time.Time, estimate, attempts int, cerr *chat.Error) {
	duration := rt.clk.Now().Sub(start)

	outcome := journal.OutcomeSuccess
	httpStatus := 0
	if cerr != nil {
		outcome = string(cerr.Kind)
		httpStatus = cerr.HTTPStatus
		rt.collector.RecordError(call.provider, string(cerr.Kind))
		rt.logger.Warn("chat call failed",
			"request_id", requestID,
			"provider", call.provider,
			"model", call.model,
			"kind", string(cerr.Kind),
			"attempts", attempts,
			"error", cerr.Error(),
		)
	} else {
		rt.logger.Debug("chat call complete",
			"request_id", requestID,
			"provider", call.provider,
			"model", call.model,
			"attempts", attempts,
			"estimated_tokens", estimate,
			"duration_ms", duration.Milliseconds(),
		)
	}

	rt.collector.RecordRequest(call.provider, call.model, outcome, duration, attempts, estimate)

	if rt.recorder != nil {
		rt.recorder.Record(&journal.Record{
			RequestID:       requestID,
			Provider:        call.provider,
			Model:           call.model,
			Attempts:        attempts,
			EstimatedTokens: estimate,
			LatencyMS:       duration.Milliseconds(),
			Outcome:         outcome,
			HTTPStatus:      httpStatus,
		})
	}
}

// Registry exposes the runtime's provider registry for configuration and
// catalog access.
func (rt *Runtime) Registry() *registry.Registry {
	return rt.reg
}

// Metrics exposes the collector so embedding applications can mount its
// scrape handler.
func (rt *Runtime) Metrics() *metrics.Collector {
	return rt.collector
}

// Models lists a provider's catalog, preferring the persistent cache when
// one is attached.
func (rt *Runtime) Models(ctx context.Context, provider string, apiKey secrets.Secret) []registry.Model {
	if rt.catalog != nil {
		return rt.catalog.Models(ctx, provider, apiKey)
	}
	return rt.reg.GetModels(ctx, provider, apiKey)
}

// Close releases everything the runtime owns: the journal recorder, the
// catalog store, scheduled jobs, and the tracer, in construction-reverse
// order. The first error wins; later closers still run.
func (rt *Runtime) Close() error {
	var first error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}
