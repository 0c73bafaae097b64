package llm

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/time/rate"

	apperrors "summons-workers/internal/common/errors"
	"summons-workers/internal/common/logger"
	"summons-workers/internal/common/metrics"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 500 * time.Millisecond
)

// Options tunes a Client. Zero values fall back to three attempts and a 500ms base backoff.
type Options struct {
	DefaultModel string
	MaxAttempts  int
	// BackoffBase is multiplied by the attempt number before the next try.
	BackoffBase time.Duration
	// AttemptTimeout bounds each individual call; zero leaves only the caller's deadline.
	AttemptTimeout time.Duration
	// RequestsPerSecond throttles outbound calls; zero disables the limiter.
	RequestsPerSecond float64
	Logger            logger.Logger
}

// Client calls a Completer and returns its output as validated JSON. Only TIMEOUT
// failures are retried; everything else fails on the first attempt.
type Client struct {
	completer      Completer
	defaultModel   string
	maxAttempts    int
	backoffBase    time.Duration
	attemptTimeout time.Duration
	limiter        *rate.Limiter
	log            logger.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(completer Completer, opts Options) *Client {
	c := &Client{
		completer:      completer,
		defaultModel:   opts.DefaultModel,
		maxAttempts:    opts.MaxAttempts,
		backoffBase:    opts.BackoffBase,
		attemptTimeout: opts.AttemptTimeout,
		log:            opts.Logger,
		sleep:          sleepContext,
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = defaultMaxAttempts
	}
	if c.backoffBase <= 0 {
		c.backoffBase = defaultBackoffBase
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	if c.log == nil {
		c.log = logger.NewNoOpLogger()
	}
	return c
}

// Complete sends prompt to model (or the default model when empty) and returns the
// response with any code fence removed. Failures are *errors.NormalizedError.
func (c *Client) Complete(ctx context.Context, prompt, model string) (json.RawMessage, error) {
	if model == "" {
		model = c.defaultModel
	}

	var last *apperrors.NormalizedError
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, apperrors.NewTimeoutError(err)
			}
		}

		text, err := c.generate(ctx, prompt, model)
		if err == nil {
			cleaned := StripCodeFence(text)
			if !json.Valid([]byte(cleaned)) {
				metrics.LLMAttempts.WithLabelValues(string(apperrors.ErrCodeInvalidJSON)).Inc()
				return nil, apperrors.NewInvalidJSONError(text, nil)
			}
			metrics.LLMAttempts.WithLabelValues("ok").Inc()
			return json.RawMessage(cleaned), nil
		}

		ne := classify(err)
		metrics.LLMAttempts.WithLabelValues(string(ne.Code)).Inc()
		if ne.Code != apperrors.ErrCodeTimeout {
			return nil, ne
		}
		last = ne

		// The caller's deadline is the run boundary; retrying past it is pointless.
		if ctx.Err() != nil {
			return nil, ne
		}
		if attempt == c.maxAttempts {
			break
		}

		backoff := c.backoffBase * time.Duration(attempt)
		c.log.Warn("generative call timed out, retrying", map[string]interface{}{
			"attempt": attempt,
			"backoff": backoff.String(),
			"model":   model,
		})
		if err := c.sleep(ctx, backoff); err != nil {
			return nil, ne
		}
	}

	return nil, apperrors.NewRetriesExhaustedError(c.maxAttempts, last)
}

// CompleteInto decodes the completion into v. A shape mismatch is INVALID_JSON.
func (c *Client) CompleteInto(ctx context.Context, prompt, model string, v interface{}) error {
	raw, err := c.Complete(ctx, prompt, model)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperrors.NewInvalidJSONError(string(raw), err)
	}
	return nil
}

func (c *Client) generate(ctx context.Context, prompt, model string) (string, error) {
	if c.attemptTimeout <= 0 {
		return c.completer.Generate(ctx, prompt, model)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()
	return c.completer.Generate(attemptCtx, prompt, model)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
