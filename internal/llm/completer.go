// Package llm wraps a generative text endpoint behind a JSON-returning client with
// timeout-only retries and normalized errors.
package llm

import (
	"context"
	stderrors "errors"

	"google.golang.org/genai"

	apperrors "summons-workers/internal/common/errors"
)

// Completer produces one JSON-mode completion. Implementations return the raw model
// text; parsing and retries belong to Client.
type Completer interface {
	Generate(ctx context.Context, prompt, model string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt, model string) (string, error)

func (f CompleterFunc) Generate(ctx context.Context, prompt, model string) (string, error) {
	return f(ctx, prompt, model)
}

// statusCoder is implemented by endpoint errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// classify extracts the upstream status from provider errors and maps the failure
// onto the shared taxonomy.
func classify(err error) *apperrors.NormalizedError {
	status := 0

	var apiErr genai.APIError
	var sc statusCoder
	switch {
	case stderrors.As(err, &apiErr):
		status = apiErr.Code
	case stderrors.As(err, &sc):
		status = sc.StatusCode()
	}

	return apperrors.Classify(err, status)
}
