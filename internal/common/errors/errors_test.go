package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsNormalized(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, AsNormalized(nil))
	})

	t.Run("wrapped normalized error is unwrapped", func(t *testing.T) {
		orig := NewTimeoutError(stderrors.New("deadline"))
		got := AsNormalized(fmt.Errorf("calling model: %w", orig))
		assert.Same(t, orig, got)
	})

	t.Run("unknown error becomes UNHANDLED", func(t *testing.T) {
		got := AsNormalized(stderrors.New("boom"))
		require.NotNil(t, got)
		assert.Equal(t, ErrCodeUnhandled, got.Code)
		assert.Equal(t, 500, got.Status)
	})
}

func TestSentinelMatching(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewRateLimitError(nil))
	assert.True(t, stderrors.Is(err, ErrRateLimit))
	assert.False(t, stderrors.Is(err, ErrTimeout))
}

func TestNewRequestFailedError_Status(t *testing.T) {
	assert.Equal(t, 401, NewRequestFailedError(401, "", nil).Status)
	assert.Equal(t, 500, NewRequestFailedError(0, "", nil).Status)
	assert.Equal(t, "Request to upstream service failed", NewRequestFailedError(0, "", nil).Message)
}

func TestNewExtractionFailedError_PreservesCause(t *testing.T) {
	inner := NewRateLimitError(stderrors.New("429"))
	wrapped := NewExtractionFailedError(inner)

	assert.Equal(t, ErrCodeExtractionFailed, wrapped.Code)
	assert.Equal(t, 429, wrapped.Status)
	assert.Equal(t, "RATE_LIMIT", wrapped.Details["causeCode"])
	assert.Equal(t, ErrCodeRateLimit, CauseCode(wrapped))
	assert.True(t, stderrors.Is(wrapped, ErrRateLimit))
}

func TestWithDetail_DoesNotMutate(t *testing.T) {
	base := NewInvalidInputError("rawText missing")
	next := base.WithDetail("field", "rawText")

	assert.NotContains(t, base.Details, "field")
	assert.Equal(t, "rawText", next.Details["field"])
	assert.Equal(t, "rawText missing", next.Details["reason"])
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *NormalizedError
		wantRetries int
		wantCat     string
	}{
		{"invalid input", NewInvalidInputError("x"), 0, "VALIDATION"},
		{"retries exhausted", NewRetriesExhaustedError(3, nil), 0, "UPSTREAM"},
		{"invalid json", NewInvalidJSONError("{", nil), 0, "MODEL_OUTPUT"},
		{"unhandled", NewUnhandledError(stderrors.New("x")), 1, "OTHER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, string(tt.err.Code), bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)
			assert.Equal(t, tt.wantCat, GetErrorCategory(tt.err.Code))

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, string(tt.err.Code), vars["errorCode"])
			payload, ok := vars["error"].(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, tt.err.Status, payload["status"])
		})
	}
}
