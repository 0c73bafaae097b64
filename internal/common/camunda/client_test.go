package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "summons-workers/internal/common/errors"
)

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"read: connection reset by peer", true},
		{"rpc error: code = NotFound desc = job not found", false},
		{"rpc error: code = PermissionDenied", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isRetryableZeebeError(errors.New(tt.msg)), tt.msg)
	}
}

func TestMapZeebeError(t *testing.T) {
	tests := []struct {
		msg    string
		code   apperrors.ErrorCode
		status int
	}{
		{"deadline exceeded", apperrors.ErrCodeTimeout, 504},
		{"code = Unavailable", apperrors.ErrCodeUpstreamError, 502},
		{"job not found", apperrors.ErrCodeRequestFailed, 404},
		{"permission denied", apperrors.ErrCodeRequestFailed, 401},
		{"something odd", apperrors.ErrCodeUpstreamError, 502},
	}
	for _, tt := range tests {
		ne := mapZeebeError(errors.New(tt.msg), "complete", 0)
		assert.Equal(t, tt.code, ne.Code, tt.msg)
		assert.Equal(t, tt.status, ne.Status, tt.msg)
	}
}

func TestExecuteWithRetry(t *testing.T) {
	retry := &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	t.Run("recovers from transient failure", func(t *testing.T) {
		calls := 0
		res, err := executeWithRetry(context.Background(), retry, func(context.Context) (interface{}, error) {
			calls++
			if calls < 3 {
				return nil, errors.New("unavailable")
			}
			return "ok", nil
		}, "topology")
		require.NoError(t, err)
		assert.Equal(t, "ok", res)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent failure not retried", func(t *testing.T) {
		calls := 0
		_, err := executeWithRetry(context.Background(), retry, func(context.Context) (interface{}, error) {
			calls++
			return nil, errors.New("not found")
		}, "complete")
		assert.ErrorIs(t, err, apperrors.ErrRequestFailed)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after budget", func(t *testing.T) {
		calls := 0
		_, err := executeWithRetry(context.Background(), retry, func(context.Context) (interface{}, error) {
			calls++
			return nil, errors.New("connection refused")
		}, "topology")
		assert.ErrorIs(t, err, apperrors.ErrUpstream)
		assert.Equal(t, 3, calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		slow := &RetryConfig{MaxRetries: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}
		_, err := executeWithRetry(ctx, slow, func(context.Context) (interface{}, error) {
			return nil, errors.New("unavailable")
		}, "topology")
		assert.ErrorIs(t, err, apperrors.ErrTimeout)
	})
}
