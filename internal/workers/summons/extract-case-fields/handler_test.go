// internal/workers/summons/extract-case-fields/handler_test.go
package extractcasefields

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "summons-workers/internal/common/errors"
	"summons-workers/internal/models"
	"summons-workers/pkg/registry"
)

type TestLogger struct {
	t      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t, fields: make(map[string]interface{})}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &TestLogger{t: l.t, fields: merged}
}

type stubExtractor struct {
	record *models.CaseRecord
	err    error
	calls  int
}

func (s *stubExtractor) Extract(_ context.Context, _ string) (*models.CaseRecord, error) {
	s.calls++
	return s.record, s.err
}

func newHandler(t *testing.T, ex CaseExtractor) *Handler {
	reg, err := registry.Default()
	require.NoError(t, err)
	return NewHandler(&Config{Timeout: time.Second}, ex, reg, NewTestLogger(t))
}

func TestExecute_Success(t *testing.T) {
	ex := &stubExtractor{record: &models.CaseRecord{
		CaseNumber: models.StringPtr("(2024)沪0115民初123号"),
		Court:      models.StringPtr("上海市浦东新区人民法院"),
		RawText:    "传票",
	}}
	h := newHandler(t, ex)

	out, err := h.Execute(context.Background(), &Input{RawText: "传票"})
	require.NoError(t, err)
	assert.Equal(t, "(2024)沪0115民初123号", models.Deref(out.Structured.CaseNumber))
	assert.Nil(t, out.Structured.HearingTime)
	assert.Equal(t, 1, ex.calls)
}

func TestExecute_BlankTextIsInvalidInput(t *testing.T) {
	ex := &stubExtractor{}
	h := newHandler(t, ex)

	_, err := h.Execute(context.Background(), &Input{RawText: "  \n"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.AsNormalized(err).Code)
	assert.Zero(t, ex.calls)
}

func TestExecute_WrapsExtractionFailure(t *testing.T) {
	ex := &stubExtractor{err: apperrors.NewInvalidJSONError("not json", nil)}
	h := newHandler(t, ex)

	_, err := h.Execute(context.Background(), &Input{RawText: "传票"})
	require.Error(t, err)

	ne := apperrors.AsNormalized(err)
	assert.Equal(t, apperrors.ErrCodeExtractionFailed, ne.Code)
	assert.Equal(t, 502, ne.Status)
	assert.Equal(t, apperrors.ErrCodeInvalidJSON, apperrors.CauseCode(err))

	// classified failures are thrown to the process, not retried by the engine
	assert.Equal(t, 0, apperrors.ConvertToBPMNError(ne).Retries)
}

func TestParseInput(t *testing.T) {
	h := newHandler(t, &stubExtractor{})

	tests := []struct {
		name      string
		variables string
		wantErr   bool
	}{
		{name: "valid", variables: `{"rawText":"传票","otherVar":1}`},
		{name: "missing rawText", variables: `{"userQuestion":"天气"}`, wantErr: true},
		{name: "empty rawText", variables: `{"rawText":""}`, wantErr: true},
		{name: "wrong type", variables: `{"rawText":42}`, wantErr: true},
		{name: "not json", variables: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := h.parseInput(tt.variables)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.AsNormalized(err).Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "传票", input.RawText)
		})
	}
}
