// internal/workers/summons/gather-context/handler_test.go
package gathercontext

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "summons-workers/internal/common/errors"
	"summons-workers/internal/models"
	"summons-workers/internal/summons"
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

type recordingGatherer struct {
	req        models.EnrichmentRequest
	categories models.Categories
	result     *models.EnrichmentResult
	err        error
}

func (g *recordingGatherer) Gather(_ context.Context, req models.EnrichmentRequest, categories models.Categories) (*models.EnrichmentResult, error) {
	g.req = req
	g.categories = categories
	return g.result, g.err
}

func newHandler(t *testing.T, g Gatherer) *Handler {
	reg, err := registry.Default()
	require.NoError(t, err)
	return NewHandler(&Config{Timeout: time.Second, DefaultStayHours: 2}, g, reg, NewTestLogger(t))
}

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func TestExecute_ResolvesLocationAndCategories(t *testing.T) {
	g := &recordingGatherer{result: &models.EnrichmentResult{
		Weather: &models.WeatherReport{Location: "南京市", Temperature: 21},
	}}
	h := newHandler(t, g)

	out, err := h.Execute(context.Background(), &Input{
		Structured: models.CaseRecord{
			HearingTime:  models.StringPtr("2024-05-01 09:30"),
			CourtAddress: models.StringPtr("江苏省南京市鼓楼区中山路1号"),
		},
		UserQuestion:  "明天天气怎么样？",
		CategoryFlags: models.CategoryFlags{IncludePoi: boolPtr(true)},
	})
	require.NoError(t, err)

	assert.Equal(t, "南京市", out.Location)
	assert.Equal(t, []string{"weather", "poi"}, out.Categories)
	assert.Equal(t, 21.0, out.Weather.Temperature)
	assert.Nil(t, out.Transport)
	assert.Nil(t, out.Poi)

	assert.Equal(t, "南京市", g.req.Location)
	assert.Equal(t, 2.0, g.req.StayDurationHours)
	assert.Equal(t, "2024-05-01 09:30", models.Deref(g.req.HearingTime))
	assert.Equal(t, models.Categories{Weather: true, Poi: true}, g.categories)
}

func TestExecute_StayDuration(t *testing.T) {
	tests := []struct {
		name     string
		stay     *float64
		want     float64
		wantCode apperrors.ErrorCode
	}{
		{name: "default", stay: nil, want: 2},
		{name: "explicit", stay: floatPtr(4.5), want: 4.5},
		{name: "explicit zero", stay: floatPtr(0), wantCode: apperrors.ErrCodeInvalidInput},
		{name: "too long", stay: floatPtr(7), wantCode: apperrors.ErrCodeInvalidInput},
		{name: "too short", stay: floatPtr(0.25), wantCode: apperrors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &recordingGatherer{result: &models.EnrichmentResult{}}
			h := newHandler(t, g)

			_, err := h.Execute(context.Background(), &Input{
				Structured:        models.CaseRecord{Court: models.StringPtr("北京市朝阳区人民法院")},
				StayDurationHours: tt.stay,
			})
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.AsNormalized(err).Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.req.StayDurationHours)
		})
	}
}

func TestExecute_NilResultYieldsEmptySlots(t *testing.T) {
	h := newHandler(t, &recordingGatherer{})

	out, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.Empty(t, out.Location)
	assert.Empty(t, out.Categories)
	assert.Nil(t, out.Weather)
}

func TestExecute_PropagatesGatherError(t *testing.T) {
	h := newHandler(t, &recordingGatherer{err: errors.New("boom")})

	_, err := h.Execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeUnhandled, apperrors.AsNormalized(err).Code)
}

func TestExecute_WithOrchestratorIsolatesFailures(t *testing.T) {
	weather := weatherFunc(func(context.Context, string) (*models.WeatherReport, error) {
		return nil, apperrors.NewRequestFailedError(404, "location not found", nil)
	})
	transport := transportFunc(func(context.Context, string, *string) (*models.TransportAdvice, error) {
		return &models.TransportAdvice{PublicTransit: []string{"地铁2号线"}}, nil
	})
	orch := summons.NewOrchestrator(weather, transport, nil, nil)
	h := newHandler(t, orch)

	out, err := h.Execute(context.Background(), &Input{
		Structured: models.CaseRecord{Court: models.StringPtr("上海市第一中级人民法院")},
		CategoryFlags: models.CategoryFlags{
			IncludeWeather:   boolPtr(true),
			IncludeTransport: boolPtr(true),
		},
	})
	require.NoError(t, err)
	assert.Nil(t, out.Weather)
	require.NotNil(t, out.Transport)
	assert.Equal(t, []string{"地铁2号线"}, out.Transport.PublicTransit)
}

func TestParseInput(t *testing.T) {
	h := newHandler(t, &recordingGatherer{})

	input, err := h.parseInput(`{"structured":{"court":"杭州市西湖区人民法院","cause":null},"includeWeather":false,"stayDurationHours":3}`)
	require.NoError(t, err)
	assert.Equal(t, "杭州市西湖区人民法院", models.Deref(input.Structured.Court))
	assert.Nil(t, input.Structured.Cause)
	require.NotNil(t, input.IncludeWeather)
	assert.False(t, *input.IncludeWeather)
	assert.Equal(t, 3.0, *input.StayDurationHours)

	_, err = h.parseInput(`{"userQuestion":"天气"}`)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.AsNormalized(err).Code)

	_, err = h.parseInput(`{"structured":{},"stayDurationHours":9}`)
	require.Error(t, err)
}

type weatherFunc func(context.Context, string) (*models.WeatherReport, error)

func (f weatherFunc) Current(ctx context.Context, location string) (*models.WeatherReport, error) {
	return f(ctx, location)
}

type transportFunc func(context.Context, string, *string) (*models.TransportAdvice, error)

func (f transportFunc) Transport(ctx context.Context, location string, hearingTime *string) (*models.TransportAdvice, error) {
	return f(ctx, location, hearingTime)
}
