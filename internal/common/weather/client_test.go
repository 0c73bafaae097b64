package weather

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "summons-workers/internal/common/errors"
)

func newStubServer(t *testing.T, geo string, forecastStatus int, forecast string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("count"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(geo))
	})
	mux.HandleFunc("/v1/forecast", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "ms", q.Get("wind_speed_unit"))
		assert.Equal(t, currentFields, q.Get("current"))
		assert.NotEmpty(t, q.Get("latitude"))
		w.WriteHeader(forecastStatus)
		_, _ = w.Write([]byte(forecast))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{
		GeocodingURL: srv.URL + "/v1/search",
		ForecastURL:  srv.URL + "/v1/forecast",
		HTTPClient:   srv.Client(),
	})
}

func TestClient_Current(t *testing.T) {
	forecast, _ := json.Marshal(map[string]interface{}{
		"current": map[string]interface{}{
			"temperature_2m":       21.5,
			"apparent_temperature": 20,
			"relative_humidity_2m": 65,
			"wind_speed_10m":       3.2,
			"wind_gusts_10m":       7.1,
			"weather_code":         2,
		},
	})
	srv := newStubServer(t, `{"results":[{"name":"Nanjing","latitude":32.06,"longitude":118.78}]}`, http.StatusOK, string(forecast))

	report, err := newTestClient(srv).Current(context.Background(), "南京市")
	require.NoError(t, err)
	assert.Equal(t, "Nanjing", report.Location)
	assert.Equal(t, 21.5, report.Temperature)
	assert.Equal(t, 20.0, report.FeelsLike)
	assert.Equal(t, 65.0, report.Humidity)
	assert.Equal(t, 3.2, report.WindSpeed)
	assert.Equal(t, 7.1, report.WindGust)
	assert.Equal(t, "Partly cloudy", report.Conditions)
}

func TestClient_Current_UnknownLocation(t *testing.T) {
	srv := newStubServer(t, `{}`, http.StatusOK, `{}`)

	_, err := newTestClient(srv).Current(context.Background(), "Atlantis")
	ne := apperrors.AsNormalized(err)
	require.NotNil(t, ne)
	assert.Equal(t, apperrors.ErrCodeRequestFailed, ne.Code)
	assert.Equal(t, http.StatusNotFound, ne.Status)
}

func TestClient_Current_UpstreamFailure(t *testing.T) {
	srv := newStubServer(t, `{"results":[{"name":"X","latitude":1,"longitude":2}]}`, http.StatusServiceUnavailable, `down`)

	_, err := newTestClient(srv).Current(context.Background(), "X")
	ne := apperrors.AsNormalized(err)
	require.NotNil(t, ne)
	assert.Equal(t, apperrors.ErrCodeUpstreamError, ne.Code)
}

func TestClient_Current_EmptyLocation(t *testing.T) {
	_, err := NewClient(Config{}).Current(context.Background(), " ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Clear sky", Describe(0))
	assert.Equal(t, "Heavy snow fall", Describe(75))
	assert.Equal(t, "Thunderstorm", Describe(95))
	assert.Equal(t, "Unknown", Describe(99))
}
