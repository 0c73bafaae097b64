// Package weather looks up current conditions through Open-Meteo compatible
// geocoding and forecast APIs.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	apperrors "summons-workers/internal/common/errors"
	"summons-workers/internal/models"
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultForecastURL  = "https://api.open-meteo.com/v1/forecast"

	currentFields = "temperature_2m,apparent_temperature,relative_humidity_2m,wind_speed_10m,wind_gusts_10m,weather_code"
)

var conditions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	95: "Thunderstorm",
}

// Describe maps a WMO weather code to text.
func Describe(code int) string {
	if s, ok := conditions[code]; ok {
		return s
	}
	return "Unknown"
}

type Config struct {
	GeocodingURL string
	ForecastURL  string
	HTTPClient   *http.Client
}

type Client struct {
	geocodingURL string
	forecastURL  string
	http         *http.Client
}

func NewClient(cfg Config) *Client {
	c := &Client{
		geocodingURL: cfg.GeocodingURL,
		forecastURL:  cfg.ForecastURL,
		http:         cfg.HTTPClient,
	}
	if c.geocodingURL == "" {
		c.geocodingURL = DefaultGeocodingURL
	}
	if c.forecastURL == "" {
		c.forecastURL = DefaultForecastURL
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	return c
}

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	Current struct {
		Temperature         float64 `json:"temperature_2m"`
		ApparentTemperature float64 `json:"apparent_temperature"`
		RelativeHumidity    float64 `json:"relative_humidity_2m"`
		WindSpeed           float64 `json:"wind_speed_10m"`
		WindGusts           float64 `json:"wind_gusts_10m"`
		WeatherCode         int     `json:"weather_code"`
	} `json:"current"`
}

// Current geocodes location and returns its current conditions. An unknown
// location is a REQUEST_FAILED error with status 404.
func (c *Client) Current(ctx context.Context, location string) (*models.WeatherReport, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, apperrors.NewInvalidInputError("location is required")
	}

	geoQuery := url.Values{}
	geoQuery.Set("name", location)
	geoQuery.Set("count", "1")

	var geo geocodingResponse
	if err := c.getJSON(ctx, c.geocodingURL, geoQuery, &geo); err != nil {
		return nil, err
	}
	if len(geo.Results) == 0 {
		return nil, apperrors.NewRequestFailedError(http.StatusNotFound, fmt.Sprintf("location not found: %s", location), nil)
	}
	place := geo.Results[0]

	fcQuery := url.Values{}
	fcQuery.Set("latitude", fmt.Sprintf("%f", place.Latitude))
	fcQuery.Set("longitude", fmt.Sprintf("%f", place.Longitude))
	fcQuery.Set("current", currentFields)
	fcQuery.Set("wind_speed_unit", "ms")

	var fc forecastResponse
	if err := c.getJSON(ctx, c.forecastURL, fcQuery, &fc); err != nil {
		return nil, err
	}

	name := place.Name
	if name == "" {
		name = location
	}
	return &models.WeatherReport{
		Location:    name,
		Temperature: fc.Current.Temperature,
		FeelsLike:   fc.Current.ApparentTemperature,
		Humidity:    fc.Current.RelativeHumidity,
		WindSpeed:   fc.Current.WindSpeed,
		WindGust:    fc.Current.WindGusts,
		Conditions:  Describe(fc.Current.WeatherCode),
	}, nil
}

func (c *Client) getJSON(ctx context.Context, base string, query url.Values, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+query.Encode(), nil)
	if err != nil {
		return apperrors.NewRequestFailedError(0, "build weather request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Classify(err, 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return apperrors.Classify(fmt.Errorf("weather api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return apperrors.NewRequestFailedError(http.StatusBadGateway, "decode weather response", err)
	}
	return nil
}
