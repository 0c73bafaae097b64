// internal/models/summons.go
package models

import "time"

// CaseRecord holds the six fields extracted from a summons. A nil field means the
// model reported the value as absent; the key itself is always serialized.
type CaseRecord struct {
	CaseNumber     *string `json:"caseNumber"`
	Cause          *string `json:"cause"`
	HearingTime    *string `json:"hearingTime"`
	Court          *string `json:"court"`
	CourtAddress   *string `json:"courtAddress"`
	SummonedPerson *string `json:"summonedPerson"`
	RawText        string  `json:"rawText"`
}

// StringPtr is a convenience for building records in code and tests.
func StringPtr(s string) *string {
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Category names one enrichment slot.
type Category string

const (
	CategoryWeather   Category = "weather"
	CategoryTransport Category = "transport"
	CategoryPoi       Category = "poi"
)

// AllCategories is the fixed fan-out order; results are keyed, not ordered.
var AllCategories = []Category{CategoryWeather, CategoryTransport, CategoryPoi}

// CategoryFlags carries the caller's explicit overrides; nil means "not provided".
type CategoryFlags struct {
	IncludeWeather   *bool `json:"includeWeather,omitempty"`
	IncludeTransport *bool `json:"includeTransport,omitempty"`
	IncludePoi       *bool `json:"includePoi,omitempty"`
}

// Categories is the resolved selection.
type Categories struct {
	Weather   bool `json:"weather"`
	Transport bool `json:"transport"`
	Poi       bool `json:"poi"`
}

// Any reports whether at least one category is selected.
func (c Categories) Any() bool {
	return c.Weather || c.Transport || c.Poi
}

// Has reports whether the named category is selected.
func (c Categories) Has(cat Category) bool {
	switch cat {
	case CategoryWeather:
		return c.Weather
	case CategoryTransport:
		return c.Transport
	case CategoryPoi:
		return c.Poi
	}
	return false
}

// Selected lists the chosen categories in fan-out order.
func (c Categories) Selected() []Category {
	out := make([]Category, 0, len(AllCategories))
	for _, cat := range AllCategories {
		if c.Has(cat) {
			out = append(out, cat)
		}
	}
	return out
}

// EnrichmentRequest is the input of the enrichment fan-out.
type EnrichmentRequest struct {
	Location          string  `json:"location"`
	HearingTime       *string `json:"hearingTime,omitempty"`
	StayDurationHours float64 `json:"stayDurationHours"`
}

// WeatherReport is the current conditions at the resolved location.
type WeatherReport struct {
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feelsLike"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	WindGust    float64 `json:"windGust"`
	Conditions  string  `json:"conditions"`
}

// TransportAdvice lists are never nil once produced by a fetcher.
type TransportAdvice struct {
	BestArrivalWindow *string  `json:"bestArrivalWindow"`
	PublicTransit     []string `json:"publicTransit"`
	Driving           []string `json:"driving"`
	TaxiOrRideHailing []string `json:"taxiOrRideHailing"`
	Notes             []string `json:"notes"`
}

type PoiRecommendation struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Distance   string `json:"distance"`
	Highlights string `json:"highlights"`
	Tips       string `json:"tips"`
}

type PoiAdvice struct {
	Recommendations []PoiRecommendation `json:"recommendations"`
	GeneralAdvice   []string            `json:"generalAdvice"`
}

// EnrichmentResult has one independent slot per category; nil means not fetched or failed.
type EnrichmentResult struct {
	Weather   *WeatherReport   `json:"weather"`
	Transport *TransportAdvice `json:"transport"`
	Poi       *PoiAdvice       `json:"poi"`
}

// AssistRequest is the input of a full pipeline run.
type AssistRequest struct {
	RawText           string   `json:"rawText"`
	UserQuestion      string   `json:"userQuestion,omitempty"`
	StayDurationHours *float64 `json:"stayDurationHours,omitempty"`
	CategoryFlags
}

// AssistPayload is the success payload of a pipeline run.
type AssistPayload struct {
	RunID        string           `json:"runId"`
	Structured   CaseRecord       `json:"structured"`
	UserQuestion string           `json:"userQuestion,omitempty"`
	Weather      *WeatherReport   `json:"weather"`
	Transport    *TransportAdvice `json:"transport"`
	Poi          *PoiAdvice       `json:"poi"`
	Narrative    string           `json:"narrative"`
}

// RunRecord is the audit row written once a pipeline run finishes.
type RunRecord struct {
	RunID      string
	State      string
	ErrorCode  string
	Categories []string
	Duration   time.Duration
	FinishedAt time.Time
}
