package summons

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	apperrors "summons-workers/internal/common/errors"
	"summons-workers/internal/common/logger"
	"summons-workers/internal/common/metrics"
	"summons-workers/internal/common/observability"
	"summons-workers/internal/models"
)

const (
	DefaultStayHours = 2.0
	MinStayHours     = 0.5
	MaxStayHours     = 6.0
)

type WeatherFetcher interface {
	Current(ctx context.Context, location string) (*models.WeatherReport, error)
}

type TransportFetcher interface {
	Transport(ctx context.Context, location string, hearingTime *string) (*models.TransportAdvice, error)
}

type PoiFetcher interface {
	Poi(ctx context.Context, location string, stayHours float64) (*models.PoiAdvice, error)
}

// Orchestrator fans out one fetch per selected category. A failing category only
// clears its own slot.
type Orchestrator struct {
	weather   WeatherFetcher
	transport TransportFetcher
	poi       PoiFetcher
	log       logger.Logger
}

func NewOrchestrator(weather WeatherFetcher, transport TransportFetcher, poi PoiFetcher, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Orchestrator{weather: weather, transport: transport, poi: poi, log: log}
}

// NormalizeStayHours applies the 2 hour default to zero and rejects values outside [0.5, 6].
func NormalizeStayHours(hours float64) (float64, error) {
	if hours == 0 {
		return DefaultStayHours, nil
	}
	if hours < MinStayHours || hours > MaxStayHours {
		return 0, apperrors.NewInvalidInputError(fmt.Sprintf("stayDurationHours must be between %s and %s, got %s",
			formatNumber(MinStayHours), formatNumber(MaxStayHours), formatNumber(hours)))
	}
	return hours, nil
}

// Gather returns once every launched fetch has settled. The only error it returns
// is INVALID_INPUT for a malformed request.
func (o *Orchestrator) Gather(ctx context.Context, req models.EnrichmentRequest, categories models.Categories) (*models.EnrichmentResult, error) {
	stayHours, err := NormalizeStayHours(req.StayDurationHours)
	if err != nil {
		return nil, err
	}

	result := &models.EnrichmentResult{}
	location := strings.TrimSpace(req.Location)
	if !categories.Any() || location == "" {
		for _, cat := range categories.Selected() {
			metrics.EnrichmentOutcomes.WithLabelValues(string(cat), "skipped").Inc()
		}
		return result, nil
	}

	ctx, span := observability.StartSpan(ctx, "summons.gather", attribute.String("location", location))
	defer span.End()

	var g errgroup.Group
	g.SetLimit(len(models.AllCategories))

	if categories.Weather {
		o.launch(ctx, &g, models.CategoryWeather, func(ctx context.Context) error {
			if o.weather == nil {
				return errNoFetcher
			}
			report, err := o.weather.Current(ctx, location)
			if err != nil {
				return err
			}
			result.Weather = report
			return nil
		})
	}
	if categories.Transport {
		o.launch(ctx, &g, models.CategoryTransport, func(ctx context.Context) error {
			if o.transport == nil {
				return errNoFetcher
			}
			advice, err := o.transport.Transport(ctx, location, req.HearingTime)
			if err != nil {
				return err
			}
			result.Transport = advice
			return nil
		})
	}
	if categories.Poi {
		o.launch(ctx, &g, models.CategoryPoi, func(ctx context.Context) error {
			if o.poi == nil {
				return errNoFetcher
			}
			advice, err := o.poi.Poi(ctx, location, stayHours)
			if err != nil {
				return err
			}
			result.Poi = advice
			return nil
		})
	}

	// Tasks never return errors; Wait is only the join.
	_ = g.Wait()
	return result, nil
}

var errNoFetcher = fmt.Errorf("no fetcher configured")

// launch runs fetch as one isolated task. Each task writes only its own slot.
func (o *Orchestrator) launch(ctx context.Context, g *errgroup.Group, cat models.Category, fetch func(context.Context) error) {
	g.Go(func() error {
		taskCtx, span := observability.StartSpan(ctx, "summons.gather."+string(cat))
		err := safeFetch(taskCtx, fetch)
		observability.EndSpan(span, err)

		if err != nil {
			metrics.EnrichmentOutcomes.WithLabelValues(string(cat), "absorbed").Inc()
			o.log.Warn("enrichment fetch failed, slot left empty", map[string]interface{}{
				"category":  string(cat),
				"errorCode": string(apperrors.AsNormalized(err).Code),
				"error":     err.Error(),
			})
			return nil
		}
		metrics.EnrichmentOutcomes.WithLabelValues(string(cat), "ok").Inc()
		return nil
	})
}

func safeFetch(ctx context.Context, fetch func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.NewUnhandledError(fmt.Errorf("panic in enrichment fetch: %v", r))
		}
	}()
	return fetch(ctx)
}
