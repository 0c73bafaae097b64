package summons

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "summons-workers/internal/common/errors"
	"summons-workers/internal/common/logger"
	"summons-workers/internal/common/metrics"
	"summons-workers/internal/common/observability"
	"summons-workers/internal/models"
)

// RunState is the stage a pipeline run is in.
type RunState string

const (
	StateInit                  RunState = "INIT"
	StateExtracting            RunState = "EXTRACTING"
	StateSelectingAndGathering RunState = "SELECTING_AND_GATHERING"
	StateComposing             RunState = "COMPOSING"
	StateDone                  RunState = "DONE"
	StateFailed                RunState = "FAILED"
)

var transitions = map[RunState][]RunState{
	StateInit:                  {StateExtracting},
	StateExtracting:            {StateSelectingAndGathering, StateFailed},
	StateSelectingAndGathering: {StateComposing},
	StateComposing:             {StateDone},
}

// CanTransition reports whether next may follow s. FAILED is only reachable from EXTRACTING.
func (s RunState) CanTransition(next RunState) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s RunState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Result is either a payload (State DONE) or exactly one error (State FAILED).
type Result struct {
	RunID   string
	State   RunState
	Payload *models.AssistPayload
	Err     *apperrors.NormalizedError
}

func (r *Result) Ok() bool {
	return r.Err == nil && r.Payload != nil
}

type CaseExtractor interface {
	Extract(ctx context.Context, rawText string) (*models.CaseRecord, error)
}

type Gatherer interface {
	Gather(ctx context.Context, req models.EnrichmentRequest, categories models.Categories) (*models.EnrichmentResult, error)
}

// RunRecorder persists a finished run. Failures are logged, never surfaced.
type RunRecorder interface {
	RecordRun(ctx context.Context, rec models.RunRecord) error
}

type PipelineOptions struct {
	Recorder RunRecorder
	Logger   logger.Logger
	// DefaultStayHours replaces a missing stayDurationHours; zero means 2.
	DefaultStayHours float64
}

// Pipeline runs extract, select/gather and compose for one request at a time. It
// holds no per-run state.
type Pipeline struct {
	extractor        CaseExtractor
	gatherer         Gatherer
	recorder         RunRecorder
	defaultStayHours float64
	log              logger.Logger
	now              func() time.Time
}

func NewPipeline(extractor CaseExtractor, gatherer Gatherer, opts PipelineOptions) *Pipeline {
	p := &Pipeline{
		extractor:        extractor,
		gatherer:         gatherer,
		recorder:         opts.Recorder,
		defaultStayHours: opts.DefaultStayHours,
		log:              opts.Logger,
		now:              time.Now,
	}
	if p.defaultStayHours == 0 {
		p.defaultStayHours = DefaultStayHours
	}
	if p.log == nil {
		p.log = logger.NewNoOpLogger()
	}
	return p
}

type run struct {
	id         string
	state      RunState
	started    time.Time
	categories models.Categories
	log        logger.Logger
}

func (r *run) advance(next RunState) {
	if !r.state.CanTransition(next) {
		r.log.Error("illegal run state transition", map[string]interface{}{
			"from": string(r.state),
			"to":   string(next),
		})
	}
	r.state = next
	r.log.Debug("run state changed", map[string]interface{}{"state": string(next)})
}

// ValidateRequest checks an AssistRequest and returns the effective stay duration.
func ValidateRequest(req models.AssistRequest, defaultStayHours float64) (float64, error) {
	if strings.TrimSpace(req.RawText) == "" {
		return 0, apperrors.NewInvalidInputError("rawText is required")
	}
	if req.StayDurationHours == nil {
		return defaultStayHours, nil
	}
	if *req.StayDurationHours == 0 {
		return 0, apperrors.NewInvalidInputError("stayDurationHours must be between 0.5 and 6, got 0")
	}
	return NormalizeStayHours(*req.StayDurationHours)
}

// Run executes one pipeline run. Once extraction succeeds the run always reaches DONE.
func (p *Pipeline) Run(ctx context.Context, req models.AssistRequest) *Result {
	r := &run{id: uuid.NewString(), state: StateInit, started: p.now()}
	r.log = p.log.With(map[string]interface{}{"runId": r.id})

	r.advance(StateExtracting)
	stayHours, err := ValidateRequest(req, p.defaultStayHours)
	if err != nil {
		return p.fail(ctx, r, apperrors.AsNormalized(err))
	}

	record, err := p.extract(ctx, req.RawText)
	if err != nil {
		return p.fail(ctx, r, apperrors.NewExtractionFailedError(err))
	}

	r.advance(StateSelectingAndGathering)
	r.categories = SelectCategories(req.CategoryFlags, req.UserQuestion)
	enrichment := p.gather(ctx, r, models.EnrichmentRequest{
		Location:          ResolveLocation(*record),
		HearingTime:       record.HearingTime,
		StayDurationHours: stayHours,
	})

	r.advance(StateComposing)
	stageStart := time.Now()
	_, span := observability.StartSpan(ctx, "summons.compose")
	narrative := ComposeNarrative(*record, *enrichment, req.UserQuestion)
	span.End()
	metrics.PipelineStageDuration.WithLabelValues("compose").Observe(time.Since(stageStart).Seconds())

	r.advance(StateDone)
	payload := &models.AssistPayload{
		RunID:        r.id,
		Structured:   *record,
		UserQuestion: req.UserQuestion,
		Weather:      enrichment.Weather,
		Transport:    enrichment.Transport,
		Poi:          enrichment.Poi,
		Narrative:    narrative,
	}
	p.finish(ctx, r, "")
	return &Result{RunID: r.id, State: r.state, Payload: payload}
}

func (p *Pipeline) extract(ctx context.Context, rawText string) (*models.CaseRecord, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "summons.extract")
	record, err := p.extractor.Extract(ctx, rawText)
	observability.EndSpan(span, err)
	metrics.PipelineStageDuration.WithLabelValues("extract").Observe(time.Since(start).Seconds())
	return record, err
}

// gather never fails the run; an unexpected error degrades to an empty result.
func (p *Pipeline) gather(ctx context.Context, r *run, req models.EnrichmentRequest) *models.EnrichmentResult {
	start := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues("gather").Observe(time.Since(start).Seconds())
	}()

	result, err := p.gatherer.Gather(ctx, req, r.categories)
	if err != nil || result == nil {
		fields := map[string]interface{}{"location": req.Location}
		if err != nil {
			fields["error"] = err.Error()
		}
		r.log.Warn("enrichment skipped", fields)
		return &models.EnrichmentResult{}
	}
	return result
}

func (p *Pipeline) fail(ctx context.Context, r *run, ne *apperrors.NormalizedError) *Result {
	r.advance(StateFailed)
	r.log.Error("run failed", map[string]interface{}{
		"errorCode": string(ne.Code),
		"status":    ne.Status,
		"message":   ne.Message,
	})
	p.finish(ctx, r, string(ne.Code))
	return &Result{RunID: r.id, State: r.state, Err: ne}
}

func (p *Pipeline) finish(ctx context.Context, r *run, errorCode string) {
	metrics.PipelineRuns.WithLabelValues(string(r.state), errorCode).Inc()

	if p.recorder == nil {
		return
	}
	selected := r.categories.Selected()
	names := make([]string, len(selected))
	for i, c := range selected {
		names[i] = string(c)
	}
	rec := models.RunRecord{
		RunID:      r.id,
		State:      string(r.state),
		ErrorCode:  errorCode,
		Categories: names,
		Duration:   p.now().Sub(r.started),
		FinishedAt: p.now().UTC(),
	}
	if err := p.recorder.RecordRun(context.WithoutCancel(ctx), rec); err != nil {
		r.log.Warn("failed to record run", map[string]interface{}{"error": err.Error()})
	}
}
