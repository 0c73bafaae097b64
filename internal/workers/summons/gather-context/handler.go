// internal/workers/summons/gather-context/handler.go
package gathercontext

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "summons-workers/internal/common/errors"
	"summons-workers/internal/common/metrics"
	"summons-workers/internal/models"
	"summons-workers/internal/summons"
)

const (
	TaskType = "summons-gather-context"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Gatherer interface {
	Gather(ctx context.Context, req models.EnrichmentRequest, categories models.Categories) (*models.EnrichmentResult, error)
}

type InputValidator interface {
	ValidateInput(taskType, variables string) error
}

type Handler struct {
	config     *Config
	gatherer   Gatherer
	validator  InputValidator
	errHandler *apperrors.ErrorHandler
	logger     Logger
}

func NewHandler(config *Config, gatherer Gatherer, validator InputValidator, log Logger) *Handler {
	l := log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		gatherer:   gatherer,
		validator:  validator,
		errHandler: apperrors.NewErrorHandler(l),
		logger:     l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	input, err := h.parseInput(job.Variables)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":     job.Key,
		"categories": output.Categories,
		"duration":   time.Since(start).Milliseconds(),
	})
}

func (h *Handler) parseInput(variables string) (*Input, error) {
	if h.validator != nil {
		if err := h.validator.ValidateInput(TaskType, variables); err != nil {
			return nil, err
		}
	}
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidInputError("parse input: " + err.Error())
	}
	return &input, nil
}

// Execute resolves the lookup location, selects categories and fans out. Only a
// malformed stay duration fails; category failures leave their slot null.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	stayHours := h.config.DefaultStayHours
	if input.StayDurationHours != nil {
		if *input.StayDurationHours == 0 {
			return nil, apperrors.NewInvalidInputError("stayDurationHours must be between 0.5 and 6, got 0")
		}
		stayHours = *input.StayDurationHours
	}
	stayHours, err := summons.NormalizeStayHours(stayHours)
	if err != nil {
		return nil, err
	}

	location := summons.ResolveLocation(input.Structured)
	categories := summons.SelectCategories(input.CategoryFlags, input.UserQuestion)

	result, err := h.gatherer.Gather(ctx, models.EnrichmentRequest{
		Location:          location,
		HearingTime:       input.Structured.HearingTime,
		StayDurationHours: stayHours,
	}, categories)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &models.EnrichmentResult{}
	}

	selected := categories.Selected()
	names := make([]string, len(selected))
	for i, c := range selected {
		names[i] = string(c)
	}

	return &Output{
		Location:   location,
		Categories: names,
		Weather:    result.Weather,
		Transport:  result.Transport,
		Poi:        result.Poi,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	ne := apperrors.AsNormalized(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(ne.Code)).Inc()
	h.errHandler.HandleJobError(context.Background(), client, job, ne)
}
