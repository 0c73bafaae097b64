// internal/workers/summons/compose-narrative/handler.go
package composenarrative

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "summons-workers/internal/common/errors"
	"summons-workers/internal/common/metrics"
	"summons-workers/internal/models"
	"summons-workers/internal/summons"
)

const (
	TaskType = "summons-compose-narrative"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type InputValidator interface {
	ValidateInput(taskType, variables string) error
}

// Handler has no outbound calls; composition is pure.
type Handler struct {
	config     *Config
	validator  InputValidator
	errHandler *apperrors.ErrorHandler
	logger     Logger
}

func NewHandler(config *Config, validator InputValidator, log Logger) *Handler {
	l := log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		validator:  validator,
		errHandler: apperrors.NewErrorHandler(l),
		logger:     l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	if h.validator != nil {
		if err := h.validator.ValidateInput(TaskType, job.Variables); err != nil {
			h.fail(client, job, err)
			return
		}
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, apperrors.NewInvalidInputError("parse input: "+err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

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
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	narrative := summons.ComposeNarrative(input.Structured, models.EnrichmentResult{
		Weather:   input.Weather,
		Transport: input.Transport,
		Poi:       input.Poi,
	}, input.UserQuestion)
	return &Output{Narrative: narrative}, nil
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	ne := apperrors.AsNormalized(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(ne.Code)).Inc()
	h.errHandler.HandleJobError(context.Background(), client, job, ne)
}
