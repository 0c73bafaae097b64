// internal/workers/summons/extract-case-fields/handler.go
package extractcasefields

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "summons-workers/internal/common/errors"
	"summons-workers/internal/common/metrics"
	"summons-workers/internal/models"
)

const (
	TaskType = "summons-extract-case-fields"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type CaseExtractor interface {
	Extract(ctx context.Context, rawText string) (*models.CaseRecord, error)
}

// InputValidator checks raw job variables against the activity input schema.
type InputValidator interface {
	ValidateInput(taskType, variables string) error
}

type Handler struct {
	config     *Config
	extractor  CaseExtractor
	validator  InputValidator
	errHandler *apperrors.ErrorHandler
	logger     Logger
}

func NewHandler(config *Config, extractor CaseExtractor, validator InputValidator, log Logger) *Handler {
	l := log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		extractor:  extractor,
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
		"jobKey":   job.Key,
		"duration": time.Since(start).Milliseconds(),
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

// Execute extracts the case record. Blank text is INVALID_INPUT; every other
// failure is reported as EXTRACTION_FAILED carrying the underlying classification.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.RawText) == "" {
		return nil, apperrors.NewInvalidInputError("rawText is required")
	}

	record, err := h.extractor.Extract(ctx, input.RawText)
	if err != nil {
		return nil, apperrors.NewExtractionFailedError(err)
	}

	h.logger.Info("case fields extracted", map[string]interface{}{
		"hasCaseNumber":   record.CaseNumber != nil,
		"hasCourtAddress": record.CourtAddress != nil,
	})
	return &Output{Structured: *record}, nil
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
