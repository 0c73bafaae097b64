// internal/workers/summons/summons-assist/handler.go
package summonsassist

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
	TaskType = "summons-assist"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Runner interface {
	Run(ctx context.Context, req models.AssistRequest) *summons.Result
}

type InputValidator interface {
	ValidateInput(taskType, variables string) error
}

// RunObserver receives the terminal state of every run handled by this worker.
type RunObserver interface {
	RecordRun(ctx context.Context, state, errorCode string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string)
}

type HandlerOptions struct {
	Config    *Config
	Runner    Runner
	Validator InputValidator
	Observer  RunObserver
	Logger    Logger
}

type Handler struct {
	config     *Config
	runner     Runner
	validator  InputValidator
	observer   RunObserver
	errHandler *apperrors.ErrorHandler
	logger     Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	cfg := opts.Config
	if cfg == nil {
		cfg = LoadConfig()
	}
	l := opts.Logger.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     cfg,
		runner:     opts.Runner,
		validator:  opts.Validator,
		observer:   opts.Observer,
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

	if h.validator != nil {
		if err := h.validator.ValidateInput(TaskType, job.Variables); err != nil {
			h.fail(client, job, err, start)
			return
		}
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, apperrors.NewInvalidInputError("parse input: "+err.Error()), start)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(client, job, err, start)
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
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	if h.observer != nil {
		h.observer.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
	}
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":   job.Key,
		"runId":    output.RunID,
		"duration": time.Since(start).Milliseconds(),
	})
}

// Execute performs one pipeline run. The returned error is the run's single
// NormalizedError when it ends FAILED.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result := h.runner.Run(ctx, *input)

	if h.observer != nil {
		code := ""
		if result.Err != nil {
			code = string(result.Err.Code)
		}
		h.observer.RecordRun(ctx, string(result.State), code)
	}

	if !result.Ok() {
		if result.Err == nil {
			return nil, apperrors.NewUnhandledError(nil)
		}
		return nil, result.Err
	}
	return result.Payload, nil
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error, start time.Time) {
	ne := apperrors.AsNormalized(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(ne.Code)).Inc()
	if h.observer != nil {
		h.observer.RecordJobDuration(context.Background(), TaskType, time.Since(start), "failed")
	}
	h.errHandler.HandleJobError(context.Background(), client, job, ne)
}
