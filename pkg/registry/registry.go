// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"time"

	apperrors "summons-workers/internal/common/errors"
	"summons-workers/internal/common/validation"
)

//go:embed activities.json
var defaultRegistry []byte

// Default returns the registry compiled into the binary.
func Default() (*ActivityRegistry, error) {
	return parse(defaultRegistry)
}

// LoadRegistry reads a registry file; an empty path yields the embedded default.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

func parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	return &reg, nil
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// JobTimeout is the execution budget declared for taskType, or fallback when the
// task type is unknown or declares none.
func (r *ActivityRegistry) JobTimeout(taskType string, fallback time.Duration) time.Duration {
	activity, ok := r.Find(taskType)
	if !ok {
		return fallback
	}
	d, err := activity.ExecutionTimeout()
	if err != nil || d == 0 {
		return fallback
	}
	return d
}

// Validate checks required fields, duplicate IDs, timeouts, declared error codes and
// that every schema compiles.
func (r *ActivityRegistry) Validate() error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	ids := make(map[string]bool)
	for _, activity := range r.Activities {
		if activity.ID == "" {
			return fmt.Errorf("activity missing required field: ID")
		}
		if ids[activity.ID] {
			return fmt.Errorf("duplicate activity ID: %s", activity.ID)
		}
		ids[activity.ID] = true

		if activity.DisplayName == "" {
			return fmt.Errorf("activity %s missing required field: DisplayName", activity.ID)
		}
		if activity.TaskType == "" {
			return fmt.Errorf("activity %s missing required field: TaskType", activity.ID)
		}
		if activity.Category == "" {
			return fmt.Errorf("activity %s missing required field: Category", activity.ID)
		}
		if _, err := activity.ExecutionTimeout(); err != nil {
			return err
		}
		for _, code := range activity.ErrorCodes {
			if !knownErrorCode(apperrors.ErrorCode(code)) {
				return fmt.Errorf("activity %s declares unknown error code %s", activity.ID, code)
			}
		}
		if err := validation.CompileSchema(activity.InputSchema); err != nil {
			return fmt.Errorf("activity %s input schema: %w", activity.ID, err)
		}
		if err := validation.CompileSchema(activity.OutputSchema); err != nil {
			return fmt.Errorf("activity %s output schema: %w", activity.ID, err)
		}
	}
	return nil
}

func knownErrorCode(code apperrors.ErrorCode) bool {
	return code == apperrors.ErrCodeUnhandled || apperrors.GetErrorCategory(code) != "OTHER"
}

// ValidateInput checks job variables against the activity's input schema. Unknown
// task types are accepted; a schema violation is INVALID_INPUT.
func (r *ActivityRegistry) ValidateInput(taskType, variables string) error {
	activity, ok := r.Find(taskType)
	if !ok {
		return nil
	}
	res, err := validation.ValidateJSON(activity.InputSchema, variables)
	if err != nil {
		return apperrors.NewInvalidInputError(err.Error())
	}
	if !res.Valid {
		return apperrors.NewInvalidInputError(res.Summary()).WithDetail("errors", res.Errors)
	}
	return nil
}
