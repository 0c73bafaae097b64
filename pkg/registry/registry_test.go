package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "summons-workers/internal/common/errors"
)

func TestDefault_IsValid(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)
	require.NoError(t, reg.Validate())

	for _, taskType := range []string{
		"summons-extract-case-fields",
		"summons-gather-context",
		"summons-compose-narrative",
		"summons-assist",
	} {
		a, ok := reg.Find(taskType)
		require.True(t, ok, taskType)
		assert.Equal(t, "summons", a.Category)
	}
}

func TestValidateInput(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	assert.NoError(t, reg.ValidateInput("summons-assist", `{"rawText":"传票","includePoi":true}`))
	assert.NoError(t, reg.ValidateInput("unknown-task", `{}`))

	err = reg.ValidateInput("summons-assist", `{"rawText":"传票","stayDurationHours":12}`)
	require.Error(t, err)
	ne := apperrors.AsNormalized(err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, ne.Code)
	assert.Contains(t, ne.Details["reason"], "stayDurationHours")

	err = reg.ValidateInput("summons-extract-case-fields", `{}`)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestLoadRegistry(t *testing.T) {
	t.Run("empty path uses default", func(t *testing.T) {
		reg, err := LoadRegistry("")
		require.NoError(t, err)
		assert.Len(t, reg.Activities, 4)
	})

	t.Run("file override", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "registry.json")
		body := `{"version":"2","activities":[{"id":"a","displayName":"A","taskType":"a","category":"c"}]}`
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		reg, err := LoadRegistry(path)
		require.NoError(t, err)
		assert.Equal(t, "2", reg.Version)
		assert.NoError(t, reg.Validate())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		reg  ActivityRegistry
		want string
	}{
		{"empty", ActivityRegistry{}, "no activities"},
		{"duplicate", ActivityRegistry{Activities: []Activity{
			{ID: "a", DisplayName: "A", TaskType: "a", Category: "c"},
			{ID: "a", DisplayName: "A", TaskType: "a", Category: "c"},
		}}, "duplicate activity ID"},
		{"missing task type", ActivityRegistry{Activities: []Activity{{ID: "a", DisplayName: "A", Category: "c"}}}, "TaskType"},
		{"bad timeout", ActivityRegistry{Activities: []Activity{
			{ID: "a", DisplayName: "A", TaskType: "a", Category: "c", Timeout: "soon"},
		}}, "timeout"},
		{"negative timeout", ActivityRegistry{Activities: []Activity{
			{ID: "a", DisplayName: "A", TaskType: "a", Category: "c", Timeout: "-5s"},
		}}, "must be positive"},
		{"unknown error code", ActivityRegistry{Activities: []Activity{
			{ID: "a", DisplayName: "A", TaskType: "a", Category: "c", ErrorCodes: []string{"INVALID_INPUT", "CAPTCHA_FAILED"}},
		}}, "unknown error code CAPTCHA_FAILED"},
		{"bad schema", ActivityRegistry{Activities: []Activity{{
			ID: "a", DisplayName: "A", TaskType: "a", Category: "c",
			InputSchema: map[string]interface{}{"type": 5},
		}}}, "input schema"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestJobTimeout(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, reg.JobTimeout("summons-extract-case-fields", time.Second))
	assert.Equal(t, 120*time.Second, reg.JobTimeout("summons-assist", time.Second))
	assert.Equal(t, time.Second, reg.JobTimeout("unknown-task", time.Second))

	custom := &ActivityRegistry{Activities: []Activity{
		{ID: "a", TaskType: "a"},
		{ID: "b", TaskType: "b", Timeout: "bogus"},
	}}
	assert.Equal(t, 3*time.Second, custom.JobTimeout("a", 3*time.Second))
	assert.Equal(t, 3*time.Second, custom.JobTimeout("b", 3*time.Second))
}
