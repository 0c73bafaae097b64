package summons

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "summons-workers/internal/common/errors"
	"summons-workers/internal/models"
)

func TestTransportAdvisor_DefaultsMissingLists(t *testing.T) {
	llm := &fakeLLM{respond: func(string) (string, error) {
		return `{"bestArrivalWindow":"提前30分钟","publicTransit":["地铁1号线"]}`, nil
	}}

	advice, err := NewTransportAdvisor(llm, "m").Transport(context.Background(), "南京市", nil)
	require.NoError(t, err)

	assert.Equal(t, "提前30分钟", models.Deref(advice.BestArrivalWindow))
	assert.Equal(t, []string{"地铁1号线"}, advice.PublicTransit)
	assert.NotNil(t, advice.Driving)
	assert.Empty(t, advice.Driving)
	assert.NotNil(t, advice.TaxiOrRideHailing)
	assert.NotNil(t, advice.Notes)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "地点：南京市")
	assert.Contains(t, llm.prompts[0], "开庭时间：未提供")
}

func TestTransportAdvisor_UsesHearingTime(t *testing.T) {
	llm := &fakeLLM{respond: func(string) (string, error) { return `{}`, nil }}
	hint := "2024年5月1日9:00"

	advice, err := NewTransportAdvisor(llm, "m").Transport(context.Background(), "南京市", &hint)
	require.NoError(t, err)
	assert.Nil(t, advice.BestArrivalWindow)
	assert.Contains(t, llm.prompts[0], "开庭时间：2024年5月1日9:00")
}

func TestPoiAdvisor(t *testing.T) {
	llm := &fakeLLM{respond: func(string) (string, error) {
		return `{"recommendations":[{"name":"玄武湖","type":"景点","distance":"步行10分钟","highlights":"湖景","tips":"带伞"}]}`, nil
	}}

	advice, err := NewPoiAdvisor(llm, "m").Poi(context.Background(), "南京市", 1.5)
	require.NoError(t, err)
	require.Len(t, advice.Recommendations, 1)
	assert.Equal(t, "玄武湖", advice.Recommendations[0].Name)
	assert.NotNil(t, advice.GeneralAdvice)
	assert.Contains(t, llm.prompts[0], "约 1.5 小时")
}

func TestPoiAdvisor_EmptyResponse(t *testing.T) {
	llm := &fakeLLM{respond: func(string) (string, error) { return `{}`, nil }}

	advice, err := NewPoiAdvisor(llm, "m").Poi(context.Background(), "南京市", 2)
	require.NoError(t, err)
	assert.NotNil(t, advice.Recommendations)
	assert.Empty(t, advice.Recommendations)
	assert.Contains(t, llm.prompts[0], "约 2 小时")
}

func TestAdvisors_PropagateErrors(t *testing.T) {
	want := apperrors.NewTimeoutError(nil)
	llm := &fakeLLM{respond: func(string) (string, error) { return "", want }}

	_, err := NewTransportAdvisor(llm, "m").Transport(context.Background(), "x", nil)
	assert.Same(t, want, err)
	_, err = NewPoiAdvisor(llm, "m").Poi(context.Background(), "x", 2)
	assert.Same(t, want, err)
}
