package summons

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"summons-workers/internal/models"
)

func TestSelectCategories(t *testing.T) {
	tests := []struct {
		name     string
		flags    models.CategoryFlags
		question string
		want     models.Categories
	}{
		{"no flags no question", models.CategoryFlags{}, "", models.Categories{}},
		{"weather keyword chinese", models.CategoryFlags{}, "开庭那天天气怎么样", models.Categories{Weather: true}},
		{"weather keyword case insensitive", models.CategoryFlags{}, "What's the WEATHER like?", models.Categories{Weather: true}},
		{"weather needs a word boundary", models.CategoryFlags{}, "weatherproof shoes", models.Categories{}},
		{"transport keyword", models.CategoryFlags{}, "怎么到达法院", models.Categories{Transport: true}},
		{"transport latin keyword", models.CategoryFlags{}, "best Route?", models.Categories{Transport: true}},
		{"poi keyword", models.CategoryFlags{}, "附近有什么好吃的", models.Categories{Poi: true}},
		{"poi latin keyword", models.CategoryFlags{}, "any poi nearby?", models.Categories{Poi: true}},
		{"poi inside a word", models.CategoryFlags{}, "my appointment time", models.Categories{}},
		{"line inside a word", models.CategoryFlags{}, "online deadline", models.Categories{}},
		{"line as a word", models.CategoryFlags{}, "which metro line", models.Categories{Transport: true}},
		{"several keywords", models.CategoryFlags{}, "天气和交通，还有周边景点", models.Categories{Weather: true, Transport: true, Poi: true}},
		{
			"explicit false beats keyword",
			models.CategoryFlags{IncludeWeather: boolPtr(false)},
			"天气",
			models.Categories{},
		},
		{
			"explicit true without keyword",
			models.CategoryFlags{IncludePoi: boolPtr(true)},
			"",
			models.Categories{Poi: true},
		},
		{
			"flags independent per category",
			models.CategoryFlags{IncludeTransport: boolPtr(false)},
			"天气 交通",
			models.Categories{Weather: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectCategories(tt.flags, tt.question))
		})
	}
}
