package summons

import (
	"regexp"
	"strings"

	"summons-workers/internal/models"
)

var (
	weatherKeywords   = regexp.MustCompile(`\bweather\b|天气`)
	transportKeywords = regexp.MustCompile(`交通|到达|\broute\b|\bline\b`)
	poiKeywords       = regexp.MustCompile(`景点|周边|\bpoi\b|吃|玩`)
)

// SelectCategories decides which enrichments to fetch. An explicit flag always wins;
// otherwise the lowercased question is matched against each category's keywords.
func SelectCategories(flags models.CategoryFlags, question string) models.Categories {
	q := strings.ToLower(question)
	return models.Categories{
		Weather:   decide(flags.IncludeWeather, weatherKeywords, q),
		Transport: decide(flags.IncludeTransport, transportKeywords, q),
		Poi:       decide(flags.IncludePoi, poiKeywords, q),
	}
}

func decide(flag *bool, keywords *regexp.Regexp, question string) bool {
	if flag != nil {
		return *flag
	}
	return question != "" && keywords.MatchString(question)
}
