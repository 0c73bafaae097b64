// internal/workers/summons/compose-narrative/models.go
package composenarrative

import "summons-workers/internal/models"

type Input struct {
	Structured   models.CaseRecord       `json:"structured"`
	UserQuestion string                  `json:"userQuestion"`
	Weather      *models.WeatherReport   `json:"weather"`
	Transport    *models.TransportAdvice `json:"transport"`
	Poi          *models.PoiAdvice       `json:"poi"`
}

type Output struct {
	Narrative string `json:"narrative"`
}
