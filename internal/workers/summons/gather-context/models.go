// internal/workers/summons/gather-context/models.go
package gathercontext

import "summons-workers/internal/models"

type Input struct {
	Structured        models.CaseRecord `json:"structured"`
	UserQuestion      string            `json:"userQuestion"`
	StayDurationHours *float64          `json:"stayDurationHours"`
	models.CategoryFlags
}

type Output struct {
	Location   string                  `json:"location"`
	Categories []string                `json:"categories"`
	Weather    *models.WeatherReport   `json:"weather"`
	Transport  *models.TransportAdvice `json:"transport"`
	Poi        *models.PoiAdvice       `json:"poi"`
}
