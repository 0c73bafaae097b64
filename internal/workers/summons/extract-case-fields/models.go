// internal/workers/summons/extract-case-fields/models.go
package extractcasefields

import "summons-workers/internal/models"

type Input struct {
	RawText string `json:"rawText"`
}

type Output struct {
	Structured models.CaseRecord `json:"structured"`
}
