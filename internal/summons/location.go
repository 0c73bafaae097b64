package summons

import (
	"regexp"
	"strings"

	"summons-workers/internal/models"
)

var (
	provincePrefix  = regexp.MustCompile(`^[^市州区县省]{2,7}?(?:省|自治区)`)
	adminUnit       = regexp.MustCompile(`[\p{Han}A-Za-z]+?(?:州市|市|州|区|县)`)
	addressSplitter = regexp.MustCompile(`[，,。\s]`)
)

// ResolveLocation picks the string used for enrichment lookups: the court name, then
// the first city/prefecture/district/county token of the address, then the first
// segment of the address, then the summoned person. Empty means no usable location.
func ResolveLocation(record models.CaseRecord) string {
	if court := strings.TrimSpace(models.Deref(record.Court)); court != "" {
		return court
	}

	address := strings.TrimSpace(models.Deref(record.CourtAddress))
	if address == "" {
		return strings.TrimSpace(models.Deref(record.SummonedPerson))
	}

	if unit := adminUnit.FindString(provincePrefix.ReplaceAllString(address, "")); unit != "" {
		return unit
	}
	for _, segment := range addressSplitter.Split(address, -1) {
		if segment != "" {
			return segment
		}
	}
	return address
}
