package summons

import (
	"fmt"
	"strings"

	"summons-workers/internal/models"
)

// MaxPoiEntries caps the places listed in a narrative.
const MaxPoiEntries = 3

// ComposeNarrative renders the record and whatever enrichment succeeded. It is pure:
// equal inputs always give equal text.
func ComposeNarrative(record models.CaseRecord, enrichment models.EnrichmentResult, question string) string {
	lines := []string{
		"以下是传票关键信息：",
		labeled("案号", record.CaseNumber),
		labeled("案由", record.Cause),
		labeled("开庭时间", record.HearingTime),
		labeled("法院", record.Court),
		labeled("开庭地址", record.CourtAddress),
		labeled("被传唤人", record.SummonedPerson),
	}

	if w := enrichment.Weather; w != nil {
		lines = append(lines, fmt.Sprintf("\n天气提示：%s 当前气温约 %s°C（体感 %s°C），湿度 %s%% ，风速 %sm/s，天气状况为 %s。",
			w.Location, formatNumber(w.Temperature), formatNumber(w.FeelsLike),
			formatNumber(w.Humidity), formatNumber(w.WindSpeed), w.Conditions))
	}

	if t := enrichment.Transport; t != nil {
		if t.BestArrivalWindow != nil && *t.BestArrivalWindow != "" {
			lines = append(lines, "\n抵达时间建议："+*t.BestArrivalWindow)
		}
		lines = appendList(lines, "公共交通：", t.PublicTransit)
		lines = appendList(lines, "自驾/停车：", t.Driving)
		lines = appendList(lines, "打车/网约车：", t.TaxiOrRideHailing)
		lines = appendList(lines, "交通注意事项：", t.Notes)
	}

	if p := enrichment.Poi; p != nil {
		if len(p.Recommendations) > 0 {
			lines = append(lines, "\n附近可短暂停留的地点：")
			recs := p.Recommendations
			if len(recs) > MaxPoiEntries {
				recs = recs[:MaxPoiEntries]
			}
			for _, rec := range recs {
				lines = append(lines, fmt.Sprintf("- %s（%s，%s）：亮点 %s；小贴士：%s",
					rec.Name, rec.Type, rec.Distance, rec.Highlights, rec.Tips))
			}
		}
		lines = appendList(lines, "补充建议：", p.GeneralAdvice)
	}

	if question != "" {
		lines = append(lines, fmt.Sprintf("\n针对你的问题「%s」，以上信息已全部覆盖。", question))
	}

	return strings.Join(lines, "\n")
}

func labeled(label string, value *string) string {
	v := notProvided
	if value != nil {
		v = *value
	}
	return "- " + label + "：" + v
}

func appendList(lines []string, heading string, items []string) []string {
	if len(items) == 0 {
		return lines
	}
	bullets := make([]string, len(items))
	for i, item := range items {
		bullets[i] = "• " + item
	}
	return append(lines, heading+strings.Join(bullets, "；"))
}
