package summons

import (
	"context"
	"fmt"
	"strconv"

	"summons-workers/internal/models"
)

const notProvided = "未提供"

const transportPrompt = `你是一名熟悉中国主要城市交通的法律助理，收到法院或开庭地址后，需要给出到场交通建议。

请围绕以下要点生成 JSON：
- bestArrivalWindow: 给出建议提前多久到达，或在哪个时间段到达最稳妥。
- publicTransit: 2-3 条公共交通线路建议（地铁、公交等）。
- driving: 2-3 条自驾/停车建议。
- taxiOrRideHailing: 1-2 条打车或网约车建议。
- notes: 2-3 条补充提醒（如证件、时间预留、天气注意）。

输入信息：
- 地点：%s
- 开庭时间：%s

请务必返回严格的 JSON 对象，不要附加额外说明。`

const poiPrompt = `你是一名本地向导，需根据法院地点提供周边可短暂停留的景点、美食或服务设施推荐，适合当事人在等候或办事间隙使用。
请输出 JSON，字段如下：
- recommendations: 一个数组，元素包含 name、type（景点/美食/咖啡等）、distance（距离和交通方式）、highlights、tips。限 3 条以内。
- generalAdvice: 2-3 条总体建议（如排队时间、携带物品、注意安全等）。

地点：%s
可利用时间：约 %s 小时。`

// TransportAdvisor generates arrival advice through the LLM client.
type TransportAdvisor struct {
	llm   JSONCompleter
	model string
}

func NewTransportAdvisor(llm JSONCompleter, model string) *TransportAdvisor {
	return &TransportAdvisor{llm: llm, model: model}
}

func (a *TransportAdvisor) Transport(ctx context.Context, location string, hearingTime *string) (*models.TransportAdvice, error) {
	when := notProvided
	if hearingTime != nil && *hearingTime != "" {
		when = *hearingTime
	}

	var advice models.TransportAdvice
	if err := a.llm.CompleteInto(ctx, fmt.Sprintf(transportPrompt, location, when), a.model, &advice); err != nil {
		return nil, err
	}
	advice.PublicTransit = orEmpty(advice.PublicTransit)
	advice.Driving = orEmpty(advice.Driving)
	advice.TaxiOrRideHailing = orEmpty(advice.TaxiOrRideHailing)
	advice.Notes = orEmpty(advice.Notes)
	return &advice, nil
}

// PoiAdvisor generates nearby-place suggestions through the LLM client.
type PoiAdvisor struct {
	llm   JSONCompleter
	model string
}

func NewPoiAdvisor(llm JSONCompleter, model string) *PoiAdvisor {
	return &PoiAdvisor{llm: llm, model: model}
}

func (a *PoiAdvisor) Poi(ctx context.Context, location string, stayHours float64) (*models.PoiAdvice, error) {
	var advice models.PoiAdvice
	prompt := fmt.Sprintf(poiPrompt, location, formatNumber(stayHours))
	if err := a.llm.CompleteInto(ctx, prompt, a.model, &advice); err != nil {
		return nil, err
	}
	if advice.Recommendations == nil {
		advice.Recommendations = []models.PoiRecommendation{}
	}
	advice.GeneralAdvice = orEmpty(advice.GeneralAdvice)
	return &advice, nil
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
