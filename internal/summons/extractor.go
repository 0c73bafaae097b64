package summons

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "summons-workers/internal/common/errors"
	"summons-workers/internal/models"
)

const extractionPrompt = `你是一名熟悉中国诉讼文书的法律助理。现在给你一份“开庭传票”的完整文字内容，请你从中提取以下字段，并以 JSON 格式返回（字段名必须是英文）：
- caseNumber: 案号
- cause: 案由
- hearingTime: 开庭时间（尽量保留原文中的完整时间表述）
- court: 法院名称
- courtAddress: 法院/开庭地址
- summonedPerson: 被传唤人姓名（如果有多个，以字符串形式合并）

要求：
1. 如果某个字段在文中找不到，值为 null。
2. 只返回一个 JSON 对象，不要有解释性文字。
3. 注意中国法院文书中的常见写法，如“案号：（2024）苏01民初1234号”等。

传票全文如下（原样）：
%s
`

// Extractor asks the model for the six case fields of a summons.
type Extractor struct {
	llm   JSONCompleter
	model string
}

func NewExtractor(llm JSONCompleter, model string) *Extractor {
	return &Extractor{llm: llm, model: model}
}

// BuildExtractionPrompt embeds rawText verbatim.
func BuildExtractionPrompt(rawText string) string {
	return fmt.Sprintf(extractionPrompt, rawText)
}

// Extract returns a record with all six fields set or nil. Errors from the LLM
// client are returned unchanged.
func (e *Extractor) Extract(ctx context.Context, rawText string) (*models.CaseRecord, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, apperrors.NewInvalidInputError("rawText must not be empty")
	}

	var fields map[string]interface{}
	if err := e.llm.CompleteInto(ctx, BuildExtractionPrompt(rawText), e.model, &fields); err != nil {
		return nil, err
	}

	return &models.CaseRecord{
		CaseNumber:     field(fields, "caseNumber"),
		Cause:          field(fields, "cause"),
		HearingTime:    field(fields, "hearingTime"),
		Court:          field(fields, "court"),
		CourtAddress:   field(fields, "courtAddress"),
		SummonedPerson: field(fields, "summonedPerson"),
		RawText:        rawText,
	}, nil
}

// field treats a missing key and an explicit null the same way. Non-string values
// are kept in their JSON form.
func field(fields map[string]interface{}, key string) *string {
	v, ok := fields[key]
	if !ok || v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return &s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}
