// Package answer synthesizes Korean answers from retrieved incident
// documents or aggregate results.
package answer

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"ikb/internal/config"
	ikberrors "ikb/internal/errors"
	"ikb/internal/intent"
	"ikb/internal/nlquery"
	"ikb/internal/retrieval"
	"ikb/internal/stats"
)

// instructions per intent. The model is told to say so when the
// documents do not cover the question, rather than invent content.
var instructions = map[intent.Intent]string{
	intent.Repair: `당신은 IT서비스 트러블슈팅 전문가입니다.
사용자의 서비스와 현상에 해당되는 대표 복구방법을 Top3로 요약해서 답변해주세요.
각 사례마다 원인, 현상, 조치방법을 구분해서 작성해주세요.
답변은 한국어로 작성하며, 제공된 문서에서 관련 정보를 찾을 수 없다면 그렇게 명시해주세요.`,

	intent.Cause: `당신은 장애 원인 분석 전문가입니다.
장애현상에 대한 대표적인 장애 원인을 원인별로 분류하여 간결하게 설명하세요.
장애 ID, 서비스명, 원인 유형 등의 구체적인 정보를 포함해주세요.
답변은 한국어로 작성하며, 제공된 문서에서 관련 정보를 찾을 수 없다면 그렇게 명시해주세요.`,

	intent.Similar: `당신은 유사 사례 추천 전문가입니다.
다른 서비스에서 유사한 장애 현상이 어떤 원인이었고 어떻게 처리됐는지 서비스별로 분류하여 설명하세요.
장애 ID, 서비스명, 원인, 복구방법 등의 구체적인 정보를 포함해주세요.
답변은 한국어로 작성하며, 제공된 문서에서 관련 정보를 찾을 수 없다면 그렇게 명시해주세요.`,

	intent.Inquiry: `당신은 과거 장애 이력 분석 전문가입니다.
조건에 맞는 장애 내역을 표 형식으로 요약하세요:
| 장애 ID | 서비스명 | 장애 원인 | 복구 방법 | 담당 부서 |
답변은 한국어로 작성하며, 제공된 문서에서 관련 정보를 찾을 수 없다면 그렇게 명시해주세요.`,

	intent.Statistics: `당신은 장애 통계 분석 전문가입니다.
제공된 집계 결과의 수치를 바꾸지 말고 그대로 사용해서 한국어로 간결하게 요약하세요.
집계에 없는 수치를 추정하거나 만들어내지 마세요.`,

	intent.Default: `당신은 IT 장애 이력 질의응답 도우미입니다.
제공된 장애 이력 문서를 근거로 한국어로 답변하세요.
제공된 문서에서 관련 정보를 찾을 수 없다면 그렇게 명시해주세요.`,
}

// Synthesizer generates answers through the OpenAI Responses API.
type Synthesizer struct {
	client    openai.Client
	model     string
	maxTokens int64
}

// NewSynthesizer builds a synthesizer from configuration. The API key
// comes from OPENAI_API_KEY.
func NewSynthesizer(cfg config.AnswerConfig) (*Synthesizer, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ikberrors.New(ikberrors.AnswerUnavailable, "missing OPENAI_API_KEY", nil)
	}
	maxTokens := int64(cfg.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = 1500
	}
	return &Synthesizer{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		model:     cfg.Model,
		maxTokens: maxTokens,
	}, nil
}

// FromDocuments answers a question from filtered incident documents.
func (s *Synthesizer) FromDocuments(ctx context.Context, query string, it intent.Intent, docs []retrieval.ScoredDocument) (string, error) {
	input := fmt.Sprintf("다음 장애 이력 문서들을 참고하여 질문에 답변해주세요:\n\n%s\n\n질문: %s\n\n답변:",
		DocumentContext(docs), query)
	return s.generate(ctx, it, input)
}

// FromStatistics answers a question from an aggregate result. The
// numbers in the summary must come from the result verbatim.
func (s *Synthesizer) FromStatistics(ctx context.Context, query string, cond *nlquery.Condition, result *stats.Result) (string, error) {
	input := fmt.Sprintf("다음 집계 결과를 참고하여 질문에 답변해주세요:\n\n%s\n\n질문: %s\n\n답변:",
		StatisticsContext(cond, result), query)
	return s.generate(ctx, intent.Statistics, input)
}

func (s *Synthesizer) generate(ctx context.Context, it intent.Intent, input string) (string, error) {
	instr, ok := instructions[it]
	if !ok {
		instr = instructions[intent.Default]
	}

	params := responses.ResponseNewParams{
		Model:           s.model,
		MaxOutputTokens: openai.Int(s.maxTokens),
		Instructions:    openai.String(instr),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(input, responses.EasyInputMessageRoleUser),
			},
		},
	}

	resp, err := callWithRetry(ctx, s.client, params)
	if err != nil {
		return "", ikberrors.New(ikberrors.AnswerUnavailable, "answer generation failed", err)
	}
	return strings.TrimSpace(resp.OutputText()), nil
}

// DocumentContext renders retrieved documents into the prompt context
// block, one numbered section per document.
func DocumentContext(docs []retrieval.ScoredDocument) string {
	var b strings.Builder
	for i, doc := range docs {
		r := doc.Record
		fmt.Fprintf(&b, "문서 %d:\n", i+1)
		fmt.Fprintf(&b, "장애 ID: %s\n", r.IncidentID)
		fmt.Fprintf(&b, "서비스명: %s\n", r.ServiceName)
		fmt.Fprintf(&b, "발생일시: %s\n", r.OccurredAt)
		fmt.Fprintf(&b, "장애 등급: %s\n", r.Grade)
		fmt.Fprintf(&b, "현상: %s\n", r.Symptom)
		fmt.Fprintf(&b, "영향도: %s\n", r.Effect)
		fmt.Fprintf(&b, "장애 원인: %s\n", r.RootCause)
		fmt.Fprintf(&b, "복구 방법: %s\n", r.Repair)
		fmt.Fprintf(&b, "개선 계획: %s\n", r.Plan)
		fmt.Fprintf(&b, "원인 유형: %s\n", r.CauseType)
		fmt.Fprintf(&b, "담당 부서: %s\n", r.OwnerDept)
		fmt.Fprintf(&b, "선별 근거: %s (%s)\n\n", doc.Reason, doc.QualityTier)
	}
	return strings.TrimRight(b.String(), "\n")
}

// StatisticsContext renders an aggregate result for the prompt. The
// totals appear explicitly so the model has no reason to re-derive
// them.
func StatisticsContext(cond *nlquery.Condition, result *stats.Result) string {
	var b strings.Builder

	unit := "건"
	if result.ValueLabel == stats.ValueLabelDuration {
		unit = "분"
	}

	if len(cond.GroupBy) > 0 {
		fmt.Fprintf(&b, "집계 기준: %s\n", dimLabels(cond.GroupBy))
	}
	for _, row := range result.Rows {
		if len(row.Dims) == 0 {
			fmt.Fprintf(&b, "- 합계: %d%s\n", row.Value, unit)
			continue
		}
		var keys []string
		for _, dim := range cond.GroupBy {
			if v, ok := row.Dims[dim]; ok {
				keys = append(keys, v)
			}
		}
		fmt.Fprintf(&b, "- %s: %d%s\n", strings.Join(keys, " / "), row.Value, unit)
	}
	fmt.Fprintf(&b, "전체 합계: %d%s\n", result.Total, unit)

	return strings.TrimRight(b.String(), "\n")
}

func dimLabels(dims []nlquery.Dimension) string {
	labels := map[nlquery.Dimension]string{
		nlquery.DimYear:       "연도별",
		nlquery.DimMonth:      "월별",
		nlquery.DimGrade:      "등급별",
		nlquery.DimWeek:       "요일별",
		nlquery.DimDaynight:   "시간대별",
		nlquery.DimDepartment: "부서별",
		nlquery.DimService:    "서비스별",
		nlquery.DimCause:      "원인유형별",
	}
	var parts []string
	for _, d := range dims {
		if l, ok := labels[d]; ok {
			parts = append(parts, l)
		} else {
			parts = append(parts, string(d))
		}
	}
	return strings.Join(parts, ", ")
}
