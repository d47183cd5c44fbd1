// Package prediction は昇進予測機能を提供する。
// ルールベースのスコアリングを基本とし、生成AIによる予測を優先的に試行する。
package prediction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/hitoshi/jurnal/internal/model"
	"github.com/hitoshi/jurnal/internal/repository"
)

// maxTextFieldLength は会社名・役職名の保存時の文字数上限。
const maxTextFieldLength = 255

// ratingWeights は評価文字列ごとのスコア加算値。
var ratingWeights = map[string]float64{
	"Needs Improvement":    0.1,
	"Meets Expectations":   0.3,
	"Exceeds Expectations": 0.5,
	"Outstanding":          0.7,
}

// genaiSystemInstruction は生成AI予測の出力形式を固定するための指示。
const genaiSystemInstruction = `You are an HR analytics assistant. Respond ONLY with a JSON object in this exact format, no markdown and no explanation:
{"promotion_likelihood": true, "min_hike": 12.5, "max_hike": 25.0, "confidence_score": 0.82}
min_hike and max_hike are salary hike percentages. confidence_score is between 0 and 1.`

// TextGenerator はテキスト生成のインターフェース。
type TextGenerator interface {
	Generate(ctx context.Context, userPrompt, systemInstruction string) (string, error)
}

// Service は昇進予測サービス。
type Service struct {
	predictions repository.PredictionRepository
	generator   TextGenerator
	logger      *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(predictions repository.PredictionRepository, generator TextGenerator, logger *slog.Logger) *Service {
	return &Service{predictions: predictions, generator: generator, logger: logger}
}

// Predict は昇進予測を実行する。
// 入力を文字数上限に切り詰めて記録した上で、生成AIによる予測を試行し、
// 失敗した場合はルールベースのスコアリングにフォールバックする。
func (s *Service) Predict(ctx context.Context, input model.PredictionInput) (*model.PredictionOutput, error) {
	input.Company = clampField(input.Company)
	input.Designation = clampField(input.Designation)

	if err := s.predictions.Create(ctx, &input); err != nil {
		return nil, fmt.Errorf("failed to store prediction input: %w", err)
	}

	if output, err := s.predictWithGenAI(ctx, input); err == nil {
		return output, nil
	} else {
		s.logger.Warn("生成AIによる予測に失敗したためルールベースにフォールバックします",
			slog.String("error", err.Error()),
		)
	}

	output := Score(input)
	return &output, nil
}

// Score はルールベースのスコアリングで昇進予測を計算する。
//
// 現役職の経験年数、経験比率、評価の3要素を加算したスコアが
// 0.5を超えるかどうかで昇進見込みを判定し、スコアに応じた
// 昇給レンジと信頼度を導出する。
func Score(input model.PredictionInput) model.PredictionOutput {
	score := 0.0

	if input.DesignationYoE >= 2 {
		score += 0.3
	}

	expRatio := 0.0
	if input.TotalYoE > 0 {
		expRatio = input.DesignationYoE / input.TotalYoE
	}
	if expRatio > 0.5 {
		score += 0.2
	}

	label := model.PerformanceRatingLabel(input.PerformanceRating)
	weight, ok := ratingWeights[label]
	if !ok {
		weight = 0.3
	}
	score += weight

	const baseHike = 0.10
	var minHike, maxHike float64
	if score > 0.5 {
		minHike = baseHike + (score-0.5)*0.1
		maxHike = baseHike + 0.15 + (score-0.5)*0.2
	} else {
		minHike = baseHike + score*0.1
		maxHike = baseHike + 0.08 + score*0.1
	}

	return model.PredictionOutput{
		PromotionLikelihood: score > 0.5,
		MinHike:             round2(minHike * 100),
		MaxHike:             round2(maxHike * 100),
		ConfidenceScore:     round2(math.Min(math.Abs(score-0.5)*2, 1.0)),
	}
}

// predictWithGenAI は生成AIに予測を依頼し、JSONレスポンスをパースする。
func (s *Service) predictWithGenAI(ctx context.Context, input model.PredictionInput) (*model.PredictionOutput, error) {
	prompt := fmt.Sprintf(
		"An employee working at %s as a %s with %g years of total experience, "+
			"%g years in the current role, and a performance rating of %q "+
			"is being considered for a promotion. The employee's current CTC is %g. "+
			"Based on this information, what is the likelihood of the employee getting a promotion, "+
			"and what would be the expected minimum and maximum salary hike percentages?",
		input.Company,
		input.Designation,
		input.TotalYoE,
		input.DesignationYoE,
		model.PerformanceRatingLabel(input.PerformanceRating),
		input.CurrentCTC,
	)

	text, err := s.generator.Generate(ctx, prompt, genaiSystemInstruction)
	if err != nil {
		return nil, fmt.Errorf("genai prediction request failed: %w", err)
	}

	var output model.PredictionOutput
	if err := json.Unmarshal([]byte(extractJSON(text)), &output); err != nil {
		return nil, fmt.Errorf("failed to parse genai prediction response: %w", err)
	}

	return &output, nil
}

// extractJSON はレスポンス中の最初のJSONオブジェクトを切り出す。
// 指示に反してコードブロック等で囲まれた場合に備える。
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}

// clampField は文字数上限を超えるフィールド値を切り詰める。
func clampField(value string) string {
	runes := []rune(value)
	if len(runes) <= maxTextFieldLength {
		return value
	}
	return string(runes[:maxTextFieldLength])
}

// round2 は小数第2位に丸める。
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
