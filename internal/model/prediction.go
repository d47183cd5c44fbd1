package model

// PredictionInput は昇進予測のリクエストデータを表す。
// PerformanceRatingは1〜4の数値で受け取り、スコアリング前に評価文字列にマッピングされる。
type PredictionInput struct {
	Company           string  `json:"company" validate:"required"`
	Designation       string  `json:"designation" validate:"required"`
	CurrentCTC        float64 `json:"currentCTC" validate:"gte=0"`
	TotalYoE          float64 `json:"totalYoE" validate:"gte=0"`
	DesignationYoE    float64 `json:"designationYoE" validate:"gte=0"`
	PerformanceRating int     `json:"performanceRating" validate:"required,min=1,max=4"`
}

// PredictionOutput は昇進予測の結果を表す。
// MinHike/MaxHikeはパーセント値。
type PredictionOutput struct {
	PromotionLikelihood bool    `json:"promotion_likelihood"`
	MinHike             float64 `json:"min_hike"`
	MaxHike             float64 `json:"max_hike"`
	ConfidenceScore     float64 `json:"confidence_score"`
}

// PerformanceRatingLabel は数値評価を評価文字列にマッピングする。
// 未知の値は"Meets Expectations"にフォールバックする。
func PerformanceRatingLabel(rating int) string {
	switch rating {
	case 1:
		return "Needs Improvement"
	case 2:
		return "Meets Expectations"
	case 3:
		return "Exceeds Expectations"
	case 4:
		return "Outstanding"
	default:
		return "Meets Expectations"
	}
}
