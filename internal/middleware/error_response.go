package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/jurnal/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 原因カテゴリと対処方法を含む。
type ErrorResponseBody struct {
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Category string       `json:"category"`
	Action   string       `json:"action"`
	Fields   []FieldError `json:"fields,omitempty"`
}

// FieldError はバリデーションエラーのフィールド別詳細。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// WriteValidationError はバリデーションエラーを422で書き込む。
// validator.ValidationErrorsの場合はフィールド別の詳細を含める。
func WriteValidationError(w http.ResponseWriter, err error) {
	body := ErrorResponseBody{
		Code:     model.ErrCodeValidationFailed,
		Message:  "入力内容に誤りがあります。",
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, ve := range verrs {
			body.Fields = append(body.Fields, FieldError{
				Field:   ve.Field(),
				Message: validationMessage(ve),
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	json.NewEncoder(w).Encode(body)
}

// validationMessage はバリデーションタグを人間可読なメッセージに変換する。
func validationMessage(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "必須項目です。"
	case "email":
		return "メールアドレスの形式が正しくありません。"
	case "min":
		return "値が小さすぎます（最小: " + ve.Param() + "）。"
	case "max":
		return "値が大きすぎます（最大: " + ve.Param() + "）。"
	case "gte":
		return ve.Param() + "以上の値を指定してください。"
	default:
		return "値が不正です。"
	}
}
