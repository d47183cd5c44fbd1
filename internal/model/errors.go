package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, journal, notion, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeUserExists          = "USER_EXISTS"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeNotionAuthFailed    = "NOTION_AUTH_FAILED"
	ErrCodeIntegrationNotFound = "INTEGRATION_NOT_FOUND"
	ErrCodeJournalCreateFailed = "JOURNAL_CREATE_FAILED"
	ErrCodePredictionFailed    = "PREDICTION_FAILED"
)

// NewUnauthorizedError は認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUserExistsError はメールアドレス重複エラーを生成する。
func NewUserExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeUserExists,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "ログインするか、別のメールアドレスを使用してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewNotionAuthFailedError はNotion認可エラーを生成する。
func NewNotionAuthFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeNotionAuthFailed,
		Message:  fmt.Sprintf("Notionの認可処理に失敗しました: %s", reason),
		Category: "notion",
		Action:   "Notionの連携をやり直してください。",
	}
}

// NewIntegrationNotFoundError はNotion連携が見つからない場合のエラーを生成する。
func NewIntegrationNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeIntegrationNotFound,
		Message:  "Notion連携が見つかりません。",
		Category: "notion",
		Action:   "先にNotionワークスペースを連携してください。",
	}
}

// NewJournalCreateFailedError はジャーナル作成失敗エラーを生成する。
func NewJournalCreateFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeJournalCreateFailed,
		Message:  "ジャーナルエントリの作成に失敗しました。",
		Category: "journal",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewPredictionFailedError は昇進予測失敗エラーを生成する。
func NewPredictionFailedError() *APIError {
	return &APIError{
		Code:     ErrCodePredictionFailed,
		Message:  "昇進予測の実行に失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
