package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer はユーザー入力のジャーナル本文からHTMLを除去する。
// Webフォーム経由のエントリはプレーンテキストとして保存・プロンプト化するため、
// タグを一切許可しないStrictPolicyを使用する。
type ContentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerを生成する。
func NewContentSanitizer() *ContentSanitizer {
	return &ContentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は本文からHTMLタグを除去し、前後の空白を取り除いて返す。
func (s *ContentSanitizer) Sanitize(content string) string {
	return strings.TrimSpace(s.policy.Sanitize(content))
}
