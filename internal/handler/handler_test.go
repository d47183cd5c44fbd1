package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/jurnal/internal/middleware"
)

// newTestLogger はテスト用のロガーを生成する。出力は破棄される。
func newTestLogger() *slog.Logger {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, nil))
}

// decodeErrorBody は統一エラーフォーマットのレスポンスボディをデコードする。
func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("エラーレスポンスのデコードに失敗: %v", err)
	}
	return body
}
