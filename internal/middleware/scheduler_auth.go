package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/hitoshi/jurnal/internal/model"
)

// schedulerAuthHeader は外部スケジューラが共有シークレットを渡すヘッダー名。
const schedulerAuthHeader = "X-Auth-Token"

// NewSchedulerAuthMiddleware はスケジューラエンドポイント用の共有シークレット
// 認証ミドルウェアを返す。サーバー側シークレットが未設定の場合は、認証を
// 素通しにせず500を返す。トークン比較は一定時間比較で行う。
func NewSchedulerAuthMiddleware(secret string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				slog.Error("スケジューラ認証トークンがサーバーに設定されていません")
				WriteInternalServerError(w)
				return
			}

			token := r.Header.Get(schedulerAuthHeader)
			if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				slog.Warn("スケジューラ認証に失敗しました",
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
