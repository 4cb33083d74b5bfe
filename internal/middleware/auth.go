// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/foodsave/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// stakeholderContextKey はリクエストコンテキストにステークホルダーを格納するためのキー。
var stakeholderContextKey = contextKey("stakeholder")

// maxAuthBodyBytes は認証のためにバッファするリクエストボディの上限。
const maxAuthBodyBytes = 1 << 20

// StakeholderResolver はログイン済みステークホルダーの解決インターフェース。
// auth.Serviceの部分集合として定義する。
type StakeholderResolver interface {
	Resolve(ctx context.Context, email string) (*model.Stakeholder, error)
}

// NewAuthMiddleware はリクエストからメールアドレスを取り出し、
// ログイン済みステークホルダーをリクエストコンテキストに注入するミドルウェアを返す。
// メールアドレスはクエリパラメータか、JSONボディのemailフィールドから取る。
// 未ログインのメールアドレスには401 Unauthorizedを返す。
func NewAuthMiddleware(resolver StakeholderResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := extractEmail(r)
			if email == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			stakeholder, err := resolver.Resolve(r.Context(), email)
			if err != nil {
				slog.Error("ステークホルダーの解決に失敗しました",
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if stakeholder == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			ctx := context.WithValue(r.Context(), stakeholderContextKey, stakeholder)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractEmail はクエリパラメータまたはJSONボディからemailを取り出す。
// ボディを読んだ場合はハンドラが再度読めるよう復元する。
func extractEmail(r *http.Request) string {
	if email := r.URL.Query().Get("email"); email != "" {
		return email
	}

	contentType := r.Header.Get("Content-Type")
	if r.Body == nil || !strings.Contains(contentType, "application/json") {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxAuthBodyBytes))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Email
}

// StakeholderFromContext はリクエストコンテキストからステークホルダーを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func StakeholderFromContext(ctx context.Context) (*model.Stakeholder, error) {
	s, ok := ctx.Value(stakeholderContextKey).(*model.Stakeholder)
	if !ok || s == nil {
		return nil, fmt.Errorf("stakeholder not found in context")
	}
	return s, nil
}

// ContextWithStakeholder はコンテキストにステークホルダーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithStakeholder(ctx context.Context, s *model.Stakeholder) context.Context {
	return context.WithValue(ctx, stakeholderContextKey, s)
}
