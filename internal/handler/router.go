package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/foodsave/internal/metrics"
	"github.com/hitoshi/foodsave/internal/middleware"
	"github.com/hitoshi/foodsave/internal/realtime"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Resolver          middleware.StakeholderResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// メトリクス。Metricsはリクエスト計測、MetricsHandlerは/metricsの公開に使う。
	Metrics        *metrics.Collector
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface

	// 通知フィード
	NotificationService NotificationServiceInterface

	// 食品アイテム
	FoodItemService FoodItemServiceInterface

	// 寄付
	DonationService DonationServiceInterface

	// チャット
	ChatService ChatServiceInterface

	// 一括アップロード
	BulkImportService BulkImportServiceInterface
	UploadMaxBytes    int64

	// WebSocket
	Hub *realtime.Hub
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → Recovery → SecurityHeaders → Logging → Metrics → Auth → RateLimit(General)
//
// 認証ルート（/api/auth/*）と/health、/metricsは認証ミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}

	authHandler := NewAuthHandler(deps.AuthService)
	notificationHandler := NewNotificationHandler(deps.NotificationService)
	foodItemHandler := NewFoodItemHandler(deps.FoodItemService)
	donationHandler := NewDonationHandler(deps.DonationService)
	chatHandler := NewChatHandler(deps.ChatService)
	bulkUploadHandler := NewBulkUploadHandler(deps.BulkImportService, deps.UploadMaxBytes)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Resolver))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		// 通知フィード
		r.Route("/api/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.List)
			r.Get("/inventory", notificationHandler.ListInventory)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/read", notificationHandler.MarkRead)
				r.Put("/delete", notificationHandler.MarkDeleted)
			})
		})

		// 食品アイテム管理
		r.Route("/api/fooditems", func(r chi.Router) {
			r.Get("/", foodItemHandler.List)
			r.Post("/", foodItemHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", foodItemHandler.Update)
				r.Delete("/", foodItemHandler.Delete)
			})
		})

		// 寄付
		r.Route("/api/donations", func(r chi.Router) {
			r.Post("/", donationHandler.Create)
			r.Get("/pending-count", donationHandler.PendingCount)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", donationHandler.Get)
				r.Patch("/status", donationHandler.UpdateStatus)
			})
		})

		// チャット
		r.Route("/api/chat", func(r chi.Router) {
			r.Post("/append", chatHandler.Append)
			r.Post("/markRead", chatHandler.MarkRead)
			r.Post("/markDelivered", chatHandler.MarkDelivered)
			r.Get("/listSince", chatHandler.ListSince)
		})

		// 一括アップロード（アップロード専用レート制限を追加）
		if deps.RateLimiter != nil {
			r.With(deps.RateLimiter.UploadMiddleware()).Post("/api/bulkupload", bulkUploadHandler.Upload)
		} else {
			r.Post("/api/bulkupload", bulkUploadHandler.Upload)
		}

		// WebSocket
		if deps.Hub != nil {
			wsHandler := NewWSHandler(deps.Hub)
			r.Get("/ws", wsHandler.Serve)
		}
	})

	return r
}
