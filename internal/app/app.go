// Package app はアプリケーションの起動と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/foodsave/internal/auth"
	"github.com/hitoshi/foodsave/internal/bulkimport"
	"github.com/hitoshi/foodsave/internal/chat"
	"github.com/hitoshi/foodsave/internal/config"
	"github.com/hitoshi/foodsave/internal/database"
	"github.com/hitoshi/foodsave/internal/donation"
	"github.com/hitoshi/foodsave/internal/email"
	"github.com/hitoshi/foodsave/internal/fooditem"
	"github.com/hitoshi/foodsave/internal/handler"
	"github.com/hitoshi/foodsave/internal/logger"
	"github.com/hitoshi/foodsave/internal/metrics"
	"github.com/hitoshi/foodsave/internal/middleware"
	"github.com/hitoshi/foodsave/internal/notification"
	"github.com/hitoshi/foodsave/internal/realtime"
	"github.com/hitoshi/foodsave/internal/repository"
	"github.com/hitoshi/foodsave/internal/worker/approval"
	"github.com/hitoshi/foodsave/internal/worker/digest"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("frontend_url", cfg.FrontendURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	stakeholderRepo := repository.NewPostgresStakeholderRepo(db)
	foodItemRepo := repository.NewPostgresFoodItemRepo(db)
	donationRepo := repository.NewPostgresDonationRepo(db)
	chatRepo := repository.NewPostgresChatMessageRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. WebSocketハブの起動
	hub := realtime.NewHub(slog.Default())
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	// 5. ドメインサービスの初期化
	authService := auth.NewService(stakeholderRepo)
	notificationService := notification.NewService(foodItemRepo, cfg.NotifyWindowDays, slog.Default())
	foodItemService := fooditem.NewService(foodItemRepo, slog.Default())
	donationService := donation.NewService(donationRepo, stakeholderRepo, slog.Default())
	chatService := chat.NewService(chatRepo, donationRepo, stakeholderRepo, hub, slog.Default())
	bulkImportService := bulkimport.NewService(foodItemRepo, slog.Default())

	// 6. レート制限の構成（configはreq/min単位、limiterはreq/sec単位）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.UploadRate = rate.Limit(float64(cfg.RateLimitUpload) / 60.0)
	rateLimiterCfg.UploadBurst = cfg.RateLimitUpload
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 7. ルーターの構築
	deps := &handler.RouterDeps{
		Resolver:          authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(registry),

		AuthService:         authService,
		NotificationService: notificationService,
		FoodItemService:     foodItemService,
		DonationService:     donationService,
		ChatService:         chatService,
		BulkImportService:   bulkImportService,
		UploadMaxBytes:      cfg.UploadMaxBytes,

		Hub: hub,
	}

	router := handler.NewRouter(deps)

	// 8. チャットシードポーラーをバックグラウンドで起動
	// 承認とほぼ同時にチャットを開通させるため、サーバープロセスにも同居させる。
	seeder := chat.NewSeeder(chatRepo, slog.Default())
	approvalPoller := approval.NewPoller(donationRepo, seeder, slog.Default())
	approvalPoller.Metrics = collector
	go approvalPoller.Start(hubCtx, cfg.ApprovalPollInterval)

	// 9. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")
	hubCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、チャットシードポーラーとダイジェストメールポーラーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリの初期化
	stakeholderRepo := repository.NewPostgresStakeholderRepo(db)
	donationRepo := repository.NewPostgresDonationRepo(db)
	chatRepo := repository.NewPostgresChatMessageRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. チャットシードポーラーの初期化
	seeder := chat.NewSeeder(chatRepo, slog.Default())
	approvalPoller := approval.NewPoller(donationRepo, seeder, slog.Default())
	approvalPoller.Metrics = collector

	// 5. ダイジェストメールポーラーの初期化
	sender := email.NewSMTPSender(cfg)
	digestPoller := digest.NewPoller(
		stakeholderRepo, donationRepo, sender, digest.NewLedger(),
		cfg.FrontendURL, cfg.PendingCooldown, cfg.ApprovedCooldown,
		slog.Default(),
	)
	digestPoller.Metrics = collector

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("approval_poll_interval", cfg.ApprovalPollInterval),
		slog.Duration("digest_poll_interval", cfg.DigestPollInterval),
	)

	// ダイジェストポーラーをバックグラウンドで起動
	go digestPoller.Start(ctx, cfg.DigestPollInterval)

	// シードポーラーをメインgoroutineで実行（ブロッキング）
	approvalPoller.Start(ctx, cfg.ApprovalPollInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
