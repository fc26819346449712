// Package app はアプリケーションの起動・依存関係のワイヤリングを提供する。
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

	"github.com/carebot/userapi/internal/account"
	"github.com/carebot/userapi/internal/auth"
	"github.com/carebot/userapi/internal/config"
	"github.com/carebot/userapi/internal/database"
	"github.com/carebot/userapi/internal/family"
	"github.com/carebot/userapi/internal/handler"
	"github.com/carebot/userapi/internal/logger"
	"github.com/carebot/userapi/internal/metrics"
	"github.com/carebot/userapi/internal/middleware"
	"github.com/carebot/userapi/internal/notification"
	"github.com/carebot/userapi/internal/repository"
	"github.com/carebot/userapi/internal/security"
	"github.com/carebot/userapi/internal/session"
	"github.com/carebot/userapi/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	logger.SetupDefault(w)

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
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSweep:
		return runSweep(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、セッション掃除ジョブと
// HTTPサーバーを起動する。SIGINTまたはSIGTERMシグナルを受信すると
// グレースフルシャットダウンを行う。
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

	// 2. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 3. リポジトリの初期化
	accountRepo := repository.NewPostgresAccountRepo(db)
	familyRepo := repository.NewPostgresFamilyRepo(db)
	memberRepo := repository.NewPostgresMemberRepo(db)
	notificationRepo := repository.NewPostgresNotificationRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)

	// 4. セッションマネージャの初期化
	sessionManager := session.NewManager(sessionRepo, cfg.SessionExpire)
	sessionManager.Metrics = collector

	// 5. ドメインサービスの初期化
	sanitizer := security.NewDescriptionSanitizer()
	authService := auth.NewService(accountRepo, sessionManager)
	accountService := account.NewService(accountRepo, sessionManager)
	familyService := family.NewService(familyRepo, memberRepo, accountRepo)
	notificationService := notification.NewService(notificationRepo, familyRepo, accountRepo, familyService, sanitizer)

	// 6. セッション掃除ジョブの起動
	cleanupJob := cleanup.NewCleanupJob(sessionRepo, slog.Default(), cfg.SessionExpire, cfg.SessionCleanupInterval)
	cleanupJob.Metrics = collector

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go cleanupJob.Start(ctx)

	// 7. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.LoginRate = rate.Limit(float64(cfg.RateLimitLogin) / 60.0)
	rateLimiterCfg.LoginBurst = cfg.RateLimitLogin
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		SessionResolver:   sessionManager,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),

		Metrics:  collector,
		Gatherer: registry,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain: cfg.CookieDomain,
			CookieSecure: cfg.CookieSecure,
			SameSite:     handler.ParseSameSite(cfg.CookieSameSite),
		},
		AccountService:      accountService,
		FamilyService:       familyService,
		NotificationService: notificationService,

		DB: db,
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
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

	// 掃除ジョブを止めてからHTTPサーバーをドレインする
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
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

// runSweep は失効セッションの掃除を1回だけ実行する。
// 定期実行はserveモードのバックグラウンドジョブが担うため、
// このサブコマンドは運用時の手動実行用。
func runSweep(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sessionRepo := repository.NewPostgresSessionRepo(db)
	cleanupJob := cleanup.NewCleanupJob(sessionRepo, slog.Default(), cfg.SessionExpire, cfg.SessionCleanupInterval)

	return cleanupJob.Run(context.Background())
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
