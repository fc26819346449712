package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/carebot/userapi/internal/metrics"
	"github.com/carebot/userapi/internal/middleware"
	"github.com/carebot/userapi/internal/model"
)

// DBPinger はヘルスチェックに必要なインターフェース。*sql.DBが実装する。
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionResolver   middleware.SessionResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// メトリクス
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer

	// サービス
	AuthService         AuthServiceInterface
	AuthConfig          AuthHandlerConfig
	AccountService      AccountServiceInterface
	FamilyService       FamilyServiceInterface
	NotificationService NotificationServiceInterface

	// ヘルスチェック
	DB DBPinger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Logging → Metrics
//
// 認証が必要なルートにはさらに Session → RateLimit(General) が、
// ログインには RateLimit(Login) が適用される。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	// 型付きnilをインターフェースに入れるとnil判定をすり抜けるため明示的に分岐する
	if deps.Metrics != nil {
		authHandler.Metrics = deps.Metrics
	}
	accountHandler := NewAccountHandler(deps.AccountService)
	familyHandler := NewFamilyHandler(deps.FamilyService)
	notificationHandler := NewNotificationHandler(deps.NotificationService)

	// --- 認証不要のルート ---

	r.Route("/auth", func(r chi.Router) {
		// ログインは総当たり対策のIP別レート制限付き
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)
		// ログアウトはセッション失効後でもCookieをクリアできるよう認証不要
		r.Post("/logout", authHandler.Logout)
	})

	// アカウント登録・メールアドレス確認は新規利用者向けのため認証不要
	r.Post("/accounts", accountHandler.Create)
	r.Post("/accounts/check-email", accountHandler.CheckEmail)

	r.Get("/health", newHealthHandler(deps.DB))
	if deps.Gatherer != nil {
		r.Get("/metrics", metrics.Handler(deps.Gatherer).ServeHTTP)
	}

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionResolver))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Patch("/auth/change-password", authHandler.ChangePassword)

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", accountHandler.List)
			r.Route("/{user_id}", func(r chi.Router) {
				r.Get("/", accountHandler.Get)
				r.Patch("/", accountHandler.Update)
				r.Delete("/", accountHandler.Delete)
			})
		})

		r.Route("/families", func(r chi.Router) {
			r.Post("/", familyHandler.Create)
			r.Get("/", familyHandler.List)
			r.Get("/find/{user_id}", familyHandler.FindByMainUser)
			r.Route("/{family_id}", func(r chi.Router) {
				r.Get("/", familyHandler.Get)
				r.Patch("/", familyHandler.Update)
				r.Delete("/", familyHandler.Delete)
			})
		})

		r.Route("/members", func(r chi.Router) {
			r.Post("/", familyHandler.AddMember)
			r.Get("/", familyHandler.ListMembers)
			r.Route("/{member_id}", func(r chi.Router) {
				r.Patch("/", familyHandler.UpdateMember)
				r.Delete("/", familyHandler.RemoveMember)
			})
		})

		r.Route("/notify", func(r chi.Router) {
			r.Post("/", notificationHandler.Create)
			r.Get("/new/{family_id}", notificationHandler.ListNew)
			r.Get("/all/{family_id}", notificationHandler.ListAll)
			r.Patch("/read/{notification_id}", notificationHandler.MarkRead)
			r.Delete("/{notification_id}", notificationHandler.Delete)
		})
	})

	return r
}

// newHealthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(db DBPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeError(w, model.NewServerError("Database unreachable"))
				return
			}
		}
		writeMessage(w, http.StatusOK, "OK")
	}
}
