package api

import (
	"net/http"

	"cloudock/internal/config"
	cdmiddleware "cloudock/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter 构建 HTTP 路由，集中注册所有对外服务的端点。
func NewRouter(cfg *config.Config, photoHandler *PhotoHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cdmiddleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(cdmiddleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
	r.Use(cdmiddleware.Metrics())

	// 健康检查不需要鉴权
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Prometheus 指标端点
	r.Handle("/metrics", promhttp.Handler())

	// local 存储驱动直接由服务进程对外提供文件
	if cfg.StorageDriver == "local" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StorageDir)))
		r.Handle("/static/*", fs)
	}

	if photoHandler != nil {
		switch cfg.AuthDriver {
		case config.AuthDriverSupabase:
			r.Group(func(r chi.Router) {
				r.Use(cdmiddleware.SupabaseAuth(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.SupabaseJWTSecret))
				photoHandler.RegisterRoutes(r)
			})
		case config.AuthDriverAPIKey:
			r.Group(func(r chi.Router) {
				r.Use(cdmiddleware.APIKeyAuth(cfg.APIKeys))
				photoHandler.RegisterRoutes(r)
			})
		default:
			// 无需鉴权（开发模式）
			photoHandler.RegisterRoutes(r)
		}
	}

	return r
}
