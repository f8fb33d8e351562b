package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"cloudock/internal/api"
	"cloudock/internal/config"
	"cloudock/internal/database"
	"cloudock/internal/logging"
	"cloudock/internal/repository/postgres"
	"cloudock/internal/service"
	"cloudock/internal/storage"
	"cloudock/internal/storage/local"
	"cloudock/internal/storage/s3"
	"cloudock/internal/urlcache"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New()
	logger.Println("配置加载完成，开始启动服务")

	ctx := context.Background()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		logger.Fatalf("连接数据库失败: %v", err)
	}
	defer db.Close()

	var store storage.ObjectStore
	switch cfg.StorageDriver {
	case "s3":
		store, err = s3.New(ctx, s3.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
			PathStyle: cfg.S3PathStyle,
		})
		if err != nil {
			logger.Fatalf("初始化 S3 存储失败: %v", err)
		}
	default:
		store = local.NewStore(cfg.StorageDir, cfg.LocalBaseURL)
	}

	// 去重缓存持久化在本地文件，启动时清理过期条目
	dedup, err := urlcache.NewDedup(urlcache.NewFileStore(cfg.DedupCachePath), cfg.DedupTTL)
	if err != nil {
		logger.Fatalf("加载上传去重缓存失败: %v", err)
	}

	display := urlcache.New(store, cfg.DisplayURLTTL)

	photoService := service.NewPhotoService(
		postgres.NewPhotoRepository(db),
		postgres.NewQuotaRepository(db),
		store,
		display,
		dedup,
		cfg.FreeStorageLimit,
	)

	photoHandler := api.NewPhotoHandler(photoService, cfg.MaxUploadSize)
	router := api.NewRouter(cfg, photoHandler)

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		// 上传大文件需要较长的读窗口
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		Handler:      router,
	}

	logger.Printf("服务监听端口 :%s\n", cfg.HTTPPort)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("监听失败: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("优雅关闭失败: %v", err)
	}

	logger.Println("服务已停止")
}
