package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// 鉴权驱动取值。
const (
	AuthDriverSupabase = "supabase"
	AuthDriverAPIKey   = "apikey"
	AuthDriverNone     = "none"
)

// Config 聚合服务启动需要的关键配置。
type Config struct {
	HTTPPort           string
	CORSAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	DBHost             string
	DBPort             int
	DBUser             string
	DBPassword         string
	DBName             string
	DBSSLMode          string
	// 鉴权配置
	AuthDriver        string // "supabase"、"apikey" 或 "none"
	APIKeys           []string
	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string
	// 存储配置
	StorageDriver string // "local" 或 "s3"
	StorageDir    string // local 驱动的根目录
	LocalBaseURL  string // local 驱动对外提供文件的基础 URL
	S3Endpoint    string // S3/MinIO 端点，不含协议
	S3AccessKey   string
	S3SecretKey   string
	S3Bucket      string
	S3Region      string
	S3UseSSL      bool // 是否使用 HTTPS
	S3PathStyle   bool // 是否使用路径风格访问（MinIO 需要设为 true）
	// 照片管线配置
	FreeStorageLimit int64         // 免费层存储上限（字节）
	MaxUploadSize    int64         // 单文件大小上限（字节）
	DedupCachePath   string        // 上传去重缓存的持久化文件
	DedupTTL         time.Duration // 去重缓存窗口
	DisplayURLTTL    time.Duration // 展示签名 URL 有效期
}

// Load 从环境变量加载配置，并提供默认值。
func Load() (*Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	storage := os.Getenv("STORAGE_DIR")
	if storage == "" {
		storage = "./data"
	}

	if err := ensureDir(storage); err != nil {
		return nil, fmt.Errorf("确保存储目录失败: %w", err)
	}

	corsOrigins := parseList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"http://localhost:5173"}
	}

	rateLimitRequests, err := parseIntEnv("RATE_LIMIT_REQUESTS", 60)
	if err != nil {
		return nil, err
	}

	rateLimitWindow, err := parseDurationEnv("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}

	dbPort, err := parseIntEnv("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}

	// 鉴权配置
	authDriver := envOrDefault("AUTH_DRIVER", AuthDriverAPIKey)
	switch authDriver {
	case AuthDriverSupabase, AuthDriverAPIKey, AuthDriverNone:
	default:
		return nil, fmt.Errorf("未知的鉴权驱动: %s", authDriver)
	}

	apiKeys := parseList(os.Getenv("API_KEYS"))
	if len(apiKeys) == 0 {
		// 开发环境默认 key
		apiKeys = []string{"dev-api-key-123456"}
	}

	// 存储配置
	storageDriver := envOrDefault("STORAGE_DRIVER", "local")

	freeLimit, err := parseInt64Env("FREE_STORAGE_LIMIT_BYTES", 5*1024*1024*1024)
	if err != nil {
		return nil, err
	}

	maxUploadSize, err := parseInt64Env("MAX_UPLOAD_SIZE_BYTES", 100*1024*1024)
	if err != nil {
		return nil, err
	}

	dedupTTL, err := parseDurationEnv("DEDUP_CACHE_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	displayTTL, err := parseDurationEnv("DISPLAY_URL_TTL", time.Hour)
	if err != nil {
		return nil, err
	}

	return &Config{
		HTTPPort:           port,
		CORSAllowedOrigins: corsOrigins,
		RateLimitRequests:  rateLimitRequests,
		RateLimitWindow:    rateLimitWindow,
		DBHost:             envOrDefault("DB_HOST", "127.0.0.1"),
		DBPort:             dbPort,
		DBUser:             envOrDefault("DB_USER", "cloudock"),
		DBPassword:         envOrDefault("DB_PASSWORD", "cloudock"),
		DBName:             envOrDefault("DB_NAME", "cloudock"),
		DBSSLMode:          envOrDefault("DB_SSL_MODE", "disable"),
		AuthDriver:         authDriver,
		APIKeys:            apiKeys,
		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:    os.Getenv("SUPABASE_ANON_KEY"),
		SupabaseJWTSecret:  os.Getenv("SUPABASE_JWT_SECRET"),
		StorageDriver:      storageDriver,
		StorageDir:         storage,
		LocalBaseURL:       envOrDefault("LOCAL_BASE_URL", "http://localhost:8080/static"),
		S3Endpoint:         envOrDefault("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey:        envOrDefault("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:        envOrDefault("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:           envOrDefault("S3_BUCKET", "cloudock"),
		S3Region:           envOrDefault("S3_REGION", "ap-south-1"),
		S3UseSSL:           parseBoolEnv("S3_USE_SSL", false),
		S3PathStyle:        parseBoolEnv("S3_PATH_STYLE", true),
		FreeStorageLimit:   freeLimit,
		MaxUploadSize:      maxUploadSize,
		DedupCachePath:     envOrDefault("DEDUP_CACHE_PATH", "./data/uploaded_cache.json"),
		DedupTTL:           dedupTTL,
		DisplayURLTTL:      displayTTL,
	}, nil
}

func ensureDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("路径 %s 已存在但不是目录", path)
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(path, 0o755)
	}

	return err
}

func parseList(raw string) []string {
	if raw == "" {
		return nil
	}

	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("解析 %s 失败: %w", key, err)
	}
	if value <= 0 {
		return defaultValue, nil
	}
	return value, nil
}

func parseInt64Env(key string, defaultValue int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("解析 %s 失败: %w", key, err)
	}
	if value <= 0 {
		return defaultValue, nil
	}
	return value, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("解析 %s 失败: %w", key, err)
	}
	if value <= 0 {
		return defaultValue, nil
	}
	return value, nil
}

func parseBoolEnv(key string, defaultValue bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	lower := strings.ToLower(raw)
	return lower == "true" || lower == "1" || lower == "yes"
}

// PostgresDSN 生成标准 postgres:// 连接串，供数据访问层直接使用。
func (c *Config) PostgresDSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:   c.DBName,
	}

	q := url.Values{}
	if c.DBSSLMode != "" {
		q.Set("sslmode", c.DBSSLMode)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
