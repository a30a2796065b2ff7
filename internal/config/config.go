package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config 应用配置
type Config struct {
	Env         string
	AppSecret   string
	DatabaseURL string
	DBMaxOpen   int
	DBMaxIdle   int
	AutoMigrate bool
	JWTExpiry   time.Duration
	Port        string
	SiteName    string

	// 推荐引擎
	RecommenderURL     string
	RecommenderTimeout time.Duration

	// 目录查询缓存
	RailCacheTTL    time.Duration
	SearchCacheTTL  time.Duration
	SearchCacheSize int

	// 日志
	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load 加载配置
func Load() *Config {
	expiryHours, _ := strconv.Atoi(getEnv("JWT_EXPIRY_HOURS", "72"))

	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "moovie")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)

	appSecret := getEnv("APP_SECRET", getEnv("JWT_SECRET", "your-secret-key-change-in-production"))

	if getEnv("APP_ENV", "development") == "production" && appSecret == "your-secret-key-change-in-production" {
		fmt.Println("【严重警告】生产环境正在使用默认密钥！请立即设置 APP_SECRET 环境变量。")
	}

	return &Config{
		Env:         getEnv("APP_ENV", "development"),
		AppSecret:   appSecret,
		DatabaseURL: getEnv("DATABASE_URL", dbURL),
		DBMaxOpen:   getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdle:   getEnvInt("DB_MAX_IDLE_CONNS", 5),
		AutoMigrate: getEnv("AUTO_MIGRATE", "false") == "true",
		JWTExpiry:   time.Duration(expiryHours) * time.Hour,
		Port:        getEnv("PORT", "5005"),
		SiteName:    getEnv("SITE_NAME", "Moovie"),

		RecommenderURL:     getEnv("RECOMMENDER_URL", "http://127.0.0.1:8000"),
		RecommenderTimeout: getEnvDuration("RECOMMENDER_TIMEOUT", 2*time.Second),

		RailCacheTTL:    getEnvDuration("RAIL_CACHE_TTL", time.Minute),
		SearchCacheTTL:  getEnvDuration("SEARCH_CACHE_TTL", 30*time.Second),
		SearchCacheSize: getEnvInt("SEARCH_CACHE_SIZE", 1000),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		LogFile:   getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvDuration 支持 "30s" / "2m" 这类写法，纯数字按秒处理
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
