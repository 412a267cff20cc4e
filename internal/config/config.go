package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/user/moovie/internal/search"
	"github.com/user/moovie/internal/textproc"
)

// Config 应用配置
type Config struct {
	Env         string
	AppSecret   string
	DatabaseURL string
	DBEnabled   bool
	JWTExpiry   time.Duration
	Port        string
	CORSOrigins []string

	// 语料
	CorpusDir       string
	CorpusPattern   string
	RefreshInterval time.Duration

	// 搜索
	Search         search.Options
	MinScore       float64
	SearchPageSize int

	// 限流
	RateLimitRPS   float64
	RateLimitBurst int

	// 抓取
	IngestBaseURL string
	IngestRPS     float64
}

// Load 加载配置
func Load() *Config {
	expiryHours := getEnvInt("JWT_EXPIRY_HOURS", 72)

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

	weights := textproc.DefaultWeights()
	weights.Title = getEnvInt("WEIGHT_TITLE", weights.Title)
	weights.Genre = getEnvInt("WEIGHT_GENRE", weights.Genre)
	weights.Plot = getEnvInt("WEIGHT_PLOT", weights.Plot)

	return &Config{
		Env:         getEnv("APP_ENV", "development"),
		AppSecret:   appSecret,
		DatabaseURL: dbURL,
		DBEnabled:   getEnvBool("DB_ENABLED", true),
		JWTExpiry:   time.Duration(expiryHours) * time.Hour,
		Port:        getEnv("PORT", "5005"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5005")),

		CorpusDir:       getEnv("CORPUS_DIR", "./data"),
		CorpusPattern:   getEnv("CORPUS_PATTERN", "movies_out_*.csv"),
		RefreshInterval: time.Duration(getEnvInt("REFRESH_INTERVAL_MINUTES", 60)) * time.Minute,

		Search: search.Options{
			Weights:          weights,
			CacheSize:        getEnvInt("SEARCH_CACHE_SIZE", search.DefaultCacheSize),
			PersonSampleSize: getEnvInt("SEARCH_PERSON_SAMPLE", search.DefaultPersonSampleSize),
		},
		MinScore:       getEnvFloat("SEARCH_MIN_SCORE", 0.01),
		SearchPageSize: getEnvInt("SEARCH_PAGE_SIZE", 36),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 100),

		IngestBaseURL: strings.TrimRight(getEnv("INGEST_BASE_URL", "https://www.imdb.com"), "/"),
		IngestRPS:     getEnvFloat("INGEST_RPS", 1),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(s string) []string {
	var res []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			res = append(res, p)
		}
	}
	return res
}
