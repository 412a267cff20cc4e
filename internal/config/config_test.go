package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "WEIGHT_TITLE", "WEIGHT_GENRE", "WEIGHT_PLOT", "SEARCH_CACHE_SIZE",
		"SEARCH_PERSON_SAMPLE", "SEARCH_PAGE_SIZE", "CORPUS_PATTERN", "JWT_EXPIRY_HOURS", "DB_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "5005", cfg.Port)
	assert.Equal(t, 3, cfg.Search.Weights.Title)
	assert.Equal(t, 2, cfg.Search.Weights.Genre)
	assert.Equal(t, 1, cfg.Search.Weights.Plot)
	assert.Equal(t, 1024, cfg.Search.CacheSize)
	assert.Equal(t, 5000, cfg.Search.PersonSampleSize)
	assert.Equal(t, 36, cfg.SearchPageSize)
	assert.Equal(t, "movies_out_*.csv", cfg.CorpusPattern)
	assert.Equal(t, 72*time.Hour, cfg.JWTExpiry)
	assert.True(t, cfg.DBEnabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("WEIGHT_TITLE", "5")
	t.Setenv("SEARCH_PERSON_SAMPLE", "0")
	t.Setenv("SEARCH_MIN_SCORE", "0.2")
	t.Setenv("REFRESH_INTERVAL_MINUTES", "0")
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("INGEST_BASE_URL", "http://localhost:9999/")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5, cfg.Search.Weights.Title)
	assert.Equal(t, 0, cfg.Search.PersonSampleSize)
	assert.InDelta(t, 0.2, cfg.MinScore, 1e-12)
	assert.Equal(t, time.Duration(0), cfg.RefreshInterval)
	assert.False(t, cfg.DBEnabled)
	assert.Contains(t, cfg.DatabaseURL, "@db.internal:5432/")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "http://localhost:9999", cfg.IngestBaseURL)
}

func TestGetEnvIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("SEARCH_CACHE_SIZE", "lots")
	assert.Equal(t, 1024, Load().Search.CacheSize)
}
