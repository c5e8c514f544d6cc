package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	HoldTTL       time.Duration
	LookaheadDays int
	CacheTTL      time.Duration

	NotifyBase string
	NotifyKey  string
	NotifyRPS  int

	ReaperInterval time.Duration
	ReaperBatch    int
	ReaperWorkers  int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/stayhub?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),

		HoldTTL:       time.Duration(atoi("HOLD_TTL_SECONDS", 900)) * time.Second,
		LookaheadDays: atoi("LOOKAHEAD_DAYS", 365),
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 60)) * time.Second,

		NotifyBase: env("NOTIFY_BASE_URL", ""),
		NotifyKey:  env("NOTIFY_API_KEY", ""),
		NotifyRPS:  atoi("NOTIFY_RPS", 5),

		ReaperInterval: time.Duration(atoi("REAPER_INTERVAL_SECONDS", 60)) * time.Second,
		ReaperBatch:    atoi("REAPER_BATCH", 200),
		ReaperWorkers:  atoi("REAPER_WORKERS", 8),
	}
	if c.NotifyBase == "" {
		log.Warn().Msg("NOTIFY_BASE_URL is empty; notifications disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
