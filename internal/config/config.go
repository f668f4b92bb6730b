package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	RedisAddr     string
	RedisPassword string

	EnrichEnabled   bool
	DefaultProvider string
	ProvidersFile   string

	SearchEndpoint   string
	SearchAPIKey     string
	SearchMaxResults int
	SearchRPS        float64

	FoundTTL    time.Duration
	NotFoundTTL time.Duration
	LockTTL     time.Duration

	JobTimeout     time.Duration
	SearchTimeout  time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration

	MinMatchScore int
	Concurrency   int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvSeconds(key string, def int) time.Duration {
	return time.Duration(getenvInt(key, def)) * time.Second
}

func Load() Config {
	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	cfg := Config{
		AppEnv:        getenv("APP_ENV", "development"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8082"),
		RedisAddr:     getenv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		EnrichEnabled:   getenvBool("ENRICH_ENABLED", true),
		DefaultProvider: getenv("DEFAULT_PROVIDER", "wolt"),
		ProvidersFile:   os.Getenv("PROVIDERS_FILE"),

		SearchEndpoint:   getenv("SEARCH_ENDPOINT", "https://api.websearch.example/v1/search"),
		SearchAPIKey:     os.Getenv("SEARCH_API_KEY"),
		SearchMaxResults: getenvInt("SEARCH_MAX_RESULTS", 5),
		SearchRPS:        getenvFloat("SEARCH_RPS", 5),

		FoundTTL:    getenvSeconds("FOUND_TTL_SECONDS", 14*24*3600),
		NotFoundTTL: getenvSeconds("NOT_FOUND_TTL_SECONDS", 24*3600),
		LockTTL:     getenvSeconds("LOCK_TTL_SECONDS", 60),

		JobTimeout:     getenvSeconds("JOB_TIMEOUT_SECONDS", 30),
		SearchTimeout:  getenvSeconds("SEARCH_TIMEOUT_SECONDS", 20),
		MaxRetries:     getenvInt("MAX_RETRIES", 2),
		RetryBaseDelay: time.Duration(getenvInt("RETRY_BASE_DELAY_MS", 500)) * time.Millisecond,

		MinMatchScore: getenvInt("MIN_MATCH_SCORE", 50),
		Concurrency:   getenvInt("ENRICH_CONCURRENCY", 1),
	}
	if cfg.RedisAddr == "" {
		panic(fmt.Errorf("REDIS_ADDR is required"))
	}
	// A NOT_FOUND entry must expire before a FOUND one, and the lock before both,
	// otherwise a crashed worker pins the entity until the cache entry expires.
	if cfg.FoundTTL <= cfg.NotFoundTTL || cfg.NotFoundTTL <= cfg.LockTTL {
		panic(fmt.Errorf("TTLs must satisfy FOUND > NOT_FOUND > LOCK, got %v/%v/%v",
			cfg.FoundTTL, cfg.NotFoundTTL, cfg.LockTTL))
	}
	return cfg
}
