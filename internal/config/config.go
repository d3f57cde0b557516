package config

import (
	"os"
	"strings"
	"time"
)

// Config holds the storefront process configuration, loaded from the
// environment.
type Config struct {
	ServiceName string
	HTTPAddr    string

	BackendURL     string
	BackendTimeout time.Duration

	RedisAddr string

	// KafkaBrokers is empty when event publishing is disabled.
	KafkaBrokers []string

	Debug bool
}

func Load() Config {
	return Config{
		ServiceName:    getenv("SERVICE_NAME", "storefront"),
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		BackendURL:     getenv("BACKEND_URL", "http://localhost:9000/api"),
		BackendTimeout: getdur("BACKEND_TIMEOUT", 5*time.Second),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:   getlist("KAFKA_BROKERS"),
		Debug:          os.Getenv("DEBUG") == "true",
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getlist(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
