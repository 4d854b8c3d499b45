package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	BackendURL   string
	SocketURL    string
	DBDSN        string
	TemplatesDir string
	LogFile      string
	LogLevel     string
	LogFormat    string
	HTTPTimeout  time.Duration
	CartDebounce time.Duration
	SessionIdle  time.Duration
	SessionTTL   time.Duration
}

func Load() Config {
	// .env is optional; real environment wins.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	cfg := Config{
		Port:         env("PORT", "8080"),
		BackendURL:   strings.TrimRight(env("BACKEND_URL", "http://localhost:5000/api"), "/"),
		DBDSN:        env("DB_DSN", "rentalhub.db"),
		TemplatesDir: env("TEMPLATES_DIR", "./web/templates"),
		LogFile:      os.Getenv("LOG_FILE"),
		LogLevel:     env("LOG_LEVEL", "info"),
		LogFormat:    env("LOG_FORMAT", "json"),
		HTTPTimeout:  duration("HTTP_TIMEOUT", 10*time.Second),
		CartDebounce: duration("CART_DEBOUNCE", 300*time.Millisecond),
		SessionIdle:  duration("SESSION_IDLE", 30*time.Minute),
		SessionTTL:   duration("SESSION_TTL", 30*24*time.Hour),
	}
	cfg.SocketURL = env("SOCKET_URL", SocketURLFor(cfg.BackendURL))

	log.Printf("[config] PORT=%s BACKEND_URL=%s SOCKET_URL=%s DB_DSN=%s LOG_FILE=%s",
		cfg.Port, cfg.BackendURL, cfg.SocketURL, cfg.DBDSN, cfg.LogFile)
	return cfg
}

// SocketURLFor derives the chat socket endpoint from the REST base URL.
func SocketURLFor(backend string) string {
	u := backend
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return strings.TrimRight(u, "/") + "/ws"
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("[config] ignoring %s=%q: %v", key, v, err)
		return def
	}
	return d
}
