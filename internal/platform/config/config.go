// Package config reads runtime configuration from the environment so main
// stays lean. Every setting has a development default.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"agora/internal/i18n"
	"agora/pkg/domain"
	pstrings "agora/pkg/platform/strings"
)

// Config is the complete server configuration.
type Config struct {
	Server      Server
	Portal      Portal
	Languages   *i18n.Languages
	Redis       RedisConfig
	Kafka       KafkaConfig
	Log         Log
	ProfilePath string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr string
}

// Portal configures the upstream portal service client.
type Portal struct {
	BaseURL         string
	Timeout         time.Duration
	RefreshInterval time.Duration
	ThemeCacheTTL   time.Duration
}

// RedisConfig is empty-URL when Redis is not deployed.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig is empty-brokers when diagnostics stay in-process.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type Log struct {
	Level  string
	Format string
}

// FromEnv builds a Config from environment variables.
func FromEnv() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	var errs []string
	duration := func(key string, fallback time.Duration) time.Duration {
		raw := env(key, "")
		if raw == "" {
			return fallback
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid duration %q", key, raw))
			return fallback
		}
		return d
	}
	integer := func(key string, fallback int) int {
		raw := env(key, "")
		if raw == "" {
			return fallback
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid integer %q", key, raw))
			return fallback
		}
		return n
	}

	languages, err := languagesFrom(env("AGORA_LANGUAGES", "fr,de,en"), env("AGORA_DEFAULT_LANGUAGE", "fr"))
	if err != nil {
		errs = append(errs, err.Error())
	}

	cfg := Config{
		Server: Server{Addr: env("AGORA_ADDR", ":8080")},
		Portal: Portal{
			BaseURL:         env("AGORA_API_BASE_URL", "http://localhost:8000/api"),
			Timeout:         duration("AGORA_API_TIMEOUT", 10*time.Second),
			RefreshInterval: duration("AGORA_REFRESH_INTERVAL", 5*time.Minute),
			ThemeCacheTTL:   duration("AGORA_THEME_CACHE_TTL", time.Hour),
		},
		Languages: languages,
		Redis: RedisConfig{
			URL:          env("REDIS_URL", ""),
			PoolSize:     integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: pstrings.SplitList(env("KAFKA_BROKERS", "")),
			Topic:   env("AGORA_DIAGNOSTICS_TOPIC", "agora.diagnostics"),
		},
		Log: Log{
			Level:  strings.ToLower(env("LOG_LEVEL", "info")),
			Format: strings.ToLower(env("LOG_FORMAT", "json")),
		},
		ProfilePath: env("AGORA_PROFILE_PATH", ""),
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// languagesFrom parses the configured language list; codes keep their
// listed order, which becomes the fallback order.
func languagesFrom(list, fallback string) (*i18n.Languages, error) {
	codes := pstrings.DedupeAndTrimLower(pstrings.SplitList(list))
	order := make([]domain.Language, 0, len(codes))
	for _, code := range codes {
		lang, err := domain.ParseLanguage(code)
		if err != nil {
			return nil, fmt.Errorf("AGORA_LANGUAGES: %w", err)
		}
		order = append(order, lang)
	}
	def, err := domain.ParseLanguage(fallback)
	if err != nil {
		return nil, fmt.Errorf("AGORA_DEFAULT_LANGUAGE: %w", err)
	}
	langs, err := i18n.NewLanguages(def, order...)
	if err != nil {
		return nil, fmt.Errorf("AGORA_LANGUAGES: %w", err)
	}
	return langs, nil
}
