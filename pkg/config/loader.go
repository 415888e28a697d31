package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix    = "MAXFLOW_"
	configEnvVar = "CONFIG_PATH"
)

// Loader загружает конфигурацию из разных источников
type Loader struct {
	k           *koanf.Koanf
	configPaths []string
	envPrefix   string
	explicit    string
}

// NewLoader создаёт новый загрузчик конфигурации
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k: koanf.New("."),
		configPaths: []string{
			"config.yaml",
			"config/config.yaml",
			"/etc/maxflow/config.yaml",
		},
		envPrefix: envPrefix,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// LoaderOption - опция для конфигурации загрузчика
type LoaderOption func(*Loader)

// WithConfigPaths устанавливает пути поиска конфигурации
func WithConfigPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.configPaths = paths
	}
}

// WithConfigFile задаёт файл явно; его отсутствие - ошибка.
func WithConfigFile(path string) LoaderOption {
	return func(l *Loader) {
		l.explicit = path
	}
}

// WithEnvPrefix устанавливает префикс переменных окружения
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// Load загружает конфигурацию с приоритетом:
// 1. Defaults (самый низкий)
// 2. Config file (yaml)
// 3. Environment variables (самый высокий)
func (l *Loader) Load() (*Config, error) {
	if err := l.k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if l.explicit != "" {
		if err := l.k.Load(file.Provider(l.explicit), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", l.explicit, err)
		}
	} else if err := l.loadConfigFile(); err != nil {
		// файл не обязателен
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if err := l.loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() map[string]any {
	return map[string]any{
		// App
		"app.name":        "solver-svc",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.debug":       false,

		// GRPC
		"grpc.port":                               50052,
		"grpc.max_recv_msg_size":                  64 * 1024 * 1024,
		"grpc.max_send_msg_size":                  64 * 1024 * 1024,
		"grpc.max_concurrent_conn":                1000,
		"grpc.reflection":                         true,
		"grpc.shutdown_timeout":                   30 * time.Second,
		"grpc.keepalive.max_connection_idle":      15 * time.Minute,
		"grpc.keepalive.max_connection_age":       30 * time.Minute,
		"grpc.keepalive.max_connection_age_grace": 5 * time.Minute,
		"grpc.keepalive.time":                     5 * time.Minute,
		"grpc.keepalive.timeout":                  20 * time.Second,
		"grpc.tls.enabled":                        false,

		// Log
		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		// Metrics
		"metrics.enabled":   true,
		"metrics.port":      9090,
		"metrics.path":      "/metrics",
		"metrics.namespace": "maxflow",

		// Tracing
		"tracing.enabled":      false,
		"tracing.endpoint":     "localhost:4317",
		"tracing.service_name": "solver-svc",
		"tracing.sample_rate":  0.1,

		// Database
		"database.enabled":            false,
		"database.host":               "localhost",
		"database.port":               5432,
		"database.database":           "maxflow",
		"database.username":           "postgres",
		"database.password":           "",
		"database.ssl_mode":           "disable",
		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  5 * time.Minute,
		"database.conn_max_idle_time": 5 * time.Minute,
		"database.auto_migrate":       true,

		// Cache
		"cache.enabled":     true,
		"cache.driver":      "memory",
		"cache.host":        "localhost",
		"cache.port":        6379,
		"cache.db":          0,
		"cache.default_ttl": 10 * time.Minute,
		"cache.max_entries": 1000,

		// Auth
		"auth.enabled":        false,
		"auth.issuer":         "maxflow",
		"auth.token_ttl":      24 * time.Hour,
		"auth.public_methods": []string{"/grpc.health.v1.Health/Check", "/grpc.health.v1.Health/Watch"},

		// Rate limit
		"ratelimit.enabled":  false,
		"ratelimit.backend":  "memory",
		"ratelimit.requests": 60,
		"ratelimit.window":   time.Minute,
		"ratelimit.burst":    10,
		"ratelimit.methods":  []string{},

		// Client
		"client.address":       "localhost:50052",
		"client.timeout":       60 * time.Second,
		"client.max_retries":   3,
		"client.retry_backoff": 100 * time.Millisecond,

		// Solver
		"solver.epsilon":          1e-10,
		"solver.primary_budget":   1,
		"solver.secondary_budget": 20,
		"solver.check_interval":   100,
		"solver.timeout":          30 * time.Second,
		"solver.max_nodes":        1_000_000,
		"solver.max_arcs":         10_000_000,
		"solver.verify":           true,

		// Report
		"report.max_arcs_in_table":       200,
		"report.company_name":            "maxflow",
		"report.pdf.page_size":           "A4",
		"report.pdf.orientation":         "portrait",
		"report.pdf.margin_top":          15.0,
		"report.pdf.margin_left":         10.0,
		"report.pdf.margin_right":        10.0,
		"report.pdf.enable_page_numbers": true,
	}
}

// loadConfigFile загружает конфигурацию из файла
func (l *Loader) loadConfigFile() error {
	if configPath := os.Getenv(configEnvVar); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return l.k.Load(file.Provider(configPath), yaml.Parser())
		}
	}

	for _, path := range l.configPaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}

		if _, err := os.Stat(absPath); err == nil {
			return l.k.Load(file.Provider(absPath), yaml.Parser())
		}
	}

	return fmt.Errorf("config file not found in paths: %v", l.configPaths)
}

// loadEnv загружает конфигурацию из переменных окружения.
// Первый сегмент после префикса - секция, остаток - ключ внутри неё
// (MAXFLOW_SOLVER_PRIMARY_BUDGET -> solver.primary_budget).
func (l *Loader) loadEnv() error {
	return l.k.Load(env.ProviderWithValue(l.envPrefix, ".", func(envKey string, value string) (string, any) {
		key := envToKey(strings.TrimPrefix(envKey, l.envPrefix))
		if key == "" {
			return "", nil
		}

		if sliceFields[key] {
			return key, splitAndTrim(value)
		}

		return key, value
	}), nil)
}

// nestedSections - секции со вложенными структурами
var nestedSections = map[string][]string{
	"grpc":   {"keepalive", "tls"},
	"report": {"pdf"},
}

func envToKey(raw string) string {
	raw = strings.ToLower(raw)
	section, rest, ok := strings.Cut(raw, "_")
	if !ok || rest == "" {
		return ""
	}
	for _, sub := range nestedSections[section] {
		if after, found := strings.CutPrefix(rest, sub+"_"); found {
			return section + "." + sub + "." + after
		}
	}
	return section + "." + rest
}

// sliceFields - поля, которые должны парситься как слайсы
var sliceFields = map[string]bool{
	"auth.public_methods": true,
	"ratelimit.methods":   true,
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Load - удобная функция для загрузки с дефолтными настройками
func Load() (*Config, error) {
	return NewLoader().Load()
}
