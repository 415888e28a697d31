// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config - главная структура конфигурации
type Config struct {
	App       AppConfig       `koanf:"app"`
	GRPC      GRPCConfig      `koanf:"grpc"`
	Log       LogConfig       `koanf:"log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Tracing   TracingConfig   `koanf:"tracing"`
	Database  DatabaseConfig  `koanf:"database"`
	Cache     CacheConfig     `koanf:"cache"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Client    ClientConfig    `koanf:"client"`
	Solver    SolverConfig    `koanf:"solver"`
	Report    ReportConfig    `koanf:"report"`
}

// AppConfig - общие настройки приложения
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// GRPCConfig - настройки gRPC сервера
type GRPCConfig struct {
	Port              int             `koanf:"port"`
	MaxRecvMsgSize    int             `koanf:"max_recv_msg_size"` // bytes
	MaxSendMsgSize    int             `koanf:"max_send_msg_size"` // bytes
	MaxConcurrentConn int             `koanf:"max_concurrent_conn"`
	Reflection        bool            `koanf:"reflection"`
	ShutdownTimeout   time.Duration   `koanf:"shutdown_timeout"`
	KeepAlive         KeepAliveConfig `koanf:"keepalive"`
	TLS               TLSConfig       `koanf:"tls"`
}

// KeepAliveConfig - настройки keep-alive
type KeepAliveConfig struct {
	MaxConnectionIdle     time.Duration `koanf:"max_connection_idle"`
	MaxConnectionAge      time.Duration `koanf:"max_connection_age"`
	MaxConnectionAgeGrace time.Duration `koanf:"max_connection_age_grace"`
	Time                  time.Duration `koanf:"time"`
	Timeout               time.Duration `koanf:"timeout"`
}

// TLSConfig - настройки TLS
type TLSConfig struct {
	Enabled  bool   `koanf:"enabled"`
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
}

// LogConfig - настройки логирования
type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`   // путь к файлу логов
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"` // количество бэкапов
	MaxAge     int    `koanf:"max_age"`     // дней
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig - настройки Prometheus метрик
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
}

// TracingConfig - настройки OpenTelemetry
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// DatabaseConfig - настройки базы данных (история решений)
type DatabaseConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Database        string        `koanf:"database"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// CacheConfig - настройки кэша результатов
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Driver     string        `koanf:"driver"` // redis, memory
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxEntries int           `koanf:"max_entries"` // для in-memory
}

// Address возвращает адрес кэша
func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuthConfig - проверка bearer-токенов на сервере
type AuthConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Secret        string        `koanf:"secret"`
	Issuer        string        `koanf:"issuer"`
	TokenTTL      time.Duration `koanf:"token_ttl"`
	PublicMethods []string      `koanf:"public_methods"`
}

// RateLimitConfig - ограничение частоты вызовов на клиента
type RateLimitConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Backend  string        `koanf:"backend"` // memory, redis (адрес из cache)
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
	// Methods пустой список ограничивает все методы, кроме auth.public_methods
	Methods []string `koanf:"methods"`
}

// ClientConfig - настройки клиента (flowctl remote)
type ClientConfig struct {
	Address      string        `koanf:"address"`
	Timeout      time.Duration `koanf:"timeout"`
	MaxRetries   int           `koanf:"max_retries"`
	RetryBackoff time.Duration `koanf:"retry_backoff"`
	Token        string        `koanf:"token"`
}

// SolverConfig - параметры движка preflow
type SolverConfig struct {
	Epsilon         float64       `koanf:"epsilon"`
	PrimaryBudget   int           `koanf:"primary_budget"`   // множитель n для highest-active цикла
	SecondaryBudget int           `koanf:"secondary_budget"` // множитель n для bound-decrease цикла
	CheckInterval   int           `koanf:"check_interval"`   // discharges между проверками ctx
	Timeout         time.Duration `koanf:"timeout"`
	MaxNodes        int           `koanf:"max_nodes"`
	MaxArcs         int           `koanf:"max_arcs"`
	Verify          bool          `koanf:"verify"`
}

// ReportConfig конфигурация генерации отчётов
type ReportConfig struct {
	MaxArcsInTable int       `koanf:"max_arcs_in_table"`
	CompanyName    string    `koanf:"company_name"`
	PDF            PDFConfig `koanf:"pdf"`
}

// PDFConfig конфигурация PDF генератора
type PDFConfig struct {
	PageSize          string  `koanf:"page_size"`    // A4, Letter, Legal, A3
	Orientation       string  `koanf:"orientation"`  // portrait, landscape
	MarginTop         float64 `koanf:"margin_top"`   // mm
	MarginLeft        float64 `koanf:"margin_left"`  // mm
	MarginRight       float64 `koanf:"margin_right"` // mm
	EnablePageNumbers bool    `koanf:"enable_page_numbers"`
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.GRPC.Port <= 0 || c.GRPC.Port > 65535 {
		errs = append(errs, fmt.Sprintf("grpc.port must be between 1 and 65535, got %d", c.GRPC.Port))
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	// Solver
	if c.Solver.Epsilon < 0 {
		errs = append(errs, "solver.epsilon must be non-negative")
	}
	if c.Solver.PrimaryBudget < 1 {
		errs = append(errs, fmt.Sprintf("solver.primary_budget must be at least 1, got %d", c.Solver.PrimaryBudget))
	}
	if c.Solver.SecondaryBudget < 0 {
		errs = append(errs, "solver.secondary_budget must be non-negative")
	}
	if c.Solver.CheckInterval < 1 {
		errs = append(errs, "solver.check_interval must be positive")
	}
	if c.Solver.MaxNodes < 2 {
		errs = append(errs, "solver.max_nodes must be at least 2")
	}

	if c.Cache.Enabled {
		validDrivers := map[string]bool{"memory": true, "redis": true}
		if !validDrivers[c.Cache.Driver] {
			errs = append(errs, fmt.Sprintf("cache.driver must be one of: memory, redis, got %s", c.Cache.Driver))
		}
	}

	if c.Auth.Enabled && c.Auth.Secret == "" {
		errs = append(errs, "auth.secret is required when auth is enabled")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Backend != "memory" && c.RateLimit.Backend != "redis" {
			errs = append(errs, fmt.Sprintf("ratelimit.backend must be one of: memory, redis, got %s", c.RateLimit.Backend))
		}
		if c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0 {
			errs = append(errs, "ratelimit.requests and ratelimit.window must be positive")
		}
	}

	validPageSizes := map[string]bool{"A4": true, "Letter": true, "Legal": true, "A3": true}
	if c.Report.PDF.PageSize != "" && !validPageSizes[c.Report.PDF.PageSize] {
		errs = append(errs, fmt.Sprintf("report.pdf.page_size must be one of: A4, Letter, Legal, A3, got %s", c.Report.PDF.PageSize))
	}

	validOrientations := map[string]bool{"portrait": true, "landscape": true}
	if c.Report.PDF.Orientation != "" && !validOrientations[c.Report.PDF.Orientation] {
		errs = append(errs, fmt.Sprintf("report.pdf.orientation must be one of: portrait, landscape, got %s", c.Report.PDF.Orientation))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment проверяет режим разработки
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction проверяет продакшн режим
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
