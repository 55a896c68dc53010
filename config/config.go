package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
	Attendance AttendanceConfig `mapstructure:"attendance"`
	Calendar   CalendarConfig   `mapstructure:"calendar"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
}

// ServerConfig HTTP server
type ServerConfig struct {
	Port         int        `mapstructure:"port"`
	MaxBodyBytes int64      `mapstructure:"max_body_bytes"`
	CORS         CORSConfig `mapstructure:"cors"`
}

// CORSConfig cross-origin settings
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL connection
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// DSN PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig optional redis; an empty Addr disables it
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT settings
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	LoginRateLimit int           `mapstructure:"login_rate_limit"` // attempts per minute per IP
}

// LogConfig logging
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AttendanceConfig reconciliation engine settings
type AttendanceConfig struct {
	Timezone               string        `mapstructure:"timezone"`
	StandardHours          float64       `mapstructure:"standard_hours"`
	ManualFlatHours        bool          `mapstructure:"manual_flat_hours"`
	OvertimeThresholdHours float64       `mapstructure:"overtime_threshold_hours"`
	EarlyLeaveMinutes      int           `mapstructure:"early_leave_minutes"`
	StoreTimeout           time.Duration `mapstructure:"store_timeout"`
	Batch                  BatchConfig   `mapstructure:"batch"`
	Retry                  RetryConfig   `mapstructure:"retry"`
}

// Location parsed Timezone, UTC when empty
func (c *AttendanceConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// BatchConfig chunking of bulk writes and deletes
type BatchConfig struct {
	ChunkSize int           `mapstructure:"chunk_size"`
	Pause     time.Duration `mapstructure:"pause"`
}

// RetryConfig backoff for transient store errors
type RetryConfig struct {
	Attempts int           `mapstructure:"attempts"`
	Initial  time.Duration `mapstructure:"initial"`
	Cap      time.Duration `mapstructure:"cap"`
}

// CalendarConfig double-time calendar cache
type CalendarConfig struct {
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	RefreshCron string        `mapstructure:"refresh_cron"`
	SharedCache bool          `mapstructure:"shared_cache"`
}

// SchedulerConfig background jobs
type SchedulerConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ReconcileCron string `mapstructure:"reconcile_cron"`
	LookbackDays  int    `mapstructure:"lookback_days"`
}

// Load reads configuration.
// Precedence: environment > config file > defaults. A .env file in the working
// directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	// ── defaults ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "attendance")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "12h")
	v.SetDefault("auth.login_rate_limit", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("attendance.timezone", "UTC")
	v.SetDefault("attendance.standard_hours", 9.0)
	v.SetDefault("attendance.manual_flat_hours", true)
	v.SetDefault("attendance.overtime_threshold_hours", 12.0)
	v.SetDefault("attendance.early_leave_minutes", 10)
	v.SetDefault("attendance.store_timeout", "30s")
	v.SetDefault("attendance.batch.chunk_size", 50)
	v.SetDefault("attendance.batch.pause", "50ms")
	v.SetDefault("attendance.retry.attempts", 5)
	v.SetDefault("attendance.retry.initial", "1s")
	v.SetDefault("attendance.retry.cap", "40s")

	v.SetDefault("calendar.cache_ttl", "5m")
	v.SetDefault("calendar.refresh_cron", "*/5 * * * *")
	v.SetDefault("calendar.shared_cache", true)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.reconcile_cron", "15 2 * * *")
	v.SetDefault("scheduler.lookback_days", 3)

	// ── config file ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── environment ──
	v.SetEnvPrefix("ATTEND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings the service cannot start without
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("invalid config: auth.jwt_secret must not be empty")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("invalid config: auth.jwt_secret must be at least 16 characters")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port must be between 1 and 65535")
	}
	if _, err := c.Attendance.Location(); err != nil {
		return fmt.Errorf("invalid config: attendance.timezone: %w", err)
	}
	if c.Attendance.Batch.ChunkSize <= 0 {
		return fmt.Errorf("invalid config: attendance.batch.chunk_size must be positive")
	}
	if c.Attendance.StandardHours <= 0 {
		return fmt.Errorf("invalid config: attendance.standard_hours must be positive")
	}
	if c.Attendance.Retry.Attempts <= 0 {
		return fmt.Errorf("invalid config: attendance.retry.attempts must be positive")
	}
	return nil
}
