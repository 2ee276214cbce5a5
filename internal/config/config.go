package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Store      StoreConfig      `mapstructure:"store"`
	MySQL      DatabaseConfig   `mapstructure:"mysql"`
	SQLite     SQLiteConfig     `mapstructure:"sqlite"`
	ClickHouse DatabaseConfig   `mapstructure:"clickhouse"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
	Stats      StatsConfig      `mapstructure:"stats"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Simulator  SimulatorConfig  `mapstructure:"simulator"`
	Providers  []ProviderConfig `mapstructure:"providers"`
}

// ---- Leaf structs ----

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Encoding   string `mapstructure:"encoding"` // json | console
	File       string `mapstructure:"file"`     // optional rotated file
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type HTTPConfig struct {
	Addr        string `mapstructure:"addr"`
	UploadDir   string `mapstructure:"upload_dir"`
	MediaDir    string `mapstructure:"media_dir"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"` // mysql | sqlite
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	GroupID        string   `mapstructure:"group_id"`
	DispatchTopic  string   `mapstructure:"dispatch_topic"`
	MinBytes       int      `mapstructure:"min_bytes"`
	MaxBytes       int      `mapstructure:"max_bytes"`
	CommitInterval int      `mapstructure:"commit_interval_ms"`
}

type DispatcherConfig struct {
	WorkerCount      int           `mapstructure:"worker_count"`
	SendTimeout      time.Duration `mapstructure:"send_timeout"`
	MaxRetryAttempts int           `mapstructure:"max_retry_attempts"`
}

type SchedulerConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	BatchSize  int           `mapstructure:"batch_size"`
	StuckAfter time.Duration `mapstructure:"stuck_after"`
}

type IngestConfig struct {
	PhoneColumn    string `mapstructure:"phone_column"`
	Dedupe         bool   `mapstructure:"dedupe"`
	NormalizePhone bool   `mapstructure:"normalize_phone"`
}

type StatsConfig struct {
	Timezone   string `mapstructure:"timezone"`
	SeriesDays int    `mapstructure:"series_days"`
}

type RateLimitConfig struct {
	RPS int `mapstructure:"rps"`
}

// SimulatorConfig drives the log-only delivery channel used when no
// provider is enabled.
type SimulatorConfig struct {
	Enabled  bool    `mapstructure:"enabled"`
	FailRate float64 `mapstructure:"fail_rate"`
}

type BreakerConfig struct {
	FailThreshold int `mapstructure:"fail_threshold" yaml:"fail_threshold"`
	OpenForMs     int `mapstructure:"open_for_ms"    yaml:"open_for_ms"`
}

type ProviderConfig struct {
	Name      string        `mapstructure:"name"`
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	SMSPath   string        `mapstructure:"sms_path"`
	MMSPath   string        `mapstructure:"mms_path"`
	TimeoutMs int           `mapstructure:"timeout_ms"`
	Breaker   BreakerConfig `mapstructure:"breaker"`
}

// Location resolves the stats time zone, falling back to UTC. Load rejects
// zones that do not resolve, so the fallback only covers hand-built configs.
func (c StatsConfig) Location() *time.Location {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (SMSPANEL_*).
// A .env file in the working directory is loaded into the process environment first.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// env override (SMSPANEL_*), nested keys use underscores: SMSPANEL_MYSQL_DSN
	v.SetEnvPrefix("SMSPANEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if tz := strings.TrimSpace(c.Stats.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("stats.timezone: %w", err)
		}
	}
	// A dispatch pass renews its lease once per contact, and one contact can
	// take up to the send timeout.
	if c.Scheduler.StuckAfter > 0 && c.Scheduler.StuckAfter <= c.Dispatcher.SendTimeout {
		return fmt.Errorf("scheduler.stuck_after (%s) must exceed dispatcher.send_timeout (%s)",
			c.Scheduler.StuckAfter, c.Dispatcher.SendTimeout)
	}
	return nil
}
