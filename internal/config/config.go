package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	LLM       LLMConfig       `mapstructure:"llm"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Outcome   OutcomeConfig   `mapstructure:"outcome"`

	// Runtime flags, set from the command line rather than the config file.
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LLMConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// RiskConfig holds thresholds for the per-message risk pipeline.
type RiskConfig struct {
	BaselineMinSessions int `mapstructure:"baseline_min_sessions"` // sessions before a baseline is considered established
	ScreenCooldownDays  int `mapstructure:"screen_cooldown_days"`  // do not re-trigger a clinical screen within this window
	TemporalWindowDays  int `mapstructure:"temporal_window_days"`  // default lookback for pattern detection
	RecentAssessments   int `mapstructure:"recent_assessments"`    // how many assessments the risk calculator considers
}

// OutcomeConfig controls the scheduled symptom-improvement sweep.
type OutcomeConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	LagDays           int  `mapstructure:"lag_days"`           // alerts created exactly this many days ago
	FollowupMinDays   int  `mapstructure:"followup_min_days"`  // follow-up window start after the alert
	FollowupMaxDays   int  `mapstructure:"followup_max_days"`  // follow-up window end after the alert
	ImprovementPoints int  `mapstructure:"improvement_points"` // clinically significant score reduction
	RunIntervalHours  int  `mapstructure:"run_interval_hours"` // scheduler cadence
	LockTTLMinutes    int  `mapstructure:"lock_ttl_minutes"`   // redis run-lock lifetime
}

func (c *RiskConfig) applyDefaults() {
	if c.BaselineMinSessions <= 0 {
		c.BaselineMinSessions = 3
	}
	if c.ScreenCooldownDays <= 0 {
		c.ScreenCooldownDays = 7
	}
	if c.TemporalWindowDays <= 0 {
		c.TemporalWindowDays = 30
	}
	if c.RecentAssessments <= 0 {
		c.RecentAssessments = 5
	}
}

func (c *OutcomeConfig) applyDefaults() {
	if c.LagDays <= 0 {
		c.LagDays = 14
	}
	if c.FollowupMinDays <= 0 {
		c.FollowupMinDays = 10
	}
	if c.FollowupMaxDays <= 0 {
		c.FollowupMaxDays = 30
	}
	if c.ImprovementPoints <= 0 {
		c.ImprovementPoints = 3
	}
	if c.RunIntervalHours <= 0 {
		c.RunIntervalHours = 24
	}
	if c.LockTTLMinutes <= 0 {
		c.LockTTLMinutes = 60
	}
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("CAMPUSWELL")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// LLM
	viper.BindEnv("llm.base_url", "LLM_BASE_URL")
	viper.BindEnv("llm.api_key", "LLM_API_KEY")
	viper.BindEnv("llm.model", "LLM_MODEL")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.Risk.applyDefaults()
	cfg.Outcome.applyDefaults()

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}
