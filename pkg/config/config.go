package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"SmartFolio/pkg/util"
)

// Config is the full application configuration. Values come from the YAML
// file first and may be overridden by environment variables.
type Config struct {
	Environment string           `yaml:"environment"`
	Server      ServerConfig     `yaml:"server"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Log         LogConfig        `yaml:"log"`
	Postgres    PostgresConfig   `yaml:"postgres"`
	Redis       RedisConfig      `yaml:"redis"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Kafka       KafkaConfig      `yaml:"kafka"`
	Advisors    AdvisorsConfig   `yaml:"advisors"`
	Engine      EngineConfig     `yaml:"engine"`
	Scheduler   SchedulerConfig  `yaml:"scheduler"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// DSN renders the gorm/pgx connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ClickHouseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// AdvisorsConfig controls which upstream advisors are queried and how.
type AdvisorsConfig struct {
	Enabled        []string         `yaml:"enabled"`
	RequestTimeout time.Duration    `yaml:"request_timeout"`
	RateLimit      float64          `yaml:"rate_limit"`
	RateBurst      int              `yaml:"rate_burst"`
	FMP            AdvisorAPIConfig `yaml:"fmp"`
	Finnhub        AdvisorAPIConfig `yaml:"finnhub"`
	Yahoo          AdvisorAPIConfig `yaml:"yahoo"`
}

type AdvisorAPIConfig struct {
	BaseURL string  `yaml:"base_url"`
	APIKey  string  `yaml:"api_key"`
	Weight  float64 `yaml:"weight"`
}

// EngineConfig carries the analysis tunables.
type EngineConfig struct {
	MaxPositionFraction float64            `yaml:"max_position_fraction"`
	SignalReuseTTL      time.Duration      `yaml:"signal_reuse_ttl"`
	RecommendationTTL   time.Duration      `yaml:"recommendation_ttl"`
	UserWorkers         int                `yaml:"user_workers"`
	Watchlist           []string           `yaml:"watchlist"`
	Priority            PriorityConfig     `yaml:"priority"`
	ProfitTaking        ProfitTakingConfig `yaml:"profit_taking"`
}

type PriorityConfig struct {
	ConfidenceWeight     float64 `yaml:"confidence_weight"`
	StrengthWeight       float64 `yaml:"strength_weight"`
	DiversificationBonus float64 `yaml:"diversification_bonus"`
	ProfitTakingFloor    float64 `yaml:"profit_taking_floor"`
}

type ProfitTakingConfig struct {
	ModerateGainPct   float64 `yaml:"moderate_gain_pct"`
	StrongGainPct     float64 `yaml:"strong_gain_pct"`
	ModerateSellRatio float64 `yaml:"moderate_sell_ratio"`
	StrongSellRatio   float64 `yaml:"strong_sell_ratio"`
}

type SchedulerConfig struct {
	Enabled bool   `yaml:"enabled"`
	RunAt   string `yaml:"run_at"`
}

// Load reads the YAML file at path, applies environment overrides, fills
// defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Environment, "APP_ENV")
	setString(&c.Server.Host, "SERVER_HOST")
	setInt(&c.Server.Port, "SERVER_PORT")
	setString(&c.Log.Level, "LOG_LEVEL")

	setString(&c.Postgres.Host, "POSTGRES_HOST")
	setInt(&c.Postgres.Port, "POSTGRES_PORT")
	setString(&c.Postgres.User, "POSTGRES_USER")
	setString(&c.Postgres.Password, "POSTGRES_PASSWORD")
	setString(&c.Postgres.Database, "POSTGRES_DB")

	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")

	setString(&c.ClickHouse.Addr, "CLICKHOUSE_ADDR")
	setString(&c.ClickHouse.User, "CLICKHOUSE_USER")
	setString(&c.ClickHouse.Password, "CLICKHOUSE_PASSWORD")

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}

	setString(&c.Advisors.FMP.APIKey, "FMP_API_KEY")
	setString(&c.Advisors.Finnhub.APIKey, "FINNHUB_API_KEY")
	setString(&c.Advisors.Yahoo.APIKey, "YAHOO_API_KEY")
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Postgres.SSLMode == "" {
		c.Postgres.SSLMode = "disable"
	}

	if len(c.Advisors.Enabled) == 0 {
		c.Advisors.Enabled = []string{"FMP", "FINNHUB", "YAHOO"}
	}
	if c.Advisors.RequestTimeout == 0 {
		c.Advisors.RequestTimeout = 10 * time.Second
	}
	if c.Advisors.RateLimit == 0 {
		c.Advisors.RateLimit = 5
	}
	if c.Advisors.RateBurst == 0 {
		c.Advisors.RateBurst = 10
	}
	if c.Advisors.FMP.Weight == 0 {
		c.Advisors.FMP.Weight = 1.0
	}
	if c.Advisors.Finnhub.Weight == 0 {
		c.Advisors.Finnhub.Weight = 1.2
	}
	if c.Advisors.Yahoo.Weight == 0 {
		c.Advisors.Yahoo.Weight = 0.8
	}

	if c.Engine.MaxPositionFraction == 0 {
		c.Engine.MaxPositionFraction = 0.20
	}
	if c.Engine.SignalReuseTTL == 0 {
		c.Engine.SignalReuseTTL = 6 * time.Hour
	}
	if c.Engine.RecommendationTTL == 0 {
		c.Engine.RecommendationTTL = 7 * 24 * time.Hour
	}
	if c.Engine.UserWorkers == 0 {
		c.Engine.UserWorkers = 4
	}
	if c.Engine.Priority.ConfidenceWeight == 0 {
		c.Engine.Priority.ConfidenceWeight = 60
	}
	if c.Engine.Priority.StrengthWeight == 0 {
		c.Engine.Priority.StrengthWeight = 30
	}
	if c.Engine.Priority.DiversificationBonus == 0 {
		c.Engine.Priority.DiversificationBonus = 10
	}
	if c.Engine.Priority.ProfitTakingFloor == 0 {
		c.Engine.Priority.ProfitTakingFloor = 90
	}
	if c.Engine.ProfitTaking.ModerateGainPct == 0 {
		c.Engine.ProfitTaking.ModerateGainPct = 10
	}
	if c.Engine.ProfitTaking.StrongGainPct == 0 {
		c.Engine.ProfitTaking.StrongGainPct = 20
	}
	if c.Engine.ProfitTaking.ModerateSellRatio == 0 {
		c.Engine.ProfitTaking.ModerateSellRatio = 0.25
	}
	if c.Engine.ProfitTaking.StrongSellRatio == 0 {
		c.Engine.ProfitTaking.StrongSellRatio = 0.50
	}
	c.Engine.Watchlist = util.NormalizeSymbols(c.Engine.Watchlist)

	if c.Scheduler.RunAt == "" {
		c.Scheduler.RunAt = "06:30"
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	if c.Engine.MaxPositionFraction <= 0 || c.Engine.MaxPositionFraction > 1 {
		return fmt.Errorf("config: max_position_fraction must be in (0,1], got %v", c.Engine.MaxPositionFraction)
	}
	if c.Engine.UserWorkers < 1 {
		return fmt.Errorf("config: user_workers must be positive, got %d", c.Engine.UserWorkers)
	}
	if c.Advisors.RateLimit <= 0 {
		return fmt.Errorf("config: advisor rate_limit must be positive, got %v", c.Advisors.RateLimit)
	}
	for _, name := range c.Advisors.Enabled {
		switch strings.ToUpper(name) {
		case "FMP", "FINNHUB", "YAHOO":
		default:
			return fmt.Errorf("config: unknown advisor %q", name)
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka enabled but no brokers configured")
	}
	if c.Scheduler.Enabled {
		if _, err := time.Parse("15:04", c.Scheduler.RunAt); err != nil {
			return fmt.Errorf("config: scheduler run_at must be HH:MM, got %q", c.Scheduler.RunAt)
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
