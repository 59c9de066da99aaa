package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Cooldown CooldownConfig `yaml:"cooldown"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Host         string        `yaml:"host" env:"ZENGO_SERVER_HOST"`
	Port         int           `yaml:"port" env:"ZENGO_SERVER_PORT"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	MySQL MySQLConfig `yaml:"mysql"`
	Redis RedisConfig `yaml:"redis"`
}

type MySQLConfig struct {
	// DataSource, when set, is used verbatim and the discrete fields below are ignored.
	DataSource      string        `yaml:"dsn" env:"ZENGO_MYSQL_DSN"`
	Host            string        `yaml:"host" env:"ZENGO_MYSQL_HOST"`
	Port            int           `yaml:"port" env:"ZENGO_MYSQL_PORT"`
	Username        string        `yaml:"username" env:"ZENGO_MYSQL_USERNAME"`
	Password        string        `yaml:"password" env:"ZENGO_MYSQL_PASSWORD"`
	Database        string        `yaml:"database" env:"ZENGO_MYSQL_DATABASE"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `yaml:"host" env:"ZENGO_REDIS_HOST"`
	Port     int    `yaml:"port" env:"ZENGO_REDIS_PORT"`
	Password string `yaml:"password" env:"ZENGO_REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// CooldownConfig configures the per-user admission gate.
type CooldownConfig struct {
	Backend       string        `yaml:"backend" env:"ZENGO_COOLDOWN_BACKEND"` // "memory" or "redis"
	Window        time.Duration `yaml:"window" env:"ZENGO_COOLDOWN_WINDOW"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"ZENGO_LOG_LEVEL"` // "silent", "error", "warn", "info"
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies environment overrides and fills defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Variables that are not set leave the YAML values untouched.
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}

	m := &c.Database.MySQL
	if m.Host == "" {
		m.Host = "127.0.0.1"
	}
	if m.Port == 0 {
		m.Port = 3306
	}
	if m.MaxOpenConns == 0 {
		m.MaxOpenConns = 20
	}
	if m.MaxIdleConns == 0 {
		m.MaxIdleConns = 5
	}
	if m.ConnMaxLifetime == 0 {
		m.ConnMaxLifetime = time.Hour
	}

	r := &c.Database.Redis
	if r.Host == "" {
		r.Host = "127.0.0.1"
	}
	if r.Port == 0 {
		r.Port = 6379
	}
	if r.PoolSize == 0 {
		r.PoolSize = 10
	}

	if c.Cooldown.Backend == "" {
		c.Cooldown.Backend = BackendMemory
	}
	if c.Cooldown.Window == 0 {
		c.Cooldown.Window = 3 * time.Second
	}
	if c.Cooldown.SweepInterval == 0 {
		c.Cooldown.SweepInterval = time.Minute
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "warn"
	}
}

func (c *Config) Validate() error {
	switch c.Cooldown.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unsupported cooldown backend: %s", c.Cooldown.Backend)
	}
	if c.Cooldown.Window < 0 {
		return fmt.Errorf("cooldown window must not be negative: %s", c.Cooldown.Window)
	}
	if c.Cooldown.SweepInterval <= 0 {
		return fmt.Errorf("cooldown sweep interval must be positive: %s", c.Cooldown.SweepInterval)
	}
	return nil
}

// DSN returns the go-sql-driver connection string.
func (m MySQLConfig) DSN() string {
	if m.DataSource != "" {
		return m.DataSource
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		m.Username,
		m.Password,
		m.Host,
		m.Port,
		m.Database,
	)
}
