package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env       string          `yaml:"env"`
	HTTPAddr  string          `yaml:"http_addr"`
	JWTKey    string          `yaml:"jwt_key"`
	JWTTTL    time.Duration   `yaml:"jwt_ttl"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Log       LogConfig       `yaml:"log"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
}

// RabbitMQConfig is optional; an empty URL disables rental event publishing.
type RabbitMQConfig struct {
	URL   string `yaml:"url"`
	Queue string `yaml:"queue"`
}

type TelemetryConfig struct {
	ServiceName  string `yaml:"service_name"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

type SchedulerConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OverdueCheck string `yaml:"overdue_check"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load() *Config {
	return &Config{
		Env:      getEnv("ENV", "development"),
		HTTPAddr: normalizeAddr(getEnv("HTTP_ADDR", ":8080")),
		JWTKey:   getEnv("JWT_KEY", "secret"),
		JWTTTL:   getEnvDuration("JWT_TTL", 7*24*time.Hour),
		Database: DatabaseConfig{
			Host:     getEnv("DATABASE_HOST", "localhost"),
			Port:     getEnv("DATABASE_PORT", "5432"),
			User:     getEnv("DATABASE_USER", "postgres"),
			Password: getEnv("DATABASE_PASSWORD", "postgres"),
			Name:     getEnv("DATABASE_NAME", "toolrental"),
			SSLMode:  getEnv("DATABASE_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		RabbitMQ: RabbitMQConfig{
			URL:   getEnv("RABBITMQ_URL", ""),
			Queue: getEnv("RABBITMQ_QUEUE", "rental.events"),
		},
		Telemetry: TelemetryConfig{
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "toolrental"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		},
		RateLimit: LoadRateLimitConfig(),
		Scheduler: SchedulerConfig{
			Enabled:      getEnvBool("SCHEDULER_ENABLED", true),
			OverdueCheck: getEnv("SCHEDULER_OVERDUE_CHECK", "0 0 2 * * *"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// LoadFile overlays a YAML file on top of the environment configuration.
// Keys absent from the file keep their environment values.
func LoadFile(path string) (*Config, error) {
	cfg := Load()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	cfg.HTTPAddr = normalizeAddr(cfg.HTTPAddr)

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func normalizeAddr(addr string) string {
	if addr == "" {
		return addr
	}

	if addr[0] == ':' || addr[0] == '[' {
		return addr
	}

	for _, r := range addr {
		if r < '0' || r > '9' {
			return addr
		}
	}

	return ":" + addr
}
