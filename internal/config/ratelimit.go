package config

import "time"

type RateLimitConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Capacity       int           `yaml:"capacity"`
	RefillTokens   int           `yaml:"refill_tokens"`
	RefillInterval time.Duration `yaml:"refill_interval"`
	TTL            time.Duration `yaml:"ttl"`
	KeyStrategy    string        `yaml:"key_strategy"`
	Prefix         string        `yaml:"prefix"`
}

func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        getEnvBool("RATE_LIMIT_ENABLED", true),
		Capacity:       getEnvInt("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   getEnvInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: getEnvDuration("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            getEnvDuration("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    getEnv("RATE_LIMIT_KEY_STRATEGY", "ip_user"),
		Prefix:         getEnv("RATE_LIMIT_PREFIX", "rl"),
	}

	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}

	return cfg
}
