package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/girder/covalic/app/shared/observability"
)

// Config holds the full application configuration.
type Config struct {
	Postgres      PostgresConfig       `yaml:"postgres"`
	NATS          NATSConfig           `yaml:"nats"`
	HTTP          HTTPConfig           `yaml:"http"`
	JWT           JWTConfig            `yaml:"jwt"`
	Scoring       ScoringConfig        `yaml:"scoring"`
	Observability observability.Config `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// HTTPConfig holds the REST API configuration. APIBaseURL is the externally
// reachable prefix baked into scoring-job callback URLs.
type HTTPConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	APIBaseURL string `yaml:"api_base_url"`
}

// JWTConfig holds token-signing configuration.
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// ScoringConfig holds the scoring-dispatch configuration. UserID is the
// scoring identity; dispatch fails with a configuration error when it is
// unset or does not resolve to a real user.
type ScoringConfig struct {
	UserID       string        `yaml:"user_id"`
	DefaultImage string        `yaml:"default_image"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// DefaultScoringImage is used when a phase has no scoring-task override.
const DefaultScoringImage = "girder/covalic-metrics:latest"

// DefaultScoringTokenTTL bounds the scoring credential's lifetime.
const DefaultScoringTokenTTL = 7 * 24 * time.Hour

// LoadConfig loads configuration from a YAML file, falling back to
// environment variables when the file does not exist. Env vars override
// file values either way.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is not configured (set postgres.dsn or DATABASE_URL)")
	}
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS URL is not configured (set nats.url or NATS_URL)")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT secret is not configured (set jwt.secret or JWT_SECRET)")
	}

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("HTTP_LISTEN_ADDR"); v != "" {
		cfg.HTTP.ListenAddr = v
	}
	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.HTTP.APIBaseURL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("JWT_DEFAULT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.JWT.DefaultTTL = d
		}
	}
	if v := os.Getenv("SCORING_USER_ID"); v != "" {
		cfg.Scoring.UserID = v
	}
	if v := os.Getenv("SCORING_DEFAULT_IMAGE"); v != "" {
		cfg.Scoring.DefaultImage = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("DEBUG"); v != "" {
		cfg.Observability.Debug = v == "true"
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.ListenAddr == "" {
		cfg.HTTP.ListenAddr = ":8080"
	}
	if cfg.HTTP.APIBaseURL == "" {
		cfg.HTTP.APIBaseURL = "http://localhost:8080/api/v1"
	}
	if cfg.JWT.DefaultTTL == 0 {
		cfg.JWT.DefaultTTL = 24 * time.Hour
	}
	if cfg.Scoring.DefaultImage == "" {
		cfg.Scoring.DefaultImage = DefaultScoringImage
	}
	if cfg.Scoring.TokenTTL == 0 {
		cfg.Scoring.TokenTTL = DefaultScoringTokenTTL
	}
	if cfg.Observability.Environment == "" {
		cfg.Observability.Environment = "development"
	}
}
