package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tiacalc/tiacalc/pkg/logx"
	"github.com/tiacalc/tiacalc/pkg/scoring"
)

// EnvPrefix prefixes every environment override, e.g. TIACALC_SERVER_HTTP_PORT.
const EnvPrefix = "TIACALC_"

// Default values for the server configuration.
const (
	DefaultHTTPPort     = 8080
	DefaultMetricsPort  = 9090
	DefaultWorksheetTTL = 30 * time.Minute
	DefaultLogLevel     = "info"
	DefaultLogFormat    = logx.FormatJSON
)

// Config is the full configuration tree.
type Config struct {
	Server ServerConfig `yaml:"server" envPrefix:"SERVER_"`
	Log    LogConfig    `yaml:"log"    envPrefix:"LOG_"`
	Policy PolicyConfig `yaml:"policy" envPrefix:"POLICY_"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API and WebSocket hub listen on.
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`

	// MetricsPort is the port /metrics is served on. 0 disables the listener.
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`

	// WorksheetTTL is how long an untouched worksheet session survives.
	WorksheetTTL time.Duration `yaml:"worksheet_ttl" env:"WORKSHEET_TTL"`

	CORS CORSConfig `yaml:"cors" envPrefix:"CORS_"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
}

// LogConfig selects the process logger.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level" env:"LEVEL"`

	// Format is one of: json | text.
	Format string `yaml:"format" env:"FORMAT"`
}

// PolicyConfig mirrors scoring.Policy in file form. Tiers, when present,
// replace the default table wholesale.
type PolicyConfig struct {
	RatingFloor  float64      `yaml:"rating_floor"  env:"RATING_FLOOR"`
	GrowthFloor  float64      `yaml:"growth_floor"  env:"GROWTH_FLOOR"`
	RatingWeight float64      `yaml:"rating_weight" env:"RATING_WEIGHT"`
	GrowthWeight float64      `yaml:"growth_weight" env:"GROWTH_WEIGHT"`
	Tiers        []TierConfig `yaml:"tiers"`
}

// TierConfig is one designation row.
type TierConfig struct {
	Designation string  `yaml:"designation"`
	MinPoints   float64 `yaml:"min_points"`
	MinRating   float64 `yaml:"min_rating"`
	MinGrowth   float64 `yaml:"min_growth"`
}

// Policy converts the section into a scoring policy.
func (p PolicyConfig) Policy() scoring.Policy {
	tiers := make([]scoring.Tier, len(p.Tiers))
	for i, t := range p.Tiers {
		tiers[i] = scoring.Tier{
			Designation: scoring.Designation(t.Designation),
			MinPoints:   t.MinPoints,
			MinRating:   t.MinRating,
			MinGrowth:   t.MinGrowth,
		}
	}
	return scoring.Policy{
		RatingFloor:  p.RatingFloor,
		GrowthFloor:  p.GrowthFloor,
		RatingWeight: p.RatingWeight,
		GrowthWeight: p.GrowthWeight,
		Tiers:        tiers,
	}
}

// Load builds the configuration. An empty path skips the file and uses
// defaults plus the environment.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	_ = godotenv.Load()

	// Tiers have no environment form; keep them out of the parser's reach.
	tiers := cfg.Policy.Tiers
	cfg.Policy.Tiers = nil
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}
	cfg.Policy.Tiers = tiers

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	p := scoring.DefaultPolicy()
	tiers := make([]TierConfig, len(p.Tiers))
	for i, t := range p.Tiers {
		tiers[i] = TierConfig{
			Designation: string(t.Designation),
			MinPoints:   t.MinPoints,
			MinRating:   t.MinRating,
			MinGrowth:   t.MinGrowth,
		}
	}

	return &Config{
		Server: ServerConfig{
			HTTPPort:     DefaultHTTPPort,
			MetricsPort:  DefaultMetricsPort,
			WorksheetTTL: DefaultWorksheetTTL,
			CORS:         CORSConfig{AllowedOrigins: []string{"*"}},
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Policy: PolicyConfig{
			RatingFloor:  p.RatingFloor,
			GrowthFloor:  p.GrowthFloor,
			RatingWeight: p.RatingWeight,
			GrowthWeight: p.GrowthWeight,
			Tiers:        tiers,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.MetricsPort < 0 || cfg.Server.MetricsPort > 65535 {
		return fmt.Errorf("server.metrics_port %d is out of range [0, 65535]", cfg.Server.MetricsPort)
	}
	if cfg.Server.MetricsPort != 0 && cfg.Server.MetricsPort == cfg.Server.HTTPPort {
		return fmt.Errorf("server.metrics_port must differ from server.http_port")
	}
	if cfg.Server.WorksheetTTL < 0 {
		return fmt.Errorf("server.worksheet_ttl must not be negative")
	}
	if _, err := logx.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch cfg.Log.Format {
	case logx.FormatJSON, logx.FormatText:
	default:
		return fmt.Errorf("log.format %q unknown: want json|text", cfg.Log.Format)
	}
	if err := cfg.Policy.Policy().Validate(); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	return nil
}
