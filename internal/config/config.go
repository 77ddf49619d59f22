// Package config loads engine configuration from file and environment and
// initializes the global logger.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/consensus-engine/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Resolve   ResolveConfig   `yaml:"resolve" mapstructure:"resolve"`
	Sources   SourcesConfig   `yaml:"sources" mapstructure:"sources"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ResolveConfig holds the orchestration knobs.
type ResolveConfig struct {
	FetchTimeoutSecs int `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	CacheTTLMinutes  int `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
	MemoryTTLHours   int `yaml:"memory_ttl_hours" mapstructure:"memory_ttl_hours"`
}

// FetchTimeout returns the per-source fetch timeout.
func (r ResolveConfig) FetchTimeout() time.Duration {
	return time.Duration(r.FetchTimeoutSecs) * time.Second
}

// CacheTTL returns the result-cache TTL.
func (r ResolveConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLMinutes) * time.Minute
}

// MemoryTTL returns how long a persisted snapshot stays usable as the
// memory pseudo-source.
func (r ResolveConfig) MemoryTTL() time.Duration {
	return time.Duration(r.MemoryTTLHours) * time.Hour
}

// SourcesConfig configures the live acquisition path.
type SourcesConfig struct {
	// Endpoints maps provider category -> HTTP endpoint config.
	Endpoints map[string]EndpointConfig `yaml:"endpoints" mapstructure:"endpoints"`
	// FixtureDir, when set, registers static fixture fetchers instead of
	// HTTP ones (offline mode).
	FixtureDir string `yaml:"fixture_dir" mapstructure:"fixture_dir"`
	// TrustWeightsFile optionally overrides the built-in reliability table.
	TrustWeightsFile string `yaml:"trust_weights_file" mapstructure:"trust_weights_file"`
}

// EndpointConfig describes one provider endpoint.
type EndpointConfig struct {
	URL               string  `yaml:"url" mapstructure:"url"`
	APIKey            string  `yaml:"api_key" mapstructure:"api_key"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// AnthropicConfig holds the analysis-step settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml and CONSENSUS_* environment
// variables, with defaults for every knob.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CONSENSUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "consensus.db")
	v.SetDefault("resolve.fetch_timeout_secs", 8)
	v.SetDefault("resolve.cache_ttl_minutes", 15)
	v.SetDefault("resolve.memory_ttl_hours", 24)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

// LoadTrustTable returns the built-in reliability table, with per-category
// overrides applied from the configured YAML file when present.
func LoadTrustTable(path string) (model.TrustTable, error) {
	table := model.DefaultTrustTable()
	if path == "" {
		return table, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read trust weights %s", path)
	}
	var overrides map[string]float64
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, eris.Wrap(err, "config: parse trust weights")
	}
	for sourceID, weight := range overrides {
		table[sourceID] = weight
	}
	return table, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
