// Package config loads ironbook's configuration (spec §6) from a YAML
// file with environment-variable overrides, following the same
// viper-based load/validate shape used across the example pack.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly onto the YAML
// file structure.
type Config struct {
	Inbound     InboundConfig     `mapstructure:"inbound"`
	Outbound    OutboundConfig    `mapstructure:"outbound"`
	Sink        SinkConfig        `mapstructure:"sink"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Symbols     SymbolsConfig     `mapstructure:"symbols"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// InboundConfig names the endpoint for the order stream (spec §6
// inbound.source).
type InboundConfig struct {
	Source string `mapstructure:"source"`
}

// OutboundConfig names the endpoint for trade publication (spec §6
// outbound.trades).
type OutboundConfig struct {
	Trades string `mapstructure:"trades"`
}

// SinkConfig names the durable and optional analytics sink endpoints
// (spec §6 sink.durable / sink.analytics).
type SinkConfig struct {
	Durable   string `mapstructure:"durable"`
	Analytics string `mapstructure:"analytics"`
}

// IdempotencyConfig configures the Guard (spec §6 idempotency.*).
type IdempotencyConfig struct {
	TTLSeconds int    `mapstructure:"ttl_seconds"`
	Backend    string `mapstructure:"backend"` // "in_memory" | "external_kv"
	Endpoint   string `mapstructure:"endpoint"`
	AuthToken  string `mapstructure:"auth_token"`
}

// TTL returns the configured idempotency TTL as a time.Duration,
// defaulting to 3600s (spec §6) when unset.
func (c IdempotencyConfig) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

// SymbolsConfig maps each traded symbol to a worker shard id (spec §6
// symbols.workers).
type SymbolsConfig struct {
	Workers map[string]int `mapstructure:"workers"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig controls the ambient Prometheus metrics endpoint. Not
// named by the original spec, but carried regardless (observability is
// ambient infrastructure, not a feature the spec scopes out).
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// Load reads config from a YAML file with IRONBOOK_-prefixed env var
// overrides, e.g. IRONBOOK_IDEMPOTENCY_AUTH_TOKEN.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("IRONBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("idempotency.ttl_seconds", 3600)
	v.SetDefault("idempotency.backend", "in_memory")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.listen", ":9090")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if token := os.Getenv("IRONBOOK_IDEMPOTENCY_AUTH_TOKEN"); token != "" {
		cfg.Idempotency.AuthToken = token
	}

	return &cfg, nil
}

// Validate checks the required fields and value ranges described in
// spec §6's enumerated configuration. A configuration error is exit
// code 1 (spec §6's process exit codes).
func (c *Config) Validate() error {
	if c.Inbound.Source == "" {
		return fmt.Errorf("inbound.source is required")
	}
	if c.Outbound.Trades == "" {
		return fmt.Errorf("outbound.trades is required")
	}
	if c.Sink.Durable == "" {
		return fmt.Errorf("sink.durable is required")
	}
	switch c.Idempotency.Backend {
	case "in_memory", "external_kv":
	default:
		return fmt.Errorf("idempotency.backend must be in_memory or external_kv, got %q", c.Idempotency.Backend)
	}
	if c.Idempotency.Backend == "external_kv" && c.Idempotency.Endpoint == "" {
		return fmt.Errorf("idempotency.endpoint is required when backend is external_kv")
	}
	if c.Idempotency.TTLSeconds < 0 {
		return fmt.Errorf("idempotency.ttl_seconds must be >= 0")
	}
	if len(c.Symbols.Workers) == 0 {
		return fmt.Errorf("symbols.workers must name at least one symbol")
	}
	for symbol, shard := range c.Symbols.Workers {
		if shard < 0 {
			return fmt.Errorf("symbols.workers[%s]: shard id must be >= 0", symbol)
		}
	}
	return nil
}

// ShardSymbols inverts Symbols.Workers into shard id -> symbols, the
// shape the dispatch pipeline's shard constructor wants.
func (c *Config) ShardSymbols() map[int][]string {
	out := make(map[int][]string)
	for symbol, shard := range c.Symbols.Workers {
		out[shard] = append(out[shard], symbol)
	}
	return out
}
