package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
inbound:
  source: "tcp://0.0.0.0:7000"
outbound:
  trades: "tcp://0.0.0.0:7001"
sink:
  durable: "redis://localhost:6379/0"
idempotency:
  backend: "in_memory"
symbols:
  workers:
    BTC-USD: 0
    ETH-USD: 1
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp://0.0.0.0:7000", cfg.Inbound.Source)
	assert.Equal(t, 3600, cfg.Idempotency.TTLSeconds)
	assert.Equal(t, "in_memory", cfg.Idempotency.Backend)
	require.NoError(t, cfg.Validate())
}

func TestValidate_MissingInboundSource(t *testing.T) {
	cfg := &Config{
		Outbound:    OutboundConfig{Trades: "x"},
		Sink:        SinkConfig{Durable: "x"},
		Idempotency: IdempotencyConfig{Backend: "in_memory"},
		Symbols:     SymbolsConfig{Workers: map[string]int{"BTC-USD": 0}},
	}
	err := cfg.Validate()
	assert.ErrorContains(t, err, "inbound.source")
}

func TestValidate_ExternalKVRequiresEndpoint(t *testing.T) {
	cfg := &Config{
		Inbound:     InboundConfig{Source: "x"},
		Outbound:    OutboundConfig{Trades: "x"},
		Sink:        SinkConfig{Durable: "x"},
		Idempotency: IdempotencyConfig{Backend: "external_kv"},
		Symbols:     SymbolsConfig{Workers: map[string]int{"BTC-USD": 0}},
	}
	err := cfg.Validate()
	assert.ErrorContains(t, err, "idempotency.endpoint")
}

func TestValidate_NoSymbolsIsInvalid(t *testing.T) {
	cfg := &Config{
		Inbound:     InboundConfig{Source: "x"},
		Outbound:    OutboundConfig{Trades: "x"},
		Sink:        SinkConfig{Durable: "x"},
		Idempotency: IdempotencyConfig{Backend: "in_memory"},
	}
	err := cfg.Validate()
	assert.ErrorContains(t, err, "symbols.workers")
}

func TestShardSymbols_GroupsBySharID(t *testing.T) {
	cfg := &Config{Symbols: SymbolsConfig{Workers: map[string]int{
		"BTC-USD": 0,
		"ETH-USD": 0,
		"SOL-USD": 1,
	}}}
	shards := cfg.ShardSymbols()
	assert.ElementsMatch(t, []string{"BTC-USD", "ETH-USD"}, shards[0])
	assert.ElementsMatch(t, []string{"SOL-USD"}, shards[1])
}

func TestIdempotencyConfig_TTLDefault(t *testing.T) {
	c := IdempotencyConfig{}
	assert.Equal(t, "1h0m0s", c.TTL().String())
}
