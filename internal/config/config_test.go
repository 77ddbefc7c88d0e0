package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return path
}

const minimalYAML = `
book:
  symbol: AAPL
  tick_size: 0.01
feed:
  stream_url: wss://feed.example/v1
batch:
  max_events: 256
  max_interval: 5ms
`

func TestLoadAndValidate(t *testing.T) {
	t.Parallel()
	path := writeTestConfig(t, minimalYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Book.Symbol != "AAPL" {
		t.Errorf("Book.Symbol = %q, want AAPL", cfg.Book.Symbol)
	}
	if cfg.Book.TickSize != 0.01 {
		t.Errorf("Book.TickSize = %v, want 0.01", cfg.Book.TickSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadEnvOverridesSymbol(t *testing.T) {
	path := writeTestConfig(t, minimalYAML)
	t.Setenv("LOB_SYMBOL", "MSFT")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Book.Symbol != "MSFT" {
		t.Errorf("Book.Symbol = %q, want MSFT (env override)", cfg.Book.Symbol)
	}
}

func TestValidateRejectsMissingSymbol(t *testing.T) {
	t.Parallel()
	cfg := &Config{
		Feed:  FeedConfig{StreamURL: "wss://x"},
		Batch: BatchConfig{MaxEvents: 1, MaxInterval: 1},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing book.symbol")
	}
}

func TestValidateRejectsNonPositiveTickSize(t *testing.T) {
	t.Parallel()
	cfg := &Config{
		Book:  BookConfig{Symbol: "AAPL", TickSize: 0},
		Feed:  FeedConfig{StreamURL: "wss://x"},
		Batch: BatchConfig{MaxEvents: 1, MaxInterval: 1},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-positive tick size")
	}
}
