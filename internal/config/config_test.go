package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/JMJuarez/modulo-pln-vf/pkg/provider/embeddings"
)

func TestLoadFromReader(t *testing.T) {
	t.Parallel()

	const doc = `
server:
  addr: ":9090"
log_level: debug
providers:
  embeddings:
    type: ollama
    model: nomic-embed-text
    base_url: http://localhost:11434
    dimensions: 768
inventory:
  path: /etc/frasero/groups.yaml
cache:
  dir: /var/lib/frasero
matcher:
  group_top_k: 2
  correction_threshold: 85
`
	cfg, err := LoadFromReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Providers.Embeddings.Type != "ollama" || cfg.Providers.Embeddings.Dimensions != 768 {
		t.Errorf("embeddings entry = %+v", cfg.Providers.Embeddings)
	}
	if cfg.Matcher.GroupTopK != 2 || cfg.Matcher.CorrectionThreshold != 85 {
		t.Errorf("matcher config = %+v", cfg.Matcher)
	}
	lvl, err := cfg.SlogLevel()
	if err != nil || lvl != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, %v", lvl, err)
	}
}

func TestLoadFromReaderDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromReader(strings.NewReader("{}\n"))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("default Addr = %q", cfg.Server.Addr)
	}
	if cfg.Providers.Embeddings.Type != "openai" {
		t.Errorf("default provider = %q", cfg.Providers.Embeddings.Type)
	}
	if cfg.Cache.Dir != "./cache" {
		t.Errorf("default cache dir = %q", cfg.Cache.Dir)
	}
}

func TestLoadFromReaderRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := LoadFromReader(strings.NewReader("serverr:\n  addr: \":1\"\n"))
	if err == nil {
		t.Fatal("expected error for unknown top-level field")
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		LogLevel: "loud",
		Matcher:  MatcherConfig{GroupTopK: -1, CorrectionThreshold: 150},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"server.addr", "log_level", "embeddings.type", "group_top_k", "correction_threshold", "cache.dir"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("validation error missing %q: %v", want, err)
		}
	}
}

type staticProvider struct{}

func (staticProvider) Embed(context.Context, string) ([]float32, error) { return []float32{1}, nil }
func (staticProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}
func (staticProvider) Dimensions() int { return 1 }
func (staticProvider) ModelID() string { return "static" }

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.RegisterEmbeddings("static", func(entry ProviderEntry) (embeddings.Provider, error) {
		return staticProvider{}, nil
	})

	p, err := reg.Embeddings(ProviderEntry{Type: "static"})
	if err != nil {
		t.Fatalf("Embeddings: %v", err)
	}
	if p.ModelID() != "static" {
		t.Errorf("ModelID = %q", p.ModelID())
	}

	_, err = reg.Embeddings(ProviderEntry{Type: "missing"})
	if !errors.Is(err, ErrProviderNotRegistered) {
		t.Errorf("err = %v, want ErrProviderNotRegistered", err)
	}
}
