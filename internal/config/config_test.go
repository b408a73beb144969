package config

import (
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Provider.Kind != "ollama" {
		t.Errorf("provider.kind = %q, want ollama", cfg.Provider.Kind)
	}
	if cfg.Provider.BaseURL != "http://localhost:11434" {
		t.Errorf("provider.base_url = %q", cfg.Provider.BaseURL)
	}
	if cfg.Provider.TimeoutSec != 30 {
		t.Errorf("provider.timeout_sec = %d, want 30", cfg.Provider.TimeoutSec)
	}
	if cfg.Store.BaseURL != "http://localhost:8000" {
		t.Errorf("store.base_url = %q", cfg.Store.BaseURL)
	}
	if cfg.Store.Tenant != "default_tenant" || cfg.Store.Database != "default_database" {
		t.Errorf("store scope = %q/%q", cfg.Store.Tenant, cfg.Store.Database)
	}
	if cfg.Store.Collection != "rag_collection" {
		t.Errorf("store.collection = %q", cfg.Store.Collection)
	}
	if cfg.Store.TopK != 2 {
		t.Errorf("store.top_k = %d, want 2", cfg.Store.TopK)
	}
	if cfg.Cache.KeyPrefix != "ragline:" {
		t.Errorf("cache.key_prefix = %q", cfg.Cache.KeyPrefix)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(*Config) {}, false},
		{"unknown provider", func(c *Config) { c.Provider.Kind = "cohere" }, true},
		{"openai without key", func(c *Config) { c.Provider.Kind = "openai" }, true},
		{"openai with key", func(c *Config) {
			c.Provider.Kind = "openai"
			c.Provider.APIKey = "sk-test"
		}, false},
		{"bad debug port", func(c *Config) { c.Debug.Port = 70000 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			cfg.ApplyDefaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("RAGLINE_TEST_URL", "http://example:9000")

	in := []byte("base_url: ${RAGLINE_TEST_URL}\ncollection: ${RAGLINE_TEST_MISSING:-fallback}\n")
	out := string(expandEnvVars(in))

	want := "base_url: http://example:9000\ncollection: fallback\n"
	if out != want {
		t.Errorf("expandEnvVars = %q, want %q", out, want)
	}
}
