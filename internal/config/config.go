package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the ragline pipeline configuration.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Store    StoreConfig    `yaml:"store"`
	Corpus   CorpusConfig   `yaml:"corpus"`
	Cache    CacheConfig    `yaml:"cache"`
	Debug    DebugConfig    `yaml:"debug"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// ProviderConfig holds embedding/generation provider settings.
type ProviderConfig struct {
	Kind          string `yaml:"kind"` // ollama, openai (default: ollama)
	BaseURL       string `yaml:"base_url"`
	APIKey        string `yaml:"api_key"` // openai only
	EmbedModel    string `yaml:"embed_model"`
	GenerateModel string `yaml:"generate_model"`
	Stream        bool   `yaml:"stream"`
	TimeoutSec    int    `yaml:"timeout_sec"`
}

// StoreConfig holds vector store settings.
type StoreConfig struct {
	BaseURL    string `yaml:"base_url"`
	Tenant     string `yaml:"tenant"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
	TopK       int    `yaml:"top_k"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// CorpusConfig holds document source settings.
type CorpusConfig struct {
	Dir string `yaml:"dir"`
}

// CacheConfig holds the optional Redis embedding cache settings.
// An empty addrs list disables the cache.
type CacheConfig struct {
	Addrs     []string `yaml:"addrs"`
	Password  string   `yaml:"password"`
	KeyPrefix string   `yaml:"key_prefix"`
}

// DebugConfig holds the optional diagnostics HTTP server settings.
// Port 0 disables the server.
type DebugConfig struct {
	Port int `yaml:"port"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Provider.Kind == "" {
		c.Provider.Kind = "ollama"
	}
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "http://localhost:11434"
	}
	if c.Provider.EmbedModel == "" {
		c.Provider.EmbedModel = "all-minilm:l6-v2"
	}
	if c.Provider.GenerateModel == "" {
		c.Provider.GenerateModel = "llama3"
	}
	if c.Provider.TimeoutSec <= 0 {
		c.Provider.TimeoutSec = 30
	}
	if c.Store.BaseURL == "" {
		c.Store.BaseURL = "http://localhost:8000"
	}
	if c.Store.Tenant == "" {
		c.Store.Tenant = "default_tenant"
	}
	if c.Store.Database == "" {
		c.Store.Database = "default_database"
	}
	if c.Store.Collection == "" {
		c.Store.Collection = "rag_collection"
	}
	if c.Store.TopK <= 0 {
		c.Store.TopK = 2
	}
	if c.Store.TimeoutSec <= 0 {
		c.Store.TimeoutSec = 30
	}
	if c.Corpus.Dir == "" {
		c.Corpus.Dir = "documents"
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "ragline:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Provider.Kind {
	case "ollama":
	case "openai":
		if c.Provider.APIKey == "" {
			return fmt.Errorf("provider.api_key is required for the openai provider")
		}
	default:
		return fmt.Errorf("provider.kind must be \"ollama\" or \"openai\", got %q", c.Provider.Kind)
	}
	if c.Debug.Port < 0 || c.Debug.Port > 65535 {
		return fmt.Errorf("debug.port must be between 0 and 65535, got %d", c.Debug.Port)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
