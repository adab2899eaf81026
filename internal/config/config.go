package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the furnimatch API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	Recommend RecommendConfig `yaml:"recommend"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CatalogConfig holds catalog source settings.
type CatalogConfig struct {
	CSVPath string `yaml:"csv_path"`
}

// CacheConfig holds the optional Redis embedding cache settings.
// Empty addrs disables caching entirely.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Providers   map[string]ProviderConfig   `yaml:"providers"`
	Vectorizers map[string]VectorizerConfig `yaml:"vectorizers"`
}

// ProviderConfig holds embedding provider settings.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// VectorizerConfig holds vectorizer settings.
type VectorizerConfig struct {
	Provider            string `yaml:"provider"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
}

// BlendWeights holds the multi-factor score blend. Must sum to 1.
//
// Two historical defaults exist: 0.75/0.15/0.05/0.05 and 0.70/0.15/0.08/0.07.
// The first is applied when no weights are configured; the alternate can be
// set explicitly.
type BlendWeights struct {
	Text     float64 `yaml:"text"`
	Category float64 `yaml:"category"`
	Material float64 `yaml:"material"`
	Color    float64 `yaml:"color"`
}

// Sum returns the total of all four weights.
func (w BlendWeights) Sum() float64 {
	return w.Text + w.Category + w.Material + w.Color
}

// IsZero reports whether no weights were configured.
func (w BlendWeights) IsZero() bool { return w.Sum() == 0 }

// RecommendConfig holds the recommendation engine tunables.
//
// min_similarity also has two historical defaults (0.45 and 0.3); 0.45 is
// applied when the value is unset.
type RecommendConfig struct {
	MinSimilarity *float64     `yaml:"min_similarity"`
	Weights       BlendWeights `yaml:"weights"`
	DefaultTopK   int          `yaml:"default_top_k"`
	KeywordsFile  string       `yaml:"keywords_file"`
}

// Default recommendation tunables.
const (
	DefaultMinSimilarity = 0.45
	DefaultTopK          = 5
)

// DefaultBlendWeights is the reference weight split (text-dominant).
var DefaultBlendWeights = BlendWeights{Text: 0.75, Category: 0.15, Material: 0.05, Color: 0.05}

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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Catalog.CSVPath == "" {
		c.Catalog.CSVPath = "data/furniture_dataset.csv"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Recommend.MinSimilarity == nil {
		v := DefaultMinSimilarity
		c.Recommend.MinSimilarity = &v
	}
	if c.Recommend.Weights.IsZero() {
		c.Recommend.Weights = DefaultBlendWeights
	}
	if c.Recommend.DefaultTopK <= 0 {
		c.Recommend.DefaultTopK = DefaultTopK
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if ms := *c.Recommend.MinSimilarity; ms < 0 || ms > 1 {
		return fmt.Errorf("recommend.min_similarity must be between 0 and 1, got %v", ms)
	}
	if sum := c.Recommend.Weights.Sum(); math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("recommend.weights must sum to 1, got %v", sum)
	}
	for name, w := range map[string]float64{
		"text":     c.Recommend.Weights.Text,
		"category": c.Recommend.Weights.Category,
		"material": c.Recommend.Weights.Material,
		"color":    c.Recommend.Weights.Color,
	} {
		if w < 0 {
			return fmt.Errorf("recommend.weights.%s must be non-negative, got %v", name, w)
		}
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
