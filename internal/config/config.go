package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"codeintel/internal/complexity"
	"codeintel/internal/deadcode"
	"codeintel/internal/embedding"
	"codeintel/internal/engine"
	"codeintel/internal/report"
	"codeintel/internal/similarity"
	"codeintel/internal/storage"
	"codeintel/internal/syntax"
)

// CurrentVersion is the config schema version.
const CurrentVersion = 1

// FileName is the base name of the project config file. The extension
// selects the format: .yaml, .yml, .json or .toml.
const FileName = ".codeintel"

// Config represents the complete codeintel configuration
type Config struct {
	Version int `json:"version" mapstructure:"version" toml:"version" yaml:"version"`

	Analysis   AnalysisConfig   `json:"analysis" mapstructure:"analysis" toml:"analysis" yaml:"analysis"`
	Complexity ComplexityConfig `json:"complexity" mapstructure:"complexity" toml:"complexity" yaml:"complexity"`
	Orphans    OrphansConfig    `json:"orphans" mapstructure:"orphans" toml:"orphans" yaml:"orphans"`
	Similarity SimilarityConfig `json:"similarity" mapstructure:"similarity" toml:"similarity" yaml:"similarity"`
	Embedding  EmbeddingConfig  `json:"embedding" mapstructure:"embedding" toml:"embedding" yaml:"embedding"`
	Cache      CacheConfig      `json:"cache" mapstructure:"cache" toml:"cache" yaml:"cache"`
	Logging    LoggingConfig    `json:"logging" mapstructure:"logging" toml:"logging" yaml:"logging"`
}

// AnalysisConfig controls file discovery and the worker pool
type AnalysisConfig struct {
	Workers          int      `json:"workers" mapstructure:"workers" toml:"workers" yaml:"workers"`
	ParseTimeoutMs   int      `json:"parseTimeoutMs" mapstructure:"parseTimeoutMs" toml:"parseTimeoutMs" yaml:"parseTimeoutMs"`
	Languages        []string `json:"languages" mapstructure:"languages" toml:"languages" yaml:"languages"`
	Exclude          []string `json:"exclude" mapstructure:"exclude" toml:"exclude" yaml:"exclude"`
	MaxFileSizeBytes int64    `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes" toml:"maxFileSizeBytes" yaml:"maxFileSizeBytes"`
	IncludeTests     bool     `json:"includeTests" mapstructure:"includeTests" toml:"includeTests" yaml:"includeTests"`
}

// ComplexityConfig contains complexity thresholds and report limits
type ComplexityConfig struct {
	Threshold                int     `json:"threshold" mapstructure:"threshold" toml:"threshold" yaml:"threshold"`
	MaintainabilityThreshold float64 `json:"maintainabilityThreshold" mapstructure:"maintainabilityThreshold" toml:"maintainabilityThreshold" yaml:"maintainabilityThreshold"`
	TopN                     int     `json:"topN" mapstructure:"topN" toml:"topN" yaml:"topN"`
	Hotspots                 int     `json:"hotspots" mapstructure:"hotspots" toml:"hotspots" yaml:"hotspots"`
}

// OrphansConfig contains orphan detector patterns
type OrphansConfig struct {
	EntryPointPatterns  []string `json:"entryPointPatterns" mapstructure:"entryPointPatterns" toml:"entryPointPatterns" yaml:"entryPointPatterns"`
	ExemptionPatterns   []string `json:"exemptionPatterns" mapstructure:"exemptionPatterns" toml:"exemptionPatterns" yaml:"exemptionPatterns"`
	DecoratorPatterns   []string `json:"decoratorPatterns" mapstructure:"decoratorPatterns" toml:"decoratorPatterns" yaml:"decoratorPatterns"`
	PublicAPIExempt     bool     `json:"publicApiExempt" mapstructure:"publicApiExempt" toml:"publicApiExempt" yaml:"publicApiExempt"`
	TopLevelEntryPoints bool     `json:"topLevelEntryPoints" mapstructure:"topLevelEntryPoints" toml:"topLevelEntryPoints" yaml:"topLevelEntryPoints"`
}

// SimilarityConfig contains pair search and clustering settings
type SimilarityConfig struct {
	Threshold                 float64 `json:"threshold" mapstructure:"threshold" toml:"threshold" yaml:"threshold"`
	MaxClusters               int     `json:"maxClusters" mapstructure:"maxClusters" toml:"maxClusters" yaml:"maxClusters"`
	ANNThreshold              int     `json:"annThreshold" mapstructure:"annThreshold" toml:"annThreshold" yaml:"annThreshold"`
	ClusterHeuristicThreshold int     `json:"clusterHeuristicThreshold" mapstructure:"clusterHeuristicThreshold" toml:"clusterHeuristicThreshold" yaml:"clusterHeuristicThreshold"`
	Seed                      int64   `json:"seed" mapstructure:"seed" toml:"seed" yaml:"seed"`
	MinTokens                 int     `json:"minTokens" mapstructure:"minTokens" toml:"minTokens" yaml:"minTokens"`
}

// EmbeddingConfig selects the embedding provider
type EmbeddingConfig struct {
	Provider    string `json:"provider" mapstructure:"provider" toml:"provider" yaml:"provider"`
	Model       string `json:"model" mapstructure:"model" toml:"model" yaml:"model"`
	Dimension   int    `json:"dimension" mapstructure:"dimension" toml:"dimension" yaml:"dimension"`
	BaseURL     string `json:"baseUrl" mapstructure:"baseUrl" toml:"baseUrl" yaml:"baseUrl"`
	APIKey      string `json:"-" mapstructure:"apiKey" toml:"-" yaml:"-"`
	BatchSize   int    `json:"batchSize" mapstructure:"batchSize" toml:"batchSize" yaml:"batchSize"`
	MaxInFlight int    `json:"maxInFlight" mapstructure:"maxInFlight" toml:"maxInFlight" yaml:"maxInFlight"`
	TimeoutMs   int    `json:"timeoutMs" mapstructure:"timeoutMs" toml:"timeoutMs" yaml:"timeoutMs"`
}

// CacheConfig contains the persistent embedding cache settings
type CacheConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled" toml:"enabled" yaml:"enabled"`
	Path    string `json:"path" mapstructure:"path" toml:"path" yaml:"path"`
	TTLDays int    `json:"ttlDays" mapstructure:"ttlDays" toml:"ttlDays" yaml:"ttlDays"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format" toml:"format" yaml:"format"`
	Level  string `json:"level" mapstructure:"level" toml:"level" yaml:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	dc := deadcode.DefaultOptions()
	return &Config{
		Version: CurrentVersion,
		Analysis: AnalysisConfig{
			ParseTimeoutMs:   int(syntax.DefaultParseTimeout / time.Millisecond),
			Languages:        []string{},
			Exclude:          []string{"**/node_modules/**", "**/vendor/**", "**/.venv/**", "**/dist/**", "**/build/**"},
			MaxFileSizeBytes: 1000000,
			IncludeTests:     true,
		},
		Complexity: ComplexityConfig{
			Threshold:                complexity.DefaultComplexityThreshold,
			MaintainabilityThreshold: complexity.DefaultMaintainabilityThreshold,
			TopN:                     report.DefaultTopN,
			Hotspots:                 report.DefaultHotspots,
		},
		Orphans: OrphansConfig{
			EntryPointPatterns: dc.EntryPointPatterns,
			ExemptionPatterns:  dc.ExemptionPatterns,
			DecoratorPatterns:  dc.DecoratorPatterns,
			PublicAPIExempt:    dc.PublicAPIExempt,
		},
		Similarity: SimilarityConfig{
			Threshold:                 similarity.DefaultThreshold,
			MaxClusters:               similarity.DefaultMaxClusters,
			ANNThreshold:              similarity.DefaultANNThreshold,
			ClusterHeuristicThreshold: similarity.DefaultClusterHeuristicThreshold,
			Seed:                      similarity.DefaultSeed,
			MinTokens:                 engine.DefaultMinTokens,
		},
		Embedding: EmbeddingConfig{
			Provider:    embedding.ProviderLocal,
			BatchSize:   embedding.DefaultBatchSize,
			MaxInFlight: embedding.DefaultMaxInFlight,
			TimeoutMs:   int(embedding.DefaultTimeout / time.Millisecond),
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    storage.DefaultPath,
			TTLDays: 30,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadResult contains the loaded config and metadata about how it was loaded
type LoadResult struct {
	Config       *Config
	ConfigPath   string
	UsedDefaults bool
	EnvOverrides []EnvOverride
}

// LoadConfig loads configuration for a project root.
func LoadConfig(root string) (*Config, error) {
	res, err := LoadConfigWithDetails(root, "")
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadConfigWithDetails loads configuration from an explicit path, from
// CODEINTEL_CONFIG_PATH, or from .codeintel.{yaml,json,toml} in root, in
// that order, then applies environment overrides. A .env file in root is
// loaded first; variables already set in the environment win.
func LoadConfigWithDetails(root, explicitPath string) (*LoadResult, error) {
	_ = godotenv.Load(filepath.Join(root, ".env"))

	if explicitPath == "" {
		explicitPath = os.Getenv(EnvConfigPath)
	}

	v := viper.New()
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(root)
	}

	cfg := DefaultConfig()
	res := &LoadResult{Config: cfg}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || explicitPath != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		res.UsedDefaults = true
	} else {
		res.ConfigPath = v.ConfigFileUsed()
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", res.ConfigPath, err)
		}
	}

	res.EnvOverrides = applyEnvOverrides(cfg)
	return res, nil
}

// Save writes the configuration to path. The format follows the file
// extension; anything other than .json, .yaml or .yml is written as TOML.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = toml.Marshal(c)
		if err == nil {
			data = append([]byte("# codeintel configuration\n\n"), data...)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

var logFormats = map[string]bool{"human": true, "json": true}

var providers = map[string]bool{
	embedding.ProviderLocal:  true,
	embedding.ProviderOllama: true,
	embedding.ProviderGemini: true,
	embedding.ProviderNone:   true,
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}
	if c.Analysis.Workers < 0 {
		return &ConfigError{Field: "analysis.workers", Message: "must not be negative"}
	}
	if c.Analysis.ParseTimeoutMs < 0 {
		return &ConfigError{Field: "analysis.parseTimeoutMs", Message: "must not be negative"}
	}
	for _, l := range c.Analysis.Languages {
		if _, err := syntax.ParseLanguage(l); err != nil {
			return &ConfigError{Field: "analysis.languages", Message: err.Error()}
		}
	}
	for _, p := range c.Analysis.Exclude {
		if !doublestar.ValidatePattern(p) {
			return &ConfigError{Field: "analysis.exclude", Message: fmt.Sprintf("invalid pattern %q", p)}
		}
	}
	if c.Complexity.Threshold < 1 {
		return &ConfigError{Field: "complexity.threshold", Message: "must be at least 1"}
	}
	if mi := c.Complexity.MaintainabilityThreshold; mi < 0 || mi > 100 {
		return &ConfigError{Field: "complexity.maintainabilityThreshold", Message: "must be between 0 and 100"}
	}
	if s := c.Similarity.Threshold; s < -1 || s > 1 {
		return &ConfigError{Field: "similarity.threshold", Message: "must be between -1 and 1"}
	}
	if c.Similarity.MaxClusters < 1 {
		return &ConfigError{Field: "similarity.maxClusters", Message: "must be at least 1"}
	}
	if !providers[strings.ToLower(c.Embedding.Provider)] {
		return &ConfigError{Field: "embedding.provider", Message: fmt.Sprintf("unknown provider %q", c.Embedding.Provider)}
	}
	if strings.EqualFold(c.Embedding.Provider, embedding.ProviderGemini) && c.Embedding.APIKey == "" {
		return &ConfigError{Field: "embedding.apiKey", Message: "gemini requires " + EnvAPIKey + " or " + EnvGeminiAPIKey}
	}
	if c.Cache.TTLDays < 0 {
		return &ConfigError{Field: "cache.ttlDays", Message: "must not be negative"}
	}
	if !logFormats[c.Logging.Format] {
		return &ConfigError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}
	return nil
}

// EngineOptions maps the configuration onto engine options.
func (c *Config) EngineOptions(version string) engine.Options {
	return engine.Options{
		Workers:                   c.Analysis.Workers,
		ParseTimeout:              time.Duration(c.Analysis.ParseTimeoutMs) * time.Millisecond,
		ComplexityThreshold:       c.Complexity.Threshold,
		MaintainabilityThreshold:  c.Complexity.MaintainabilityThreshold,
		EntryPointPatterns:        c.Orphans.EntryPointPatterns,
		ExemptionPatterns:         c.Orphans.ExemptionPatterns,
		DecoratorPatterns:         c.Orphans.DecoratorPatterns,
		PublicAPIExempt:           c.Orphans.PublicAPIExempt,
		TopLevelEntryPoints:       c.Orphans.TopLevelEntryPoints,
		SimilarityThreshold:       c.Similarity.Threshold,
		MaxClusters:               c.Similarity.MaxClusters,
		ANNThreshold:              c.Similarity.ANNThreshold,
		ClusterHeuristicThreshold: c.Similarity.ClusterHeuristicThreshold,
		Seed:                      c.Similarity.Seed,
		MinTokens:                 c.Similarity.MinTokens,
		BatchSize:                 c.Embedding.BatchSize,
		MaxInFlight:               c.Embedding.MaxInFlight,
		EmbedTimeout:              time.Duration(c.Embedding.TimeoutMs) * time.Millisecond,
		TopN:                      c.Complexity.TopN,
		Hotspots:                  c.Complexity.Hotspots,
		Version:                   version,
	}
}

// EmbeddingOptions maps the configuration onto provider options.
func (c *Config) EmbeddingOptions() embedding.Options {
	return embedding.Options{
		Provider:  c.Embedding.Provider,
		Model:     c.Embedding.Model,
		Dimension: c.Embedding.Dimension,
		BaseURL:   c.Embedding.BaseURL,
		APIKey:    c.Embedding.APIKey,
	}
}

// CacheTTL returns the cache retention as a duration; zero keeps entries
// forever.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLDays) * 24 * time.Hour
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
