package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Environment variables read outside the override table.
const (
	EnvConfigPath   = "CODEINTEL_CONFIG_PATH"
	EnvAPIKey       = "CODEINTEL_API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
)

// EnvOverride records one configuration value taken from the environment.
type EnvOverride struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Value string `json:"value"`
}

type envBinding struct {
	path string
	set  func(c *Config, v string) error
}

var envBindings = map[string]envBinding{
	"CODEINTEL_LOG_LEVEL":  {"logging.level", func(c *Config, v string) error { c.Logging.Level = v; return nil }},
	"CODEINTEL_LOG_FORMAT": {"logging.format", func(c *Config, v string) error { c.Logging.Format = v; return nil }},

	"CODEINTEL_WORKERS":          {"analysis.workers", intSetter(func(c *Config) *int { return &c.Analysis.Workers })},
	"CODEINTEL_PARSE_TIMEOUT_MS": {"analysis.parseTimeoutMs", intSetter(func(c *Config) *int { return &c.Analysis.ParseTimeoutMs })},
	"CODEINTEL_LANGUAGES": {"analysis.languages", func(c *Config, v string) error {
		c.Analysis.Languages = splitList(v)
		return nil
	}},

	"CODEINTEL_COMPLEXITY_THRESHOLD":      {"complexity.threshold", intSetter(func(c *Config) *int { return &c.Complexity.Threshold })},
	"CODEINTEL_MAINTAINABILITY_THRESHOLD": {"complexity.maintainabilityThreshold", floatSetter(func(c *Config) *float64 { return &c.Complexity.MaintainabilityThreshold })},

	"CODEINTEL_PUBLIC_API_EXEMPT": {"orphans.publicApiExempt", boolSetter(func(c *Config) *bool { return &c.Orphans.PublicAPIExempt })},
	"CODEINTEL_ENTRY_POINTS": {"orphans.entryPointPatterns", func(c *Config, v string) error {
		c.Orphans.EntryPointPatterns = splitList(v)
		return nil
	}},

	"CODEINTEL_SIMILARITY_THRESHOLD": {"similarity.threshold", floatSetter(func(c *Config) *float64 { return &c.Similarity.Threshold })},
	"CODEINTEL_MAX_CLUSTERS":         {"similarity.maxClusters", intSetter(func(c *Config) *int { return &c.Similarity.MaxClusters })},
	"CODEINTEL_MIN_TOKENS":           {"similarity.minTokens", intSetter(func(c *Config) *int { return &c.Similarity.MinTokens })},

	"CODEINTEL_PROVIDER":         {"embedding.provider", func(c *Config, v string) error { c.Embedding.Provider = strings.ToLower(v); return nil }},
	"CODEINTEL_MODEL":            {"embedding.model", func(c *Config, v string) error { c.Embedding.Model = v; return nil }},
	"CODEINTEL_OLLAMA_URL":       {"embedding.baseUrl", func(c *Config, v string) error { c.Embedding.BaseURL = v; return nil }},
	"CODEINTEL_BATCH_SIZE":       {"embedding.batchSize", intSetter(func(c *Config) *int { return &c.Embedding.BatchSize })},
	"CODEINTEL_EMBED_TIMEOUT_MS": {"embedding.timeoutMs", intSetter(func(c *Config) *int { return &c.Embedding.TimeoutMs })},
	EnvAPIKey:                    {"embedding.apiKey", func(c *Config, v string) error { c.Embedding.APIKey = v; return nil }},

	"CODEINTEL_CACHE_ENABLED": {"cache.enabled", boolSetter(func(c *Config) *bool { return &c.Cache.Enabled })},
	"CODEINTEL_CACHE_PATH":    {"cache.path", func(c *Config, v string) error { c.Cache.Path = v; return nil }},
}

func intSetter(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func floatSetter(field func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*field(c) = f
		return nil
	}
}

func boolSetter(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// applyEnvOverrides applies every set CODEINTEL_* variable to cfg.
// Values that do not parse are ignored. GEMINI_API_KEY fills the API key
// when CODEINTEL_API_KEY is unset.
func applyEnvOverrides(cfg *Config) []EnvOverride {
	var overrides []EnvOverride
	for _, name := range GetSupportedEnvVars() {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			continue
		}
		b := envBindings[name]
		if err := b.set(cfg, v); err != nil {
			continue
		}
		overrides = append(overrides, EnvOverride{Name: name, Path: b.path, Value: redact(name, v)})
	}
	if cfg.Embedding.APIKey == "" {
		if v := os.Getenv(EnvGeminiAPIKey); v != "" {
			cfg.Embedding.APIKey = v
			overrides = append(overrides, EnvOverride{Name: EnvGeminiAPIKey, Path: "embedding.apiKey", Value: redact(EnvGeminiAPIKey, v)})
		}
	}
	return overrides
}

func redact(name, v string) string {
	if strings.HasSuffix(name, "_API_KEY") {
		return "***"
	}
	return v
}

// GetSupportedEnvVars returns the override variable names, sorted.
func GetSupportedEnvVars() []string {
	names := make([]string, 0, len(envBindings))
	for name := range envBindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String renders an override for `config show`.
func (o EnvOverride) String() string {
	return fmt.Sprintf("%s=%s (%s)", o.Name, o.Value, o.Path)
}
