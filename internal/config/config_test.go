package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable the loader reads so the host
// environment cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range GetSupportedEnvVars() {
		t.Setenv(name, "")
	}
	t.Setenv(EnvConfigPath, "")
	t.Setenv(EnvGeminiAPIKey, "")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Complexity.Threshold != 10 {
		t.Errorf("Complexity.Threshold = %d, want 10", cfg.Complexity.Threshold)
	}
	if cfg.Complexity.MaintainabilityThreshold != 65 {
		t.Errorf("MaintainabilityThreshold = %v, want 65", cfg.Complexity.MaintainabilityThreshold)
	}
	if cfg.Similarity.Threshold != 0.85 {
		t.Errorf("Similarity.Threshold = %v, want 0.85", cfg.Similarity.Threshold)
	}
	if cfg.Embedding.Provider != "local" {
		t.Errorf("Embedding.Provider = %q, want local", cfg.Embedding.Provider)
	}
	if !cfg.Cache.Enabled {
		t.Error("cache should be enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"version", func(c *Config) { c.Version = 99 }, "version"},
		{"workers", func(c *Config) { c.Analysis.Workers = -1 }, "analysis.workers"},
		{"language", func(c *Config) { c.Analysis.Languages = []string{"cobol"} }, "analysis.languages"},
		{"exclude", func(c *Config) { c.Analysis.Exclude = []string{"[abc"} }, "analysis.exclude"},
		{"complexity", func(c *Config) { c.Complexity.Threshold = 0 }, "complexity.threshold"},
		{"maintainability", func(c *Config) { c.Complexity.MaintainabilityThreshold = 120 }, "complexity.maintainabilityThreshold"},
		{"similarity", func(c *Config) { c.Similarity.Threshold = 2 }, "similarity.threshold"},
		{"clusters", func(c *Config) { c.Similarity.MaxClusters = 0 }, "similarity.maxClusters"},
		{"provider", func(c *Config) { c.Embedding.Provider = "openai" }, "embedding.provider"},
		{"gemini key", func(c *Config) { c.Embedding.Provider = "gemini" }, "embedding.apiKey"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			ce, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "version", Message: "unsupported config version 99"}
	want := "config error in field 'version': unsupported config version 99"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestLoadConfig_Default(t *testing.T) {
	clearEnv(t)

	res, err := LoadConfigWithDetails(t.TempDir(), "")
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}
	if !res.UsedDefaults {
		t.Error("UsedDefaults should be true when no config file exists")
	}
	if res.ConfigPath != "" {
		t.Errorf("ConfigPath = %q, want empty", res.ConfigPath)
	}
	if res.Config.Complexity.Threshold != 10 {
		t.Errorf("Complexity.Threshold = %d, want 10", res.Config.Complexity.Threshold)
	}
}

func TestLoadConfig_Formats(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{".codeintel.yaml", "version: 1\ncomplexity:\n  threshold: 15\nsimilarity:\n  maxClusters: 4\n"},
		{".codeintel.json", `{"version": 1, "complexity": {"threshold": 15}, "similarity": {"maxClusters": 4}}`},
		{".codeintel.toml", "version = 1\n[complexity]\nthreshold = 15\n[similarity]\nmaxClusters = 4\n"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			clearEnv(t)
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, tt.file), []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			res, err := LoadConfigWithDetails(dir, "")
			if err != nil {
				t.Fatalf("LoadConfigWithDetails() error = %v", err)
			}
			if res.UsedDefaults {
				t.Error("UsedDefaults should be false")
			}
			cfg := res.Config
			if cfg.Complexity.Threshold != 15 {
				t.Errorf("Complexity.Threshold = %d, want 15", cfg.Complexity.Threshold)
			}
			if cfg.Similarity.MaxClusters != 4 {
				t.Errorf("Similarity.MaxClusters = %d, want 4", cfg.Similarity.MaxClusters)
			}
			// Keys absent from the file keep their defaults.
			if cfg.Similarity.Threshold != 0.85 {
				t.Errorf("Similarity.Threshold = %v, want default 0.85", cfg.Similarity.Threshold)
			}
		})
	}
}

func TestLoadConfig_ExplicitPath(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("version: 1\nembedding:\n  provider: none\n"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := LoadConfigWithDetails(t.TempDir(), path)
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}
	if res.ConfigPath != path {
		t.Errorf("ConfigPath = %q, want %q", res.ConfigPath, path)
	}
	if res.Config.Embedding.Provider != "none" {
		t.Errorf("Provider = %q, want none", res.Config.Embedding.Provider)
	}

	if _, err := LoadConfigWithDetails(dir, filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("a missing explicit config file should be an error")
	}
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".codeintel.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(dir); err == nil {
		t.Error("LoadConfig() should fail on malformed JSON")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config, overrides []EnvOverride)
	}{
		{
			name:    "log level",
			envVars: map[string]string{"CODEINTEL_LOG_LEVEL": "debug"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
				}
				if len(overrides) != 1 || overrides[0].Path != "logging.level" {
					t.Errorf("overrides = %v", overrides)
				}
			},
		},
		{
			name: "numbers and lists",
			envVars: map[string]string{
				"CODEINTEL_COMPLEXITY_THRESHOLD": "20",
				"CODEINTEL_SIMILARITY_THRESHOLD": "0.9",
				"CODEINTEL_LANGUAGES":            "python, go",
			},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Complexity.Threshold != 20 {
					t.Errorf("Complexity.Threshold = %d, want 20", cfg.Complexity.Threshold)
				}
				if cfg.Similarity.Threshold != 0.9 {
					t.Errorf("Similarity.Threshold = %v, want 0.9", cfg.Similarity.Threshold)
				}
				if strings.Join(cfg.Analysis.Languages, ",") != "python,go" {
					t.Errorf("Languages = %v", cfg.Analysis.Languages)
				}
				if len(overrides) != 3 {
					t.Errorf("len(overrides) = %d, want 3", len(overrides))
				}
			},
		},
		{
			name:    "invalid int ignored",
			envVars: map[string]string{"CODEINTEL_COMPLEXITY_THRESHOLD": "lots"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Complexity.Threshold != 10 {
					t.Errorf("Complexity.Threshold = %d, want default 10", cfg.Complexity.Threshold)
				}
				if len(overrides) != 0 {
					t.Errorf("overrides = %v, want none", overrides)
				}
			},
		},
		{
			name:    "bool",
			envVars: map[string]string{"CODEINTEL_CACHE_ENABLED": "false"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Cache.Enabled {
					t.Error("Cache.Enabled should be false")
				}
			},
		},
		{
			name:    "gemini key fallback is redacted",
			envVars: map[string]string{EnvGeminiAPIKey: "secret"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Embedding.APIKey != "secret" {
					t.Errorf("APIKey = %q, want secret", cfg.Embedding.APIKey)
				}
				if len(overrides) != 1 || overrides[0].Value != "***" {
					t.Errorf("overrides = %v", overrides)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			cfg := DefaultConfig()
			overrides := applyEnvOverrides(cfg)
			tt.validate(t, cfg, overrides)
		})
	}
}

func TestLoadConfig_DotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CODEINTEL_MAX_CLUSTERS=3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides a variable that is already set, and
	// clearEnv set it to the empty string; unset it for this test.
	os.Unsetenv("CODEINTEL_MAX_CLUSTERS")
	t.Cleanup(func() { os.Unsetenv("CODEINTEL_MAX_CLUSTERS") })

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Similarity.MaxClusters != 3 {
		t.Errorf("MaxClusters = %d, want 3 from .env", cfg.Similarity.MaxClusters)
	}
}

func TestGetSupportedEnvVars(t *testing.T) {
	vars := GetSupportedEnvVars()
	if len(vars) == 0 {
		t.Fatal("GetSupportedEnvVars() should return a non-empty list")
	}
	for i := 1; i < len(vars); i++ {
		if vars[i-1] > vars[i] {
			t.Errorf("vars not sorted: %q before %q", vars[i-1], vars[i])
		}
	}
	for _, v := range vars {
		if !strings.HasPrefix(v, "CODEINTEL_") {
			t.Errorf("unexpected variable %q", v)
		}
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	for _, name := range []string{".codeintel.toml", ".codeintel.yaml", ".codeintel.json"} {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			dir := t.TempDir()
			cfg := DefaultConfig()
			cfg.Complexity.Threshold = 42
			cfg.Orphans.EntryPointPatterns = []string{"main", "cli_*"}
			cfg.Embedding.APIKey = "never-written"

			path := filepath.Join(dir, name)
			if err := cfg.Save(path); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if strings.Contains(string(data), "never-written") {
				t.Error("the API key must not be written to disk")
			}

			loaded, err := LoadConfig(dir)
			if err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}
			if loaded.Complexity.Threshold != 42 {
				t.Errorf("Complexity.Threshold = %d, want 42", loaded.Complexity.Threshold)
			}
			if len(loaded.Orphans.EntryPointPatterns) != 2 {
				t.Errorf("EntryPointPatterns = %v", loaded.Orphans.EntryPointPatterns)
			}
		})
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Analysis.ParseTimeoutMs = 1500
	cfg.Similarity.MaxClusters = 7

	opts := cfg.EngineOptions("1.0.0")
	if opts.ParseTimeout != 1500*time.Millisecond {
		t.Errorf("ParseTimeout = %v, want 1.5s", opts.ParseTimeout)
	}
	if opts.MaxClusters != 7 || opts.Version != "1.0.0" {
		t.Errorf("opts = %+v", opts)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("default config should give valid engine options: %v", err)
	}
	if cfg.CacheTTL() != 30*24*time.Hour {
		t.Errorf("CacheTTL() = %v", cfg.CacheTTL())
	}
}
