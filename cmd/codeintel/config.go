package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"codeintel/internal/config"
	"codeintel/internal/output"
)

var (
	configFormat    string
	configInitForce bool
	configInitName  string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage codeintel configuration",
	Long:  "View and create the .codeintel.{toml,yaml,json} project configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show [dir]",
	Short: "Show the effective configuration",
	Long: `Display the configuration an analysis of dir would use, after the config
file and CODEINTEL_* environment overrides are applied.

Examples:
  codeintel config show
  codeintel config show --format json
  codeintel config show --format yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a default config file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List supported environment variables",
	Run:   runConfigEnv,
}

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", string(FormatHuman), "Output format (json, yaml, human)")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")
	configInitCmd.Flags().StringVar(&configInitName, "name", config.FileName+".toml", "File name (.toml, .yaml or .json)")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEnvCmd)
	rootCmd.AddCommand(configCmd)
}

// ConfigShowResponse is the response format for config show
type ConfigShowResponse struct {
	ConfigPath   string               `json:"configPath,omitempty"`
	UsedDefaults bool                 `json:"usedDefaults"`
	EnvOverrides []config.EnvOverride `json:"envOverrides,omitempty"`
	Config       *config.Config       `json:"config"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	root, err := targetRoot(args)
	if err != nil {
		return err
	}
	result, err := config.LoadConfigWithDetails(root, configPathFlag)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	resp := ConfigShowResponse{
		ConfigPath:   result.ConfigPath,
		UsedDefaults: result.UsedDefaults,
		EnvOverrides: result.EnvOverrides,
		Config:       result.Config,
	}

	switch OutputFormat(configFormat) {
	case FormatJSON:
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	case FormatYAML:
		data, err := output.EncodeYAML(resp)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
	default:
		fmt.Print(formatConfigHuman(result))
	}

	if err := result.Config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	return nil
}

func formatConfigHuman(result *config.LoadResult) string {
	var b strings.Builder
	cfg := result.Config
	defaults := config.DefaultConfig()

	b.WriteString("codeintel Configuration\n")
	b.WriteString(strings.Repeat("─", 50) + "\n")
	if result.UsedDefaults {
		b.WriteString("Source: defaults (no config file found)\n")
	} else {
		fmt.Fprintf(&b, "Source: %s\n", result.ConfigPath)
	}
	if len(result.EnvOverrides) > 0 {
		b.WriteString("\nEnvironment Overrides:\n")
		for _, ov := range result.EnvOverrides {
			fmt.Fprintf(&b, "  %s\n", ov.String())
		}
	}

	section := func(name string) { fmt.Fprintf(&b, "\n%s:\n", name) }
	field := func(name string, value, def any) {
		modified := ""
		if fmt.Sprint(value) != fmt.Sprint(def) {
			modified = fmt.Sprintf(" (default: %v)", def)
		}
		fmt.Fprintf(&b, "  %s: %v%s\n", name, value, modified)
	}

	section("analysis")
	field("workers", cfg.Analysis.Workers, defaults.Analysis.Workers)
	field("parseTimeoutMs", cfg.Analysis.ParseTimeoutMs, defaults.Analysis.ParseTimeoutMs)
	field("languages", cfg.Analysis.Languages, defaults.Analysis.Languages)
	field("exclude", cfg.Analysis.Exclude, defaults.Analysis.Exclude)
	field("maxFileSizeBytes", cfg.Analysis.MaxFileSizeBytes, defaults.Analysis.MaxFileSizeBytes)
	field("includeTests", cfg.Analysis.IncludeTests, defaults.Analysis.IncludeTests)

	section("complexity")
	field("threshold", cfg.Complexity.Threshold, defaults.Complexity.Threshold)
	field("maintainabilityThreshold", cfg.Complexity.MaintainabilityThreshold, defaults.Complexity.MaintainabilityThreshold)
	field("topN", cfg.Complexity.TopN, defaults.Complexity.TopN)
	field("hotspots", cfg.Complexity.Hotspots, defaults.Complexity.Hotspots)

	section("orphans")
	field("entryPointPatterns", cfg.Orphans.EntryPointPatterns, defaults.Orphans.EntryPointPatterns)
	field("exemptionPatterns", cfg.Orphans.ExemptionPatterns, defaults.Orphans.ExemptionPatterns)
	field("decoratorPatterns", cfg.Orphans.DecoratorPatterns, defaults.Orphans.DecoratorPatterns)
	field("publicApiExempt", cfg.Orphans.PublicAPIExempt, defaults.Orphans.PublicAPIExempt)
	field("topLevelEntryPoints", cfg.Orphans.TopLevelEntryPoints, defaults.Orphans.TopLevelEntryPoints)

	section("similarity")
	field("threshold", cfg.Similarity.Threshold, defaults.Similarity.Threshold)
	field("maxClusters", cfg.Similarity.MaxClusters, defaults.Similarity.MaxClusters)
	field("annThreshold", cfg.Similarity.ANNThreshold, defaults.Similarity.ANNThreshold)
	field("seed", cfg.Similarity.Seed, defaults.Similarity.Seed)
	field("minTokens", cfg.Similarity.MinTokens, defaults.Similarity.MinTokens)

	section("embedding")
	field("provider", cfg.Embedding.Provider, defaults.Embedding.Provider)
	field("model", cfg.Embedding.Model, defaults.Embedding.Model)
	field("baseUrl", cfg.Embedding.BaseURL, defaults.Embedding.BaseURL)
	apiKey := "(not set)"
	if cfg.Embedding.APIKey != "" {
		apiKey = "***"
	}
	fmt.Fprintf(&b, "  apiKey: %s\n", apiKey)
	field("batchSize", cfg.Embedding.BatchSize, defaults.Embedding.BatchSize)
	field("maxInFlight", cfg.Embedding.MaxInFlight, defaults.Embedding.MaxInFlight)
	field("timeoutMs", cfg.Embedding.TimeoutMs, defaults.Embedding.TimeoutMs)

	section("cache")
	field("enabled", cfg.Cache.Enabled, defaults.Cache.Enabled)
	field("path", cfg.Cache.Path, defaults.Cache.Path)
	field("ttlDays", cfg.Cache.TTLDays, defaults.Cache.TTLDays)

	section("logging")
	field("level", cfg.Logging.Level, defaults.Logging.Level)
	field("format", cfg.Logging.Format, defaults.Logging.Format)

	b.WriteString("\nUse 'codeintel config show --format json' for machine-readable output\n")
	b.WriteString("Use 'codeintel config env' to see supported environment variables\n")
	return b.String()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	root, err := targetRoot(args)
	if err != nil {
		return err
	}
	path := filepath.Join(root, configInitName)
	if _, err := os.Stat(path); err == nil && !configInitForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func runConfigEnv(cmd *cobra.Command, args []string) {
	fmt.Println("Supported environment variables:")
	for _, name := range config.GetSupportedEnvVars() {
		fmt.Printf("  %s\n", name)
	}
	fmt.Printf("\nA .env file in the target directory is loaded first. %s is read when no other API key is set.\n", config.EnvGeminiAPIKey)
}
