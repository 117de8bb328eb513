package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"codeintel/internal/config"
	"codeintel/internal/discover"
	"codeintel/internal/embedding"
	"codeintel/internal/engine"
	"codeintel/internal/output"
	"codeintel/internal/syntax"
	"codeintel/internal/version"
)

var (
	analyzeFormat          string
	analyzeOutput          string
	analyzeThreshold       int
	analyzeMaintainability float64
	analyzeSimilarity      float64
	analyzeMaxClusters     int
	analyzeProvider        string
	analyzeModel           string
	analyzeCachePath       string
	analyzeNoCache         bool
	analyzeWorkers         int
	analyzeLanguages       []string
	analyzeExclude         []string
	analyzeEntryPoints     []string
	analyzeNoTests         bool
	analyzeTopN            int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [dir]",
	Short: "Analyse a source tree",
	Long: `Discover source files under dir (default: the current directory), analyse
them and print a report covering complexity, orphaned definitions, control-flow
patterns and near-duplicate code.

Files ignored by .gitignore, hidden directories and common dependency folders
are skipped. Command-line flags override the config file, which overrides the
built-in defaults.

Examples:
  codeintel analyze
  codeintel analyze ./src --format human
  codeintel analyze --threshold 15 --similarity 0.9
  codeintel analyze --provider ollama --model nomic-embed-text
  codeintel analyze --provider none --languages python,go
  codeintel analyze --output report.json.zst`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFormat, "format", string(FormatJSON), "Output format (json, human, yaml)")
	f.StringVarP(&analyzeOutput, "output", "o", "", "Write the report to a file (.zst compresses)")
	f.IntVar(&analyzeThreshold, "threshold", 0, "Cyclomatic complexity threshold")
	f.Float64Var(&analyzeMaintainability, "maintainability", 0, "Maintainability index threshold (0-100)")
	f.Float64Var(&analyzeSimilarity, "similarity", 0, "Similarity threshold (0-1)")
	f.IntVar(&analyzeMaxClusters, "max-clusters", 0, "Maximum number of similarity clusters")
	f.StringVar(&analyzeProvider, "provider", "", "Embedding provider (local, ollama, gemini, none)")
	f.StringVar(&analyzeModel, "model", "", "Embedding model for remote providers")
	f.StringVar(&analyzeCachePath, "cache", "", "Embedding cache database path")
	f.BoolVar(&analyzeNoCache, "no-cache", false, "Disable the persistent embedding cache")
	f.IntVar(&analyzeWorkers, "workers", 0, "Parallel workers (default: number of CPUs)")
	f.StringSliceVar(&analyzeLanguages, "languages", nil, "Only analyse these languages")
	f.StringSliceVar(&analyzeExclude, "exclude", nil, "Additional exclude patterns (doublestar syntax)")
	f.StringSliceVar(&analyzeEntryPoints, "entry-point", nil, "Additional entry point patterns")
	f.BoolVar(&analyzeNoTests, "no-tests", false, "Skip test files")
	f.IntVar(&analyzeTopN, "top", 0, "Number of most complex functions to list")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	start := time.Now()
	format, err := ParseOutputFormat(analyzeFormat)
	if err != nil {
		return err
	}
	root, err := targetRoot(args)
	if err != nil {
		return err
	}
	loaded, err := loadConfig(root)
	if err != nil {
		return err
	}
	cfg := loaded.Config
	applyAnalyzeFlags(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg)
	if loaded.ConfigPath != "" {
		logger.Info("Loaded config", "path", loaded.ConfigPath)
	}
	for _, ov := range loaded.EnvOverrides {
		logger.Debug("Environment override", "var", ov.Name, "path", ov.Path)
	}

	ctx, cancel := newContext()
	defer cancel()

	langs, err := parseLanguages(cfg.Analysis.Languages)
	if err != nil {
		return err
	}
	files, skipped, err := discover.Files(root, discover.Options{
		Languages:    langs,
		Exclude:      cfg.Analysis.Exclude,
		MaxFileSize:  cfg.Analysis.MaxFileSizeBytes,
		IncludeTests: cfg.Analysis.IncludeTests,
	})
	if err != nil {
		return fmt.Errorf("failed to discover files: %w", err)
	}
	for _, s := range skipped {
		logger.Debug("Skipping file", "path", s.Path, "reason", s.Reason)
	}
	logger.Info("Discovered source files", "root", root, "files", len(files), "skipped", len(skipped))

	inputs, err := discover.Read(root, files)
	if err != nil {
		return err
	}

	embedder, err := embedding.NewEmbedder(ctx, cfg.EmbeddingOptions())
	if err != nil {
		logger.Warn("Embedding provider unavailable, similarity analysis disabled", "provider", cfg.Embedding.Provider, "error", err.Error())
		embedder = nil
	}

	var cache embedding.Cache
	if cfg.Cache.Enabled && embedder != nil {
		db, ec, err := openCache(cachePath(root, cfg), logger)
		if err != nil {
			logger.Warn("Embedding cache unavailable", "error", err.Error())
		} else {
			defer db.Close()
			defer ec.Close()
			if ttl := cfg.CacheTTL(); ttl > 0 {
				if n, err := ec.Prune(ctx, ttl); err != nil {
					logger.Warn("Failed to prune embedding cache", "error", err.Error())
				} else if n > 0 {
					logger.Debug("Pruned embedding cache", "removed", n)
				}
			}
			cache = ec
		}
	}

	eng := engine.New(embedder, cache, logger)
	eng.OnStage(func(ev engine.StageEvent) {
		logger.Info("Stage complete", "stage", ev.Stage, "items", ev.Items, "duration", ev.Duration)
	})

	rep, err := eng.Run(ctx, inputs, cfg.EngineOptions(version.Version))
	if err != nil {
		return err
	}

	rendered, err := FormatReport(rep, format)
	if err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}
	if analyzeOutput != "" {
		if err := output.WriteFile(analyzeOutput, []byte(rendered)); err != nil {
			return err
		}
		logger.Info("Wrote report", "path", analyzeOutput)
	} else {
		fmt.Fprintln(os.Stdout, rendered)
	}

	logger.Debug("Analysis completed",
		"files", len(inputs),
		"failures", len(rep.Failures),
		"duration", time.Since(start).Milliseconds(),
	)
	return nil
}

// applyAnalyzeFlags copies explicitly set flags onto cfg.
func applyAnalyzeFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("threshold") {
		cfg.Complexity.Threshold = analyzeThreshold
	}
	if flags.Changed("maintainability") {
		cfg.Complexity.MaintainabilityThreshold = analyzeMaintainability
	}
	if flags.Changed("top") {
		cfg.Complexity.TopN = analyzeTopN
	}
	if flags.Changed("similarity") {
		cfg.Similarity.Threshold = analyzeSimilarity
	}
	if flags.Changed("max-clusters") {
		cfg.Similarity.MaxClusters = analyzeMaxClusters
	}
	if flags.Changed("provider") {
		cfg.Embedding.Provider = analyzeProvider
	}
	if flags.Changed("model") {
		cfg.Embedding.Model = analyzeModel
	}
	if flags.Changed("cache") {
		cfg.Cache.Path = analyzeCachePath
		cfg.Cache.Enabled = true
	}
	if analyzeNoCache {
		cfg.Cache.Enabled = false
	}
	if flags.Changed("workers") {
		cfg.Analysis.Workers = analyzeWorkers
	}
	if flags.Changed("languages") {
		cfg.Analysis.Languages = analyzeLanguages
	}
	if flags.Changed("exclude") {
		cfg.Analysis.Exclude = append(cfg.Analysis.Exclude, analyzeExclude...)
	}
	if flags.Changed("entry-point") {
		cfg.Orphans.EntryPointPatterns = append(cfg.Orphans.EntryPointPatterns, analyzeEntryPoints...)
	}
	if analyzeNoTests {
		cfg.Analysis.IncludeTests = false
	}
}

func parseLanguages(names []string) ([]syntax.Language, error) {
	var langs []syntax.Language
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		lang, err := syntax.ParseLanguage(name)
		if err != nil {
			return nil, err
		}
		langs = append(langs, lang)
	}
	return langs, nil
}
