package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"codeintel/internal/output"
)

var (
	cacheFormat    string
	cacheOlderThan time.Duration
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the embedding cache",
	Long: `Inspect and maintain the SQLite embedding cache. Vectors are keyed by
provider and a hash of the definition text, so unchanged code is never
re-embedded.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats [dir]",
	Short: "Show cache size and entry counts",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [dir]",
	Short: "Remove every cached embedding",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClear,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune [dir]",
	Short: "Remove embeddings not used recently",
	Long: `Remove cached embeddings that no analysis has used within --older-than.

Examples:
  codeintel cache prune --older-than 720h
  codeintel cache prune ./src --older-than 24h`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCachePrune,
}

func init() {
	cacheStatsCmd.Flags().StringVar(&cacheFormat, "format", string(FormatHuman), "Output format (json, human)")
	cachePruneCmd.Flags().DurationVar(&cacheOlderThan, "older-than", 30*24*time.Hour, "Age threshold based on last use")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	root, err := targetRoot(args)
	if err != nil {
		return err
	}
	loaded, err := loadConfig(root)
	if err != nil {
		return err
	}
	path := cachePath(root, loaded.Config)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("No embedding cache at %s\n", path)
		return nil
	}

	db, cache, err := openCache(path, newLogger(loaded.Config))
	if err != nil {
		return err
	}
	defer db.Close()
	defer cache.Close()

	ctx, cancel := newContext()
	defer cancel()
	stats, err := cache.Stats(ctx)
	if err != nil {
		return err
	}

	if cacheFormat == string(FormatJSON) {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	var b strings.Builder
	b.WriteString("Embedding Cache\n")
	b.WriteString(strings.Repeat("─", 50) + "\n")
	fmt.Fprintf(&b, "Path:    %s\n", stats.Path)
	fmt.Fprintf(&b, "Entries: %d\n", stats.Entries)
	fmt.Fprintf(&b, "Size:    %s KiB\n", output.FormatFloat(float64(stats.Bytes)/1024, 1))
	if stats.Entries > 0 {
		fmt.Fprintf(&b, "Oldest use: %s\n", stats.OldestUse.Format(time.RFC3339))
		fmt.Fprintf(&b, "Newest use: %s\n", stats.NewestUse.Format(time.RFC3339))
		b.WriteString("\nBy provider:\n")
		providers := make([]string, 0, len(stats.ByProvider))
		for p := range stats.ByProvider {
			providers = append(providers, p)
		}
		sort.Strings(providers)
		for _, p := range providers {
			fmt.Fprintf(&b, "  %s: %d\n", p, stats.ByProvider[p])
		}
	}
	fmt.Print(b.String())
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	root, err := targetRoot(args)
	if err != nil {
		return err
	}
	loaded, err := loadConfig(root)
	if err != nil {
		return err
	}
	path := cachePath(root, loaded.Config)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("No embedding cache at %s\n", path)
		return nil
	}

	db, cache, err := openCache(path, newLogger(loaded.Config))
	if err != nil {
		return err
	}
	defer db.Close()
	defer cache.Close()

	ctx, cancel := newContext()
	defer cancel()
	if err := cache.Clear(ctx); err != nil {
		return err
	}
	fmt.Printf("Cleared embedding cache at %s\n", path)
	return nil
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	if cacheOlderThan <= 0 {
		return fmt.Errorf("--older-than must be positive")
	}
	root, err := targetRoot(args)
	if err != nil {
		return err
	}
	loaded, err := loadConfig(root)
	if err != nil {
		return err
	}
	path := cachePath(root, loaded.Config)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("No embedding cache at %s\n", path)
		return nil
	}

	db, cache, err := openCache(path, newLogger(loaded.Config))
	if err != nil {
		return err
	}
	defer db.Close()
	defer cache.Close()

	ctx, cancel := newContext()
	defer cancel()
	n, err := cache.Prune(ctx, cacheOlderThan)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d embeddings unused for %s\n", n, cacheOlderThan)
	return nil
}
