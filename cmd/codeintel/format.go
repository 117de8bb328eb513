package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"codeintel/internal/output"
	"codeintel/internal/patterns"
	"codeintel/internal/report"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
	FormatYAML  OutputFormat = "yaml"
)

// ParseOutputFormat validates a --format value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatHuman, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// FormatReport renders a report in the requested format.
func FormatReport(rep *report.Report, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(rep)
	case FormatYAML:
		data, err := output.EncodeYAML(rep)
		if err != nil {
			return "", err
		}
		return strings.TrimSuffix(string(data), "\n"), nil
	case FormatHuman:
		return formatReportHuman(rep), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

var rule = strings.Repeat("━", 60)

func heading(b *strings.Builder, title string, status report.Status) {
	fmt.Fprintf(b, "\n%s", title)
	if status != "" && status != report.StatusComplete {
		fmt.Fprintf(b, " [%s]", status)
	}
	b.WriteString("\n" + strings.Repeat("━", len(title)) + "\n")
}

func location(path string, start, end int) string {
	if end > start {
		return fmt.Sprintf("%s:%d-%d", path, start, end)
	}
	return fmt.Sprintf("%s:%d", path, start)
}

// formatReportHuman formats a report for reading in a terminal.
func formatReportHuman(rep *report.Report) string {
	var b strings.Builder
	s := rep.Summary

	b.WriteString("codeintel Analysis Report\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Files: %d parsed, %d failed    Definitions: %d (%d functions, %d classes)\n",
		s.ParsedFiles, s.FailedFiles, s.Definitions, s.Functions, s.Classes)
	fmt.Fprintf(&b, "Lines: %d    Duration: %dms\n", s.TotalLines, rep.DurationMs)

	formatComplexityHuman(&b, &rep.Complexity)
	formatHotspotsHuman(&b, rep.Hotspots)
	formatOrphansHuman(&b, &rep.Orphans)
	formatPatternsHuman(&b, &rep.Patterns)
	formatSimilarityHuman(&b, &rep.Similarity)
	formatFailuresHuman(&b, rep)

	b.WriteString("\nRun `codeintel analyze --format json` for machine-readable output.\n")
	return b.String()
}

func formatComplexityHuman(b *strings.Builder, c *report.ComplexitySection) {
	heading(b, "Complexity", c.Status)
	if c.Error != "" {
		fmt.Fprintf(b, "  Error: %s\n", c.Error)
	}
	fmt.Fprintf(b, "  Functions: %d    Average cyclomatic: %s    Average MI: %s\n",
		c.TotalFunctions, output.FormatFloat(c.AverageComplexity, 2), output.FormatFloat(c.AverageMaintainability, 1))
	fmt.Fprintf(b, "  Above threshold %d: %d    Below MI %s: %d\n",
		c.Threshold, c.ComplexFunctions, output.FormatFloat(c.MaintainabilityThreshold, 1), c.LowMaintainability)
	if len(c.Top) == 0 {
		return
	}
	b.WriteString("\n  Most complex:\n")
	for _, r := range c.Top {
		marker := " "
		if r.HighComplexity || r.LowMaintainability {
			marker = "!"
		}
		fmt.Fprintf(b, "  %s %-32s cc=%-3d cog=%-3d mi=%-5s %s\n",
			marker, r.Name, r.Cyclomatic, r.Cognitive, output.FormatFloat(r.Maintainability, 1),
			location(r.Path, r.StartLine, r.EndLine))
	}
}

func formatHotspotsHuman(b *strings.Builder, hotspots []report.Hotspot) {
	if len(hotspots) == 0 {
		return
	}
	heading(b, "Hotspots", "")
	for i, h := range hotspots {
		fmt.Fprintf(b, "  %2d. %-32s score=%-6s cc=%-3d %s\n",
			i+1, h.Name, output.FormatFloat(h.Score, 2), h.Cyclomatic, location(h.Path, h.StartLine, h.EndLine))
	}
}

func formatOrphansHuman(b *strings.Builder, o *report.OrphanSection) {
	heading(b, "Orphaned Definitions", o.Status)
	if o.Error != "" {
		fmt.Fprintf(b, "  Error: %s\n", o.Error)
	}
	if len(o.Findings) == 0 {
		fmt.Fprintf(b, "  No orphans found among %d definitions.\n", o.Summary.TotalDefinitions)
		return
	}
	for _, f := range o.Findings {
		fmt.Fprintf(b, "  ✗ %s %s\n", f.Kind, f.QualifiedName)
		fmt.Fprintf(b, "    %s\n", location(f.Path, f.StartLine, f.EndLine))
		fmt.Fprintf(b, "    Reason: %s\n", f.Reason)
	}
	fmt.Fprintf(b, "\n  %d of %d definitions (%s) unreachable, ~%d lines removable\n",
		o.Summary.OrphanCount, o.Summary.TotalDefinitions,
		output.FormatFloat(o.Summary.OrphanPercent, 1)+"%", o.Summary.EstimatedLines)
}

func formatPatternsHuman(b *strings.Builder, p *report.PatternSection) {
	heading(b, "Patterns", p.Status)
	if p.Error != "" {
		fmt.Fprintf(b, "  Error: %s\n", p.Error)
	}
	if len(p.Frequency) > 0 {
		tags := make([]string, 0, len(p.Frequency))
		for tag := range p.Frequency {
			tags = append(tags, string(tag))
		}
		sort.Strings(tags)
		parts := make([]string, len(tags))
		for i, tag := range tags {
			parts[i] = fmt.Sprintf("%s=%d", tag, p.Frequency[patterns.Tag(tag)])
		}
		fmt.Fprintf(b, "  Tags: %s\n", strings.Join(parts, " "))
	}
	for _, cp := range p.CommonPatterns {
		seq := make([]string, len(cp.Sequence))
		for i, t := range cp.Sequence {
			seq[i] = string(t)
		}
		fmt.Fprintf(b, "  %-16s %3d (%s%%)  %s\n",
			cp.Classification, cp.Count, output.FormatFloat(cp.Percentage, 1), strings.Join(seq, " → "))
	}
	if len(p.AntiPatterns) == 0 {
		b.WriteString("  No anti-patterns found.\n")
		return
	}
	b.WriteString("\n  Anti-patterns:\n")
	for _, ap := range p.AntiPatterns {
		fmt.Fprintf(b, "  ! %-14s %s (%s:%d) %s\n", ap.Rule, ap.Name, ap.Path, ap.Line, ap.Details)
	}
}

func formatSimilarityHuman(b *strings.Builder, s *report.SimilaritySection) {
	heading(b, "Similarity", s.Status)
	if s.Error != "" {
		fmt.Fprintf(b, "  %s\n", s.Error)
	}
	if s.Status == report.StatusSkipped || s.Status == report.StatusFailed {
		return
	}
	fmt.Fprintf(b, "  Provider: %s    Embedded: %d/%d    Cache hits: %d    Method: %s\n",
		s.Provider, s.Embedded, s.Candidates, s.CacheHits, s.Method)
	fmt.Fprintf(b, "  Clusters: %d (avg size %s, %d singletons)    Silhouette: %s\n",
		s.K, output.FormatFloat(s.AverageClusterSize, 2), s.Singletons, output.FormatFloat(s.Silhouette, 3))
	if len(s.Pairs) == 0 {
		fmt.Fprintf(b, "  No pairs above %s.\n", output.FormatFloat(s.Threshold, 2))
		return
	}
	b.WriteString("\n  Similar pairs:\n")
	for _, p := range s.Pairs {
		fmt.Fprintf(b, "  ≈ %s  %s\n      %s\n", output.FormatFloat(p.Similarity, 3), p.A, p.B)
	}
}

func formatFailuresHuman(b *strings.Builder, rep *report.Report) {
	if len(rep.Failures) == 0 {
		return
	}
	heading(b, "Failures", "")
	for _, f := range rep.Failures {
		where := f.Path
		if f.DefinitionID != "" {
			where = f.DefinitionID
		}
		if f.Line > 0 {
			where = fmt.Sprintf("%s:%d", where, f.Line)
		}
		fmt.Fprintf(b, "  [%s] %s %s: %s\n", f.Severity, f.Code, where, f.Message)
	}
}
