// Package output encodes analysis reports deterministically.
//
// Identical inputs must produce byte-identical reports so that results can
// be diffed between runs and compared in tests. This package provides:
//
//   - DeterministicEncode: compact JSON with sorted keys, floats rounded to
//     six decimals and empty values omitted
//   - EncodeYAML: the report's JSON shape rendered as YAML
//   - NormalizeForSnapshot / CompareSnapshots: comparison that ignores the
//     fields that legitimately change between runs
//   - WriteFile / ReadFile: report files, zstd-compressed when the name
//     ends in ".zst"
//
// # Snapshot Fields
//
// The following fields are removed before snapshot comparison:
//
//   - runId
//   - generatedAt
//   - durationMs
//   - stages
//   - similarity.cacheHits
package output
