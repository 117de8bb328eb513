package output

import (
	"bytes"
	"encoding/json"
	"strings"
)

// SnapshotExcludeFields lists the report fields that vary between
// otherwise identical runs.
var SnapshotExcludeFields = []string{
	"runId",
	"generatedAt",
	"durationMs",
	"stages",
	"similarity.cacheHits",
}

// NormalizeForSnapshot removes run-varying fields from a JSON document
// and re-encodes it deterministically.
func NormalizeForSnapshot(data []byte) ([]byte, error) {
	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	for _, field := range SnapshotExcludeFields {
		removeNestedField(parsed, field)
	}
	return DeterministicEncode(parsed)
}

// CompareSnapshots reports whether two JSON documents are equal once
// run-varying fields are ignored.
func CompareSnapshots(a, b []byte) (bool, string) {
	normalizedA, err := NormalizeForSnapshot(a)
	if err != nil {
		return false, "failed to normalize snapshot A: " + err.Error()
	}
	normalizedB, err := NormalizeForSnapshot(b)
	if err != nil {
		return false, "failed to normalize snapshot B: " + err.Error()
	}
	if !bytes.Equal(normalizedA, normalizedB) {
		return false, "snapshots differ"
	}
	return true, ""
}

// SnapshotEqual marshals a and b and compares them as snapshots.
func SnapshotEqual(a, b any) bool {
	aJSON, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bJSON, err := json.Marshal(b)
	if err != nil {
		return false
	}
	equal, _ := CompareSnapshots(aJSON, bJSON)
	return equal
}

// removeNestedField deletes a dot-separated path such as
// "similarity.cacheHits".
func removeNestedField(data map[string]any, path string) {
	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			return
		}
		current = next
	}
	delete(current, parts[len(parts)-1])
}
