package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"codeintel/internal/output"
)

// AssertSameSnapshot fails the test with a line diff when two values
// differ after run-varying fields are removed.
func AssertSameSnapshot(t *testing.T, want, got any) {
	t.Helper()

	wantJSON := normalized(t, want)
	gotJSON := normalized(t, got)
	if !bytes.Equal(wantJSON, gotJSON) {
		t.Fatalf("snapshot mismatch:\n%s", unifiedDiff(string(wantJSON), string(gotJSON)))
	}
}

func normalized(t *testing.T, v any) []byte {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal snapshot: %v", err)
	}
	data, err = output.NormalizeForSnapshot(data)
	if err != nil {
		t.Fatalf("Failed to normalize snapshot: %v", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		t.Fatalf("Failed to indent snapshot: %v", err)
	}
	return buf.Bytes()
}

// unifiedDiff is a line-by-line diff with three lines of leading context.
func unifiedDiff(want, got string) string {
	var buf bytes.Buffer
	wantLines := strings.Split(want, "\n")
	gotLines := strings.Split(got, "\n")

	fmt.Fprintln(&buf, "--- want")
	fmt.Fprintln(&buf, "+++ got")

	n := max(len(wantLines), len(gotLines))
	var hunk []string
	start := 0
	trailing := 0
	flush := func() {
		if len(hunk) > 0 {
			fmt.Fprintf(&buf, "@@ line %d @@\n", start+1)
			for _, line := range hunk {
				buf.WriteString(line)
				buf.WriteByte('\n')
			}
			hunk = nil
		}
	}

	for i := 0; i < n; i++ {
		var w, g string
		if i < len(wantLines) {
			w = wantLines[i]
		}
		if i < len(gotLines) {
			g = gotLines[i]
		}
		if w == g {
			if hunk != nil {
				hunk = append(hunk, " "+w)
				trailing++
				if trailing >= 3 {
					flush()
				}
			}
			continue
		}
		if hunk == nil {
			start = max(0, i-3)
			for j := start; j < i; j++ {
				hunk = append(hunk, " "+wantLines[j])
			}
		}
		trailing = 0
		if i < len(wantLines) {
			hunk = append(hunk, "-"+w)
		}
		if i < len(gotLines) {
			hunk = append(hunk, "+"+g)
		}
	}
	flush()
	return buf.String()
}
