package testutil

import (
	"strings"
	"testing"
)

func TestUnifiedDiff(t *testing.T) {
	want := "a\nb\nc\nd\ne"
	got := "a\nb\nX\nd\ne"

	diff := unifiedDiff(want, got)
	for _, line := range []string{"-c", "+X", " b", "@@ line 1 @@"} {
		if !strings.Contains(diff, line+"\n") {
			t.Errorf("diff missing %q:\n%s", line, diff)
		}
	}
}

func TestAssertSameSnapshotIgnoresRunFields(t *testing.T) {
	type run struct {
		RunID      string `json:"runId"`
		DurationMs int64  `json:"durationMs"`
		Files      int    `json:"files"`
	}
	AssertSameSnapshot(t, run{RunID: "a", DurationMs: 3, Files: 2}, run{RunID: "b", DurationMs: 9, Files: 2})
}

func TestSortedPaths(t *testing.T) {
	got := SortedPaths(map[string]string{"b.py": "", "a/z.py": "", "a.py": ""})
	want := []string{"a.py", "a/z.py", "b.py"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("SortedPaths() = %v, want %v", got, want)
	}
}
