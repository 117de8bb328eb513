package output

import "testing"

func TestNormalizeForSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "run metadata removed",
			input: `{"runId":"abc","generatedAt":"2026-01-01T00:00:00Z","durationMs":12,"version":"0.1.0"}`,
			want:  `{"version":"0.1.0"}`,
		},
		{
			name:  "stage timings removed",
			input: `{"stages":[{"stage":"extract","durationMs":3}],"summary":{"files":2}}`,
			want:  `{"summary":{"files":2}}`,
		},
		{
			name:  "nested cache hits removed",
			input: `{"similarity":{"cacheHits":4,"status":"complete","threshold":0.85}}`,
			want:  `{"similarity":{"status":"complete","threshold":0.85}}`,
		},
		{
			name:  "missing parent ignored",
			input: `{"complexity":{"status":"complete"}}`,
			want:  `{"complexity":{"status":"complete"}}`,
		},
		{
			name:    "invalid JSON",
			input:   `{invalid}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeForSnapshot([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeForSnapshot() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && string(got) != tt.want {
				t.Errorf("NormalizeForSnapshot() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCompareSnapshots(t *testing.T) {
	a := []byte(`{"runId":"1","durationMs":10,"summary":{"files":3}}`)
	b := []byte(`{"runId":"2","durationMs":99,"summary":{"files":3}}`)
	c := []byte(`{"runId":"1","durationMs":10,"summary":{"files":4}}`)

	if equal, msg := CompareSnapshots(a, b); !equal {
		t.Errorf("CompareSnapshots(a, b) = false (%s), want true", msg)
	}
	if equal, _ := CompareSnapshots(a, c); equal {
		t.Error("CompareSnapshots(a, c) = true, want false")
	}
	if equal, msg := CompareSnapshots(a, []byte("nope")); equal || msg == "" {
		t.Errorf("invalid snapshot should fail with a message, got %v %q", equal, msg)
	}
}

func TestSnapshotEqual(t *testing.T) {
	type run struct {
		RunID string `json:"runId"`
		Files int    `json:"files"`
	}
	if !SnapshotEqual(run{RunID: "x", Files: 1}, run{RunID: "y", Files: 1}) {
		t.Error("runs differing only in runId should be equal")
	}
	if SnapshotEqual(run{Files: 1}, run{Files: 2}) {
		t.Error("runs with different counts should differ")
	}
}
