package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadFile(t *testing.T) {
	data := bytes.Repeat([]byte(`{"status":"complete"}`), 100)
	dir := t.TempDir()

	tests := []struct {
		name       string
		file       string
		compressed bool
	}{
		{name: "plain", file: "report.json"},
		{name: "zstd", file: "nested/report.json.zst", compressed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := WriteFile(path, data); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			zstdMagic := []byte{0x28, 0xb5, 0x2f, 0xfd}
			if got := bytes.HasPrefix(raw, zstdMagic); got != tt.compressed {
				t.Errorf("compressed = %v, want %v", got, tt.compressed)
			}
			if tt.compressed && len(raw) >= len(data) {
				t.Errorf("compressed size %d not smaller than %d", len(raw), len(data))
			}

			got, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Error("ReadFile() did not return the written data")
			}
		})
	}
}
