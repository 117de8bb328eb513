package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// CompressedExt marks report files written with zstd.
const CompressedExt = ".zst"

// WriteFile writes data to path, creating parent directories. Paths
// ending in ".zst" are zstd-compressed.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	var w io.WriteCloser = f
	if strings.HasSuffix(path, CompressedExt) {
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return fmt.Errorf("failed to create zstd writer: %w", err)
		}
		w = zw
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		f.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if w != f {
		if err := w.Close(); err != nil {
			f.Close()
			return fmt.Errorf("failed to flush compressed output: %w", err)
		}
	}
	return f.Close()
}

// ReadFile reads a file written by WriteFile.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if !strings.HasSuffix(path, CompressedExt) {
		return io.ReadAll(f)
	}
	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
