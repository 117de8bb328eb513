package syntax

import (
	"bytes"
	"context"
	"time"
)

// DefaultParseTimeout bounds a single parse when no timeout is configured.
const DefaultParseTimeout = 10 * time.Second

// Extractor turns source text into Units. It is safe for concurrent use;
// every call gets its own tree-sitter parser and the concrete syntax tree
// never leaves the calling goroutine.
type Extractor struct {
	timeout time.Duration
}

// NewExtractor creates an extractor with the given per-file parse timeout.
func NewExtractor(timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = DefaultParseTimeout
	}
	return &Extractor{timeout: timeout}
}

// Extract parses one file. The language is taken from the file extension.
// An empty file yields a Unit with an empty module node.
func (e *Extractor) Extract(ctx context.Context, path string, source []byte) (*Unit, *ParseFailure) {
	lang, ok := LanguageFromPath(path)
	if !ok {
		return nil, &ParseFailure{Path: path, Kind: FailureUnsupported, Message: "no grammar for file extension"}
	}
	return e.ExtractLanguage(ctx, path, source, lang)
}

func countLines(src []byte) int {
	if len(src) == 0 {
		return 0
	}
	n := bytes.Count(src, []byte{'\n'})
	if src[len(src)-1] != '\n' {
		n++
	}
	return n
}
