//go:build !cgo

package syntax

import "context"

const noCGO = "structural extraction requires CGO (tree-sitter)"

// ExtractLanguage reports every file as unsupported in builds without CGO.
func (e *Extractor) ExtractLanguage(ctx context.Context, path string, source []byte, lang Language) (*Unit, *ParseFailure) {
	return nil, &ParseFailure{Path: path, Kind: FailureUnsupported, Message: noCGO}
}

// Available reports whether structural extraction works in this build.
func Available() bool {
	return false
}
