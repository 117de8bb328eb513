//go:build cgo

package syntax

import (
	"bytes"
	"context"
)

// ExtractLanguage parses one file with an explicit language.
func (e *Extractor) ExtractLanguage(ctx context.Context, path string, source []byte, lang Language) (*Unit, *ParseFailure) {
	unit := &Unit{
		Path:     path,
		Language: lang,
		Module:   ModuleName(path, lang),
		Source:   source,
		Lines:    countLines(source),
	}
	unit.Root = &Node{
		Kind:      KindModule,
		StartLine: 1,
		EndLine:   max(unit.Lines, 1),
		EndByte:   uint32(len(source)),
	}
	if len(bytes.TrimSpace(source)) == 0 {
		if _, err := grammar(lang); err != nil {
			return nil, &ParseFailure{Path: path, Kind: FailureUnsupported, Message: err.Error()}
		}
		return unit, nil
	}

	parser := NewParser(e.timeout)
	defer parser.Close()

	tree, failure := parser.Parse(ctx, path, source, lang)
	if failure != nil {
		return nil, failure
	}
	defer tree.Close()

	l := &lowerer{src: source, unit: unit, rules: rulesFor(lang)}
	root := tree.RootNode()
	l.walkChildren(root, unit.Root)
	l.collectTokens(root)
	return unit, nil
}

// Available reports whether structural extraction works in this build.
func Available() bool {
	return true
}
