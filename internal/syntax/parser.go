//go:build cgo

package syntax

import (
	"context"
	"errors"
	"fmt"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parser wraps a tree-sitter parser. A Parser is not safe for concurrent
// use; each worker owns its own.
type Parser struct {
	parser  *sitter.Parser
	timeout time.Duration
}

// NewParser creates a new tree-sitter parser. A zero timeout disables the
// per-parse deadline.
func NewParser(timeout time.Duration) *Parser {
	return &Parser{
		parser:  sitter.NewParser(),
		timeout: timeout,
	}
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	p.parser.Close()
}

// Parse parses source and returns the concrete syntax tree. The caller must
// Close the tree. Any ERROR or MISSING node in the result is reported as a
// FailureSyntax with the line of the first offending node.
func (p *Parser) Parse(ctx context.Context, path string, source []byte, lang Language) (*sitter.Tree, *ParseFailure) {
	tsLang, err := grammar(lang)
	if err != nil {
		return nil, &ParseFailure{Path: path, Kind: FailureUnsupported, Message: err.Error()}
	}
	p.parser.SetLanguage(tsLang)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil || tree == nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &ParseFailure{Path: path, Kind: FailureTimeout, Message: fmt.Sprintf("parse exceeded %s", p.timeout)}
		}
		if ctx.Err() != nil {
			return nil, &ParseFailure{Path: path, Kind: FailureTimeout, Message: ctx.Err().Error()}
		}
		msg := "parser returned no tree"
		if err != nil {
			msg = err.Error()
		}
		return nil, &ParseFailure{Path: path, Kind: FailureSyntax, Message: msg}
	}

	root := tree.RootNode()
	if root.HasError() {
		bad := firstError(root)
		line := 0
		msg := "syntax error"
		if bad != nil {
			line = int(bad.StartPoint().Row) + 1
			if bad.IsMissing() {
				msg = fmt.Sprintf("missing %s", bad.Type())
			} else {
				msg = fmt.Sprintf("unexpected %q", snippet(bad.Content(source)))
			}
		}
		tree.Close()
		return nil, &ParseFailure{Path: path, Kind: FailureSyntax, Line: line, Message: msg}
	}
	return tree, nil
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := firstError(n.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}

func snippet(s string) string {
	const max = 40
	for i, r := range s {
		if r == '\n' {
			s = s[:i]
			break
		}
	}
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
