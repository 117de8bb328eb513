package syntax

import (
	"fmt"
	"sort"
)

// TokenClass is the Halstead role of a lexical token.
type TokenClass uint8

const (
	// TokOperator covers keywords, punctuation and operators.
	TokOperator TokenClass = iota
	// TokIdentifier covers every kind of name.
	TokIdentifier
	// TokLiteral covers strings, numbers and constants.
	TokLiteral
)

// Token is one lexical leaf of the concrete syntax tree. Comments are dropped.
type Token struct {
	Text  string
	Class TokenClass
	Byte  uint32
}

// Unit is a parsed source file. It is immutable once returned by the
// Extractor.
type Unit struct {
	Path     string
	Language Language
	Module   string
	Package  string // Go package clause
	Source   []byte
	Root     *Node
	Tokens   []Token
	Lines    int

	// PublicAPI holds names declared as the module's public surface
	// (Python __all__, JavaScript export lists). HasPublicAPI is true when
	// the module declares one explicitly.
	PublicAPI    []string
	HasPublicAPI bool

	// Imports maps a local alias to the dotted target it names. The target
	// is a module ("pkg.util") or a member of one ("pkg.util.helper").
	Imports map[string]string
}

// TokensIn returns the tokens whose start offset lies in [start, end).
func (u *Unit) TokensIn(start, end uint32) []Token {
	lo := sort.Search(len(u.Tokens), func(i int) bool { return u.Tokens[i].Byte >= start })
	hi := sort.Search(len(u.Tokens), func(i int) bool { return u.Tokens[i].Byte >= end })
	if hi < lo {
		return nil
	}
	return u.Tokens[lo:hi]
}

// Text returns the source text covered by a structural node.
func (u *Unit) Text(n *Node) string {
	if n == nil || int(n.EndByte) > len(u.Source) || n.StartByte > n.EndByte {
		return ""
	}
	return string(u.Source[n.StartByte:n.EndByte])
}

// FailureKind classifies why a source unit produced no structural tree.
type FailureKind string

const (
	FailureSyntax      FailureKind = "syntax_error"
	FailureUnsupported FailureKind = "unsupported"
	FailureTimeout     FailureKind = "timeout"
)

// ParseFailure is the typed, per-file outcome of a failed parse. It excludes
// only that file from structural analysis.
type ParseFailure struct {
	Path    string      `json:"path"`
	Kind    FailureKind `json:"kind"`
	Line    int         `json:"line,omitempty"`
	Message string      `json:"message"`
}

func (f *ParseFailure) Error() string {
	if f.Line > 0 {
		return fmt.Sprintf("%s:%d: %s: %s", f.Path, f.Line, f.Kind, f.Message)
	}
	return fmt.Sprintf("%s: %s: %s", f.Path, f.Kind, f.Message)
}
