// Package symbols indexes definitions and call sites from structural trees
// and merges the per-file indexes into one table used for resolution.
package symbols

import (
	"strings"

	"codeintel/internal/syntax"
)

// Kind is the kind of a definition.
type Kind string

const (
	KindFunction Kind = "function"
	KindMethod   Kind = "method"
	KindClass    Kind = "class"
)

// ModuleScope is the scope name of code that runs when a module loads.
const ModuleScope = "<module>"

// ModuleScopeID returns the id of the pseudo-definition standing for the
// module-level code of a file.
func ModuleScopeID(path string) string {
	return path + "#" + ModuleScope
}

// IsModuleScope reports whether id names a module-level pseudo-definition.
func IsModuleScope(id string) bool {
	return strings.HasSuffix(id, "#"+ModuleScope)
}

// PathOf returns the file path part of a definition id.
func PathOf(id string) string {
	if i := strings.LastIndexByte(id, '#'); i >= 0 {
		return id[:i]
	}
	return id
}

// Definition is a named function, method or class.
type Definition struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Scope         string          `json:"scope"`
	QualifiedName string          `json:"qualifiedName"`
	Kind          Kind            `json:"kind"`
	Path          string          `json:"path"`
	Module        string          `json:"module"`
	Language      syntax.Language `json:"language"`
	StartLine     int             `json:"startLine"`
	EndLine       int             `json:"endLine"`
	StartByte     uint32          `json:"-"`
	EndByte       uint32          `json:"-"`

	Parent     string   `json:"parent,omitempty"` // enclosing definition id
	Owner      string   `json:"owner,omitempty"`  // scope of the owning class for methods
	Bases      []string `json:"bases,omitempty"`
	Decorators []string `json:"decorators,omitempty"`
	Exported   bool     `json:"exported"`
	Accessor   bool     `json:"accessor,omitempty"`
	Async      bool     `json:"async,omitempty"`
	Nested     bool     `json:"nested,omitempty"` // declared inside a function body

	Body *syntax.Node `json:"-"`
}

// LOC returns the number of lines the definition spans.
func (d *Definition) LOC() int {
	if d.EndLine < d.StartLine {
		return 0
	}
	return d.EndLine - d.StartLine + 1
}

// TopLevel reports whether the definition is declared directly at module
// scope. Go methods count as top level.
func (d *Definition) TopLevel() bool {
	return d.Parent == ""
}

// CallSite is one call-like expression.
type CallSite struct {
	Caller    string          `json:"caller,omitempty"` // definition id, "" at module scope
	Path      string          `json:"path"`
	Module    string          `json:"module"`
	Scope     string          `json:"scope"`             // caller scope
	Owner     string          `json:"owner,omitempty"`   // enclosing class scope
	RecvVar   string          `json:"recvVar,omitempty"` // Go receiver variable in scope
	Callee    string          `json:"callee"`
	Qualifier string          `json:"qualifier,omitempty"`
	Member    string          `json:"member"`
	Hint      syntax.CallHint `json:"hint"`
	Line      int             `json:"line"`
}

// CallerID returns the caller id, mapping module scope to the module
// pseudo-definition.
func (c CallSite) CallerID() string {
	if c.Caller == "" {
		return ModuleScopeID(c.Path)
	}
	return c.Caller
}

// FileIndex holds what one source unit declares and calls.
type FileIndex struct {
	Path         string
	Module       string
	Language     syntax.Language
	Definitions  []*Definition
	Calls        []CallSite
	Imports      map[string]string
	PublicAPI    []string
	HasPublicAPI bool
	Unit         *syntax.Unit
}
