package deadcode

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"codeintel/internal/symbols"
)

// Rules decides which definitions are entry points or exempt.
type Rules struct {
	entryPoints []string
	exemptions  []string
	decorators  []string
}

// NewRules validates the patterns of opts.
func NewRules(opts Options) (*Rules, error) {
	for _, set := range [][]string{opts.EntryPointPatterns, opts.ExemptionPatterns, opts.DecoratorPatterns} {
		for _, p := range set {
			if !doublestar.ValidatePattern(p) {
				return nil, fmt.Errorf("invalid pattern %q", p)
			}
		}
	}
	return &Rules{
		entryPoints: opts.EntryPointPatterns,
		exemptions:  opts.ExemptionPatterns,
		decorators:  opts.DecoratorPatterns,
	}, nil
}

// EntryPoint returns the entry point pattern def matches, or "".
func (r *Rules) EntryPoint(def *symbols.Definition) string {
	if p := matchAny(r.entryPoints, def); p != "" {
		return "matches entry point pattern: " + p
	}
	return ""
}

// ShouldExclude returns a reason if def is exempt from orphan detection,
// or an empty string if not.
func (r *Rules) ShouldExclude(def *symbols.Definition) string {
	if p := matchAny(r.exemptions, def); p != "" {
		return "matches exemption pattern: " + p
	}

	if IsTestFile(def.Path) {
		return "test file"
	}

	if isGeneratedFile(def.Path) {
		return "generated file"
	}

	// Getters and setters are reached through attribute access.
	if def.Accessor {
		return "accessor"
	}

	for _, d := range def.Decorators {
		for _, p := range r.decorators {
			if ok, _ := doublestar.Match(p, d); ok {
				return "registered by decorator @" + d
			}
		}
	}

	if def.Language == "go" && isCommonInterfaceMethod(def.Name, string(def.Kind)) {
		return "common interface implementation"
	}

	return ""
}

// matchAny matches patterns against the short name, the scope, the
// qualified name and the file path of def.
func matchAny(patterns []string, def *symbols.Definition) string {
	for _, p := range patterns {
		for _, s := range []string{def.Name, def.Scope, def.QualifiedName, def.Path} {
			if ok, _ := doublestar.Match(p, s); ok {
				return p
			}
		}
	}
	return ""
}

// isCommonInterfaceMethod checks if a Go method is a common interface
// implementation invoked through the interface.
func isCommonInterfaceMethod(name, kind string) bool {
	if kind != string(symbols.KindMethod) {
		return false
	}

	commonMethods := map[string]bool{
		// fmt.Stringer
		"String": true,
		// error interface
		"Error":  true,
		"Unwrap": true,
		// io.Reader/Writer/Closer
		"Read":  true,
		"Write": true,
		"Close": true,
		// io.Seeker
		"Seek": true,
		// sort.Interface
		"Len":  true,
		"Less": true,
		"Swap": true,
		// encoding.TextMarshaler/Unmarshaler
		"MarshalText":   true,
		"UnmarshalText": true,
		// encoding.BinaryMarshaler/Unmarshaler
		"MarshalBinary":   true,
		"UnmarshalBinary": true,
		// json.Marshaler/Unmarshaler
		"MarshalJSON":   true,
		"UnmarshalJSON": true,
		// yaml.Marshaler/Unmarshaler
		"MarshalYAML":   true,
		"UnmarshalYAML": true,
		// sql.Scanner/driver.Valuer
		"Scan":  true,
		"Value": true,
		// context.Context methods
		"Deadline": true,
		"Done":     true,
		"Err":      true,
		// http.Handler
		"ServeHTTP": true,
		// flag.Value
		"Set":  true,
		"Type": true,
		// slog.Handler
		"Enabled":   true,
		"Handle":    true,
		"WithAttrs": true,
		"WithGroup": true,
	}

	return commonMethods[name]
}

// isGeneratedFile checks if a file is likely generated.
func isGeneratedFile(path string) bool {
	generatedPatterns := []string{
		"_generated.go",
		"_gen.go",
		".pb.go",
		".pb.gw.go",
		"_pb2.py",
		"_pb2_grpc.py",
		"_string.go",
		"_enumer.go",
		"mock_",
		"mocks/",
		"generated/",
		"zz_generated",
		"wire_gen.go",
		"migrations/",
		".min.js",
		".d.ts",
	}

	pathLower := strings.ToLower(path)
	for _, pattern := range generatedPatterns {
		if strings.Contains(pathLower, pattern) {
			return true
		}
	}

	return false
}

// IsTestFile checks if a file path is a test file.
func IsTestFile(path string) bool {
	// Go tests
	if strings.HasSuffix(path, "_test.go") {
		return true
	}

	// TypeScript/JavaScript tests
	for _, suffix := range []string{".test.ts", ".test.tsx", ".test.js", ".test.jsx", ".spec.ts", ".spec.tsx", ".spec.js", ".spec.jsx"} {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}

	// Python tests
	base := filepath.Base(path)
	if strings.HasSuffix(path, "_test.py") || strings.HasPrefix(base, "test_") || base == "conftest.py" {
		return true
	}

	// Test directories
	if strings.Contains(path, "/test/") ||
		strings.Contains(path, "/tests/") ||
		strings.Contains(path, "/__tests__/") {
		return true
	}

	return false
}
