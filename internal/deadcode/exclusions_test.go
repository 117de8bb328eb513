package deadcode

import (
	"testing"

	"codeintel/internal/symbols"
)

func TestIsTestFile(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		// Go tests
		{"internal/query/engine_test.go", true},
		{"cmd/main_test.go", true},
		{"pkg/utils/utils.go", false},

		// TypeScript/JavaScript tests
		{"src/components/Button.test.ts", true},
		{"src/utils/helper.spec.js", true},
		{"__tests__/Button.test.tsx", true},
		{"src/components/Button.tsx", false},

		// Python tests
		{"tests/test_main.py", true},
		{"src/main_test.py", true},
		{"src/conftest.py", true},
		{"src/main.py", false},

		// Test directories
		{"test/fixtures/data.json", false}, // test/ not matched, only /test/
		{"tests/unit/test_api.py", true},
		{"testdata/sample.json", false},
		{"pkg/tests/unit.go", true},

		// Non-test files
		{"internal/query/engine.go", false},
		{"docs/testing.md", false},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			result := IsTestFile(tc.path)
			if result != tc.expected {
				t.Errorf("IsTestFile(%q) = %v, want %v", tc.path, result, tc.expected)
			}
		})
	}
}

func TestIsGeneratedFile(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"internal/api/api_generated.go", true},
		{"pkg/proto/service.pb.go", true},
		{"pkg/proto/service_pb2.py", true},
		{"internal/mocks/mock_engine.go", true},
		{"static/vendor.min.js", true},
		{"types/index.d.ts", true},

		{"internal/query/engine.go", false},
		{"cmd/main.go", false},
		{"app/views.py", false},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			result := isGeneratedFile(tc.path)
			if result != tc.expected {
				t.Errorf("isGeneratedFile(%q) = %v, want %v", tc.path, result, tc.expected)
			}
		})
	}
}

func TestIsCommonInterfaceMethod(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		expected bool
	}{
		{"String", "method", true},
		{"Error", "method", true},
		{"Close", "method", true},
		{"MarshalJSON", "method", true},
		{"ServeHTTP", "method", true},

		{"String", "function", false},
		{"CustomMethod", "method", false},
	}

	for _, tc := range tests {
		t.Run(tc.name+"_"+tc.kind, func(t *testing.T) {
			result := isCommonInterfaceMethod(tc.name, tc.kind)
			if result != tc.expected {
				t.Errorf("isCommonInterfaceMethod(%q, %q) = %v, want %v", tc.name, tc.kind, result, tc.expected)
			}
		})
	}
}

func TestRulesShouldExclude(t *testing.T) {
	tests := []struct {
		name     string
		def      symbols.Definition
		patterns []string
		excluded bool
	}{
		{
			name:     "test function",
			def:      symbols.Definition{Name: "test_load", Kind: symbols.KindFunction, Path: "app/load.py"},
			excluded: true,
		},
		{
			name:     "magic method",
			def:      symbols.Definition{Name: "__repr__", Kind: symbols.KindMethod, Path: "app/model.py"},
			excluded: true,
		},
		{
			name:     "Stringer method",
			def:      symbols.Definition{Name: "String", Kind: symbols.KindMethod, Language: "go", Path: "pkg/t.go"},
			excluded: true,
		},
		{
			name:     "String in python is not special",
			def:      symbols.Definition{Name: "String", Kind: symbols.KindMethod, Language: "python", Path: "pkg/t.py"},
			excluded: false,
		},
		{
			name:     "generated file",
			def:      symbols.Definition{Name: "Generated", Kind: symbols.KindFunction, Path: "internal/api/api_generated.go"},
			excluded: true,
		},
		{
			name:     "path pattern",
			def:      symbols.Definition{Name: "old", Kind: symbols.KindFunction, Path: "internal/legacy/old.go"},
			patterns: []string{"**/legacy/**"},
			excluded: true,
		},
		{
			name:     "qualified name pattern",
			def:      symbols.Definition{Name: "hook", QualifiedName: "plugins.loader.hook", Kind: symbols.KindFunction, Path: "plugins/loader.py"},
			patterns: []string{"plugins.*.hook"},
			excluded: true,
		},
		{
			name:     "decorated fixture",
			def:      symbols.Definition{Name: "db", Kind: symbols.KindFunction, Path: "app/fx.py", Decorators: []string{"pytest.fixture"}},
			excluded: true,
		},
		{
			name:     "regular function",
			def:      symbols.Definition{Name: "process", Kind: symbols.KindFunction, Path: "internal/query/engine.py"},
			excluded: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.ExemptionPatterns = append(opts.ExemptionPatterns, tc.patterns...)
			rules, err := NewRules(opts)
			if err != nil {
				t.Fatalf("NewRules: %v", err)
			}
			reason := rules.ShouldExclude(&tc.def)
			if excluded := reason != ""; excluded != tc.excluded {
				t.Errorf("ShouldExclude() = %v (reason: %q), want excluded=%v", excluded, reason, tc.excluded)
			}
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if !opts.PublicAPIExempt {
		t.Error("PublicAPIExempt should default to true")
	}
	if opts.TopLevelEntryPoints {
		t.Error("TopLevelEntryPoints should default to false")
	}
	if len(opts.EntryPointPatterns) != 2 {
		t.Errorf("EntryPointPatterns = %v, want [main __main__]", opts.EntryPointPatterns)
	}
}
