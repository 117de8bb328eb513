// Package deadcode finds orphan definitions: code that no entry point
// reaches over the resolved call graph and that no exemption covers.
package deadcode

// Category classifies why a definition is considered an orphan.
type Category string

const (
	// CategoryUnreferenced means no resolved call site targets it.
	CategoryUnreferenced Category = "unreferenced"

	// CategorySelfOnly means it only calls itself (recursive but never called).
	CategorySelfOnly Category = "self_only"

	// CategoryUnreachable means its callers are themselves orphans.
	CategoryUnreachable Category = "unreachable"
)

// confidence is how sure each category is that the code is dead.
var confidence = map[Category]float64{
	CategoryUnreferenced: 0.95,
	CategorySelfOnly:     0.9,
	CategoryUnreachable:  0.8,
}

// Finding is one orphan definition.
type Finding struct {
	DefinitionID  string   `json:"definitionId"`
	Name          string   `json:"name"`
	QualifiedName string   `json:"qualifiedName"`
	Kind          string   `json:"kind"`
	Path          string   `json:"path"`
	StartLine     int      `json:"startLine"`
	EndLine       int      `json:"endLine"`
	Confidence    float64  `json:"confidence"`
	Reason        string   `json:"reason"`
	Category      Category `json:"category"`

	// ReferenceCount is the number of resolved call sites from other
	// definitions.
	ReferenceCount int `json:"referenceCount"`

	// SelfReferences is the number of recursive call sites.
	SelfReferences int `json:"selfReferences,omitempty"`

	Exported bool `json:"exported"`
}

// Exemption records why a definition was treated as reachable by definition.
type Exemption struct {
	DefinitionID string `json:"definitionId"`
	Reason       string `json:"reason"`
}

// Summary provides aggregate statistics.
type Summary struct {
	TotalDefinitions int            `json:"totalDefinitions"`
	OrphanCount      int            `json:"orphanCount"`
	OrphanPercent    float64        `json:"orphanPercent"`
	EntryPoints      int            `json:"entryPoints"`
	Exempted         int            `json:"exempted"`
	PotentiallyUsed  int            `json:"potentiallyUsed"`
	ByKind           map[string]int `json:"byKind"`
	ByCategory       map[string]int `json:"byCategory"`

	// EstimatedLines is the number of lines the findings span.
	EstimatedLines int `json:"estimatedLines"`
}

// Options configures the orphan detector.
type Options struct {
	// EntryPointPatterns mark definitions as roots of reachability.
	EntryPointPatterns []string

	// ExemptionPatterns mark definitions as live without analysis
	// (lifecycle hooks, tests, magic methods).
	ExemptionPatterns []string

	// DecoratorPatterns exempt definitions registered through a decorator
	// (routes, fixtures, CLI commands).
	DecoratorPatterns []string

	// PublicAPIExempt treats declared public API as entry points.
	PublicAPIExempt bool

	// TopLevelEntryPoints treats every module-scope function as an entry
	// point instead of only module-level code.
	TopLevelEntryPoints bool
}

// DefaultOptions returns the default detector configuration.
func DefaultOptions() Options {
	return Options{
		EntryPointPatterns: DefaultEntryPointPatterns(),
		ExemptionPatterns:  DefaultExemptionPatterns(),
		DecoratorPatterns:  DefaultDecoratorPatterns(),
		PublicAPIExempt:    true,
	}
}

// DefaultEntryPointPatterns returns the built-in entry point patterns.
func DefaultEntryPointPatterns() []string {
	return []string{"main", "__main__"}
}

// DefaultExemptionPatterns returns the built-in exemption patterns.
func DefaultExemptionPatterns() []string {
	return []string{
		"__*__",
		"test_*", "Test*", "Benchmark*", "Example*", "Fuzz*",
		"setUp", "tearDown", "setUpClass", "tearDownClass",
		"init", "constructor",
		"componentDidMount", "componentWillUnmount", "componentDidUpdate", "render",
		"ngOnInit", "ngOnDestroy",
	}
}

// DefaultDecoratorPatterns returns the built-in decorator patterns.
func DefaultDecoratorPatterns() []string {
	return []string{
		"*.route", "*.get", "*.post", "*.put", "*.patch", "*.delete", "*.websocket",
		"*fixture", "*.command", "*.group", "*.task", "*.register", "*.on",
		"*.listener", "*.handler", "*.hookimpl", "receiver", "*.setter", "*.deleter",
		"*.validator", "*.field_validator", "*.model_validator",
		"Component", "Injectable", "Controller", "Get", "Post",
	}
}

// Result is the output of orphan detection.
type Result struct {
	Findings    []Finding   `json:"findings"`
	Summary     Summary     `json:"summary"`
	EntryPoints []string    `json:"entryPoints"`
	Exemptions  []Exemption `json:"exemptions,omitempty"`
}
