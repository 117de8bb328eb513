package graph

import (
	"context"
	"testing"

	"codeintel/internal/symbols"
	tu "codeintel/internal/testutil"
)

func resolveAll(t *testing.T, table *symbols.Table) map[string]Resolution {
	t.Helper()
	r := NewResolver(table)
	out := map[string]Resolution{}
	for _, fi := range table.Files() {
		for _, cs := range fi.Calls {
			out[cs.Callee] = r.Resolve(cs)
		}
	}
	return out
}

func TestResolvePython(t *testing.T) {
	util := tu.Unit("app/util.py",
		tu.Func("helper", 1, 2),
		tu.Func("format", 4, 5),
	)
	other := tu.Unit("app/other.py",
		tu.Func("format", 1, 2),
	)
	base := tu.Unit("app/base.py",
		tu.Class("Base", 1, 5, nil, tu.Func("save", 2, 3)),
	)
	repo := tu.Unit("app/repo.py",
		tu.Class("Repo", 1, 20, []string{"Base"},
			tu.Func("load", 2, 12,
				tu.Call("self.save", 3),
				tu.Call("self._read", 4),
				tu.Call("h", 5),
				tu.Call("util.helper", 6),
				tu.Call("format", 7),
				tu.Call("os.path.join", 8),
				tu.Dynamic("fns[0]", 9),
				tu.Call("local", 10),
				tu.Call("Repo.build", 11),
			),
			tu.Func("_read", 13, 14),
			tu.Func("build", 15, 16),
		),
		tu.Func("local", 21, 22),
	)
	repo.Imports = map[string]string{
		"Base": "app.base.Base",
		"h":    "app.util.helper",
		"util": "app.util",
		"os":   "os",
	}

	got := resolveAll(t, tu.Table(util, other, base, repo))

	tests := []struct {
		callee string
		status Status
		target string
	}{
		{"self.save", StatusResolved, "app/base.py#Base.save"},
		{"self._read", StatusResolved, "app/repo.py#Repo._read"},
		{"h", StatusResolved, "app/util.py#helper"},
		{"util.helper", StatusResolved, "app/util.py#helper"},
		{"format", StatusAmbiguous, ""},
		{"os.path.join", StatusDangling, ""},
		{"fns[0]", StatusDangling, ""},
		{"local", StatusResolved, "app/repo.py#local"},
		{"Repo.build", StatusResolved, "app/repo.py#Repo.build"},
	}
	for _, tt := range tests {
		res := got[tt.callee]
		if res.Status != tt.status {
			t.Errorf("%s: status = %s (%s), want %s", tt.callee, res.Status, res.Reason, tt.status)
			continue
		}
		if tt.target != "" && (len(res.Targets) != 1 || res.Targets[0] != tt.target) {
			t.Errorf("%s: targets = %v, want [%s]", tt.callee, res.Targets, tt.target)
		}
	}
	if res := got["format"]; len(res.Targets) != 2 {
		t.Errorf("format candidates = %v, want 2", res.Targets)
	}
}

func TestResolveDirectCallsSkipMethods(t *testing.T) {
	u := tu.Unit("svc.py",
		tu.Class("Svc", 1, 5, nil, tu.Func("run", 2, 3)),
		tu.Func("main", 6, 7, tu.Call("run", 7)),
	)
	got := resolveAll(t, tu.Table(u))
	if res := got["run"]; res.Status != StatusDangling {
		t.Errorf("run = %s %v, want dangling", res.Status, res.Targets)
	}
}

func TestResolveNestedScope(t *testing.T) {
	u := tu.Unit("outer.py",
		tu.Func("outer", 1, 6,
			tu.Func("inner", 2, 3),
			tu.Call("inner", 4),
		),
		tu.Func("elsewhere", 7, 8, tu.Call("inner2", 8)),
	)
	other := tu.Unit("x.py",
		tu.Func("f", 1, 4, tu.Func("inner2", 2, 3)),
	)
	got := resolveAll(t, tu.Table(u, other))
	if res := got["inner"]; res.Status != StatusResolved || res.Targets[0] != "outer.py#outer.inner" {
		t.Errorf("inner = %+v", res)
	}
	if res := got["inner2"]; res.Status != StatusDangling {
		t.Errorf("nested definitions must not match globally: %+v", res)
	}
}

func TestResolveGoReceiverAndPackages(t *testing.T) {
	types := tu.Unit("internal/store/types.go",
		tu.Class("Store", 1, 4, nil),
		tu.Func("Open", 5, 8),
	)
	methods := tu.Unit("internal/store/store.go",
		tu.Method("Store", "s", "Get", 1, 4, tu.Call("s.lookup", 2)),
		tu.Method("Store", "s", "lookup", 5, 8),
	)
	main := tu.Unit("cmd/tool/main.go",
		tu.Func("main", 1, 5,
			tu.Call("store.Open", 2),
			tu.Call("fmt.Println", 3),
		),
	)
	main.Imports = map[string]string{
		"store": "github.com.acme.tool.internal.store",
		"fmt":   "fmt",
	}

	got := resolveAll(t, tu.Table(types, methods, main))
	if res := got["s.lookup"]; res.Status != StatusResolved || res.Targets[0] != "internal/store/store.go#Store.lookup" {
		t.Errorf("s.lookup = %+v", res)
	}
	if res := got["store.Open"]; res.Status != StatusResolved || res.Targets[0] != "internal/store/types.go#Open" {
		t.Errorf("store.Open = %+v", res)
	}
	if res := got["fmt.Println"]; res.Status != StatusDangling {
		t.Errorf("fmt.Println = %+v, want dangling", res)
	}
}

func TestResolveNoCrossLanguage(t *testing.T) {
	py := tu.Unit("a.py", tu.Func("main", 1, 2, tu.Call("render", 2)))
	js := tu.Unit("b.js", tu.Func("render", 1, 2))
	got := resolveAll(t, tu.Table(py, js))
	if res := got["render"]; res.Status != StatusDangling {
		t.Errorf("render = %+v, want dangling", res)
	}
}

func TestBuildCallGraph(t *testing.T) {
	a := tu.Unit("a.py",
		tu.Func("helper", 1, 2),
		tu.Func("unused", 3, 4),
	)
	b := tu.Unit("b.py",
		tu.Func("main", 1, 6,
			tu.Call("run", 2),
			tu.Call("run", 3, tu.Ref("callback", 3), tu.Ref("data", 3)),
			tu.Call("print", 4),
		),
		tu.Func("run", 7, 8),
		tu.Func("callback", 9, 10),
		tu.Call("main", 12),
	)
	table := tu.Table(a, b)
	cg, err := Build(context.Background(), table, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	stats := cg.Stats()
	if stats.Resolved != 4 || stats.Dangling != 1 || stats.Dropped != 1 {
		t.Errorf("stats = %+v, want 4 resolved, 1 dangling, 1 dropped", stats)
	}
	if got := cg.CallCount("b.py#main", "b.py#run"); got != 2 {
		t.Errorf("CallCount(main, run) = %d, want 2", got)
	}
	if got := cg.Graph().Kind("b.py#main", "b.py#callback"); got != KindReference {
		t.Errorf("callback edge kind = %q, want reference", got)
	}

	reach := cg.Reachable([]string{symbols.ModuleScopeID("b.py")})
	for _, id := range []string{"b.py#main", "b.py#run", "b.py#callback"} {
		if !reach[id] {
			t.Errorf("%s should be reachable", id)
		}
	}
	if reach["a.py#helper"] || reach["a.py#unused"] {
		t.Error("a.py definitions should be unreachable")
	}

	for _, e := range cg.Edges() {
		if e.Status != StatusResolved {
			continue
		}
		if _, ok := table.Lookup(e.Callee); !ok {
			t.Errorf("resolved edge to unknown definition %s", e.Callee)
		}
	}

	scores, err := cg.Rank(context.Background(), []string{symbols.ModuleScopeID("b.py")})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if scores["b.py#run"] <= 0 {
		t.Errorf("run score = %v, want > 0", scores["b.py#run"])
	}
	if _, ok := scores[symbols.ModuleScopeID("b.py")]; ok {
		t.Error("module pseudo-nodes must not be ranked")
	}
}
