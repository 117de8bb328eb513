//go:build cgo

package syntax

import (
	"context"
	"testing"
	"time"
)

func extract(t *testing.T, path, src string) *Unit {
	t.Helper()
	unit, failure := NewExtractor(5*time.Second).Extract(context.Background(), path, []byte(src))
	if failure != nil {
		t.Fatalf("Extract(%s) failed: %v", path, failure)
	}
	return unit
}

// findDef returns the first definition with the given name anywhere in the tree.
func findDef(root *Node, name string) *Node {
	var found *Node
	Walk(root, func(n *Node) bool {
		if found == nil && n.Kind.IsDefinition() && n.Name == name {
			found = n
		}
		return found == nil
	})
	return found
}

func countKind(def *Node, kind Kind) int {
	count := 0
	WalkBody(def, func(n *Node) {
		if n.Kind == kind {
			count++
		}
	})
	return count
}

func TestExtractPythonControlFlow(t *testing.T) {
	src := `def classify(items):
    total = 0
    for item in items:
        if item > 10:
            total += 2
        if item < 0 and item != -1:
            total -= 1
    while total > 100:
        total = total // 2
    return total
`
	unit := extract(t, "pkg/calc.py", src)

	fn := findDef(unit.Root, "classify")
	if fn == nil {
		t.Fatal("classify not found")
	}
	if fn.StartLine != 1 || fn.EndLine != 10 {
		t.Errorf("classify lines = %d-%d, want 1-10", fn.StartLine, fn.EndLine)
	}
	if got := countKind(fn, KindBranch); got != 2 {
		t.Errorf("branches = %d, want 2", got)
	}
	if got := countKind(fn, KindLoop); got != 2 {
		t.Errorf("loops = %d, want 2", got)
	}
	if got := countKind(fn, KindBoolOp); got != 1 {
		t.Errorf("boolean operators = %d, want 1", got)
	}
	if got := countKind(fn, KindReturn); got != 1 {
		t.Errorf("returns = %d, want 1", got)
	}

	var kinds []LoopKind
	WalkBody(fn, func(n *Node) {
		if n.Kind == KindLoop {
			kinds = append(kinds, n.Loop)
		}
	})
	if len(kinds) != 2 || kinds[0] != LoopIteration || kinds[1] != LoopConditional {
		t.Errorf("loop kinds = %v, want [iteration conditional]", kinds)
	}
	if unit.Module != "pkg.calc" {
		t.Errorf("Module = %q, want pkg.calc", unit.Module)
	}
	if len(unit.Tokens) == 0 {
		t.Error("expected tokens")
	}
}

func TestExtractPythonClasses(t *testing.T) {
	src := `from .base import Base as B
import os.path

__all__ = ["Repo"]

class Repo(B, metaclass=Meta):
    @property
    def size(self):
        return len(self.items)

    @cached
    def load(self):
        self._read()

    def _read(self):
        def inner():
            return os.path.join("a", "b")
        return inner()
`
	unit := extract(t, "app/store/repo.py", src)

	cls := findDef(unit.Root, "Repo")
	if cls == nil || cls.Kind != KindClass {
		t.Fatal("class Repo not found")
	}
	if len(cls.Bases) != 1 || cls.Bases[0] != "B" {
		t.Errorf("Bases = %v, want [B]", cls.Bases)
	}

	size := findDef(cls, "size")
	if size == nil || !size.Accessor {
		t.Errorf("size should be an accessor: %+v", size)
	}
	load := findDef(cls, "load")
	if load == nil || len(load.Decorators) != 1 || load.Decorators[0] != "cached" {
		t.Errorf("load decorators = %+v", load)
	}
	read := findDef(cls, "_read")
	if read == nil || read.Exported {
		t.Errorf("_read should be private: %+v", read)
	}
	if findDef(read, "inner") == nil {
		t.Error("nested function inner not found")
	}

	if got := unit.Imports["B"]; got != "app.store.base.Base" {
		t.Errorf("Imports[B] = %q, want app.store.base.Base", got)
	}
	if got := unit.Imports["os"]; got != "os" {
		t.Errorf("Imports[os] = %q, want os", got)
	}
	if !unit.HasPublicAPI || len(unit.PublicAPI) != 1 || unit.PublicAPI[0] != "Repo" {
		t.Errorf("PublicAPI = %v (declared %v), want [Repo]", unit.PublicAPI, unit.HasPublicAPI)
	}

	// The decorator reference belongs to the class body scope.
	var calls []*Node
	Walk(unit.Root, func(n *Node) bool {
		if n.Kind == KindCall {
			calls = append(calls, n)
		}
		return true
	})
	foundCached := false
	for _, c := range calls {
		if c.Callee == "cached" && c.Hint == HintReference {
			foundCached = true
		}
	}
	if !foundCached {
		t.Error("decorator reference to cached not recorded")
	}
}

func TestExtractPythonCallHints(t *testing.T) {
	src := `def run(handler, fns):
    helper()
    self.step()
    fns[0]()
    pool.map(worker, fns)
`
	unit := extract(t, "run.py", src)
	fn := findDef(unit.Root, "run")

	got := map[string]CallHint{}
	WalkBody(fn, func(n *Node) {
		if n.Kind == KindCall {
			got[n.Callee] = n.Hint
		}
	})

	want := map[string]CallHint{
		"helper":    HintDirect,
		"self.step": HintAttribute,
		"fns[0]":    HintDynamic,
		"pool.map":  HintAttribute,
		"worker":    HintReference,
	}
	for callee, hint := range want {
		if got[callee] != hint {
			t.Errorf("hint[%s] = %q, want %q", callee, got[callee], hint)
		}
	}
}

func TestExtractPythonSilentHandler(t *testing.T) {
	src := `def risky():
    try:
        do_work()
    except Exception:
        pass

def careful():
    try:
        do_work()
    except Exception as exc:
        log(exc)
`
	unit := extract(t, "h.py", src)

	for name, wantEmpty := range map[string]bool{"risky": true, "careful": false} {
		fn := findDef(unit.Root, name)
		handlers := 0
		WalkBody(fn, func(n *Node) {
			if n.Kind == KindHandler {
				handlers++
				if n.Empty != wantEmpty {
					t.Errorf("%s: handler Empty = %v, want %v", name, n.Empty, wantEmpty)
				}
			}
		})
		if handlers != 1 {
			t.Errorf("%s: handlers = %d, want 1", name, handlers)
		}
	}
}

func TestExtractGo(t *testing.T) {
	src := `package sample

import (
	"fmt"
	str "strings"
)

type Server struct {
	Base
	name string
}

func (s *Server) Run() {
	defer func() {
		recover()
	}()
	go s.loop()
	if s.name == "" {
		fmt.Println("empty")
	} else if s.name == "y" {
		str.ToUpper(s.name)
	}
	for i := 0; i < 3; i++ {
	}
}
`
	unit := extract(t, "internal/sample/server.go", src)

	if unit.Package != "sample" {
		t.Errorf("Package = %q, want sample", unit.Package)
	}
	if unit.Module != "internal.sample" {
		t.Errorf("Module = %q, want internal.sample", unit.Module)
	}
	if unit.Imports["str"] != "strings" || unit.Imports["fmt"] != "fmt" {
		t.Errorf("Imports = %v", unit.Imports)
	}

	srv := findDef(unit.Root, "Server")
	if srv == nil || srv.Kind != KindClass || len(srv.Bases) != 1 || srv.Bases[0] != "Base" {
		t.Fatalf("Server = %+v", srv)
	}

	run := findDef(unit.Root, "Run")
	if run == nil {
		t.Fatal("Run not found")
	}
	if run.Receiver != "Server" || run.RecvVar != "s" || !run.Exported {
		t.Errorf("Run receiver = %q/%q exported=%v", run.Receiver, run.RecvVar, run.Exported)
	}
	if got := countKind(run, KindTry); got != 1 {
		t.Errorf("try = %d, want 1", got)
	}
	WalkBody(run, func(n *Node) {
		if n.Kind == KindHandler && !n.Empty {
			t.Error("bare recover handler should be empty")
		}
	})
	if got := countKind(run, KindConcurrency); got != 1 {
		t.Errorf("concurrency = %d, want 1", got)
	}
	chained := 0
	WalkBody(run, func(n *Node) {
		if n.Kind == KindBranch && n.Chained {
			chained++
		}
	})
	if got := countKind(run, KindBranch); got != 2 || chained != 1 {
		t.Errorf("branches = %d (chained %d), want 2 (1)", got, chained)
	}
	if got := countKind(run, KindLoop); got != 1 {
		t.Errorf("loops = %d, want 1", got)
	}
}

func TestExtractGoDeferResource(t *testing.T) {
	src := `package sample

func Open(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return nil
}
`
	unit := extract(t, "open.go", src)
	fn := findDef(unit.Root, "Open")
	if got := countKind(fn, KindResource); got != 1 {
		t.Errorf("resources = %d, want 1", got)
	}
	if got := countKind(fn, KindTry); got != 0 {
		t.Errorf("try = %d, want 0", got)
	}
}

func TestExtractJavaScript(t *testing.T) {
	src := `import { helper as h } from './util';

export class Widget extends Base {
  render() {
    try {
      h(this.name);
    } catch (e) {
    }
  }

  get size() {
    return 1;
  }
}

export const make = () => new Widget();
`
	unit := extract(t, "src/widget.js", src)

	if got := unit.Imports["h"]; got != "src.util.helper" {
		t.Errorf("Imports[h] = %q, want src.util.helper", got)
	}
	w := findDef(unit.Root, "Widget")
	if w == nil || !w.Exported || len(w.Bases) != 1 || w.Bases[0] != "Base" {
		t.Fatalf("Widget = %+v", w)
	}
	render := findDef(w, "render")
	if render == nil {
		t.Fatal("render not found")
	}
	WalkBody(render, func(n *Node) {
		if n.Kind == KindHandler && !n.Empty {
			t.Error("empty catch should be flagged empty")
		}
	})
	if size := findDef(w, "size"); size == nil || !size.Accessor {
		t.Errorf("size should be an accessor: %+v", size)
	}
	mk := findDef(unit.Root, "make")
	if mk == nil || mk.Kind != KindFunction || !mk.Exported {
		t.Errorf("make = %+v", mk)
	}
	if !unit.HasPublicAPI {
		t.Error("module with exports should declare a public API")
	}
}

func TestExtractSyntaxError(t *testing.T) {
	src := "def ok():\n    return 1\n\ndef broken(:\n    pass\n"
	_, failure := NewExtractor(time.Second).Extract(context.Background(), "bad.py", []byte(src))
	if failure == nil {
		t.Fatal("expected parse failure")
	}
	if failure.Kind != FailureSyntax {
		t.Errorf("Kind = %q, want %q", failure.Kind, FailureSyntax)
	}
	if failure.Line < 1 {
		t.Errorf("Line = %d, want >= 1", failure.Line)
	}
	if failure.Path != "bad.py" {
		t.Errorf("Path = %q, want bad.py", failure.Path)
	}
}

func TestExtractUnsupported(t *testing.T) {
	_, failure := NewExtractor(time.Second).Extract(context.Background(), "notes.txt", []byte("hello"))
	if failure == nil || failure.Kind != FailureUnsupported {
		t.Fatalf("failure = %v, want unsupported", failure)
	}
}

func TestExtractEmptyFile(t *testing.T) {
	unit := extract(t, "empty.py", "\n\n")
	if len(unit.Root.Children) != 0 {
		t.Errorf("empty file should have no structure, got %d children", len(unit.Root.Children))
	}
}

func TestExtractCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, failure := NewExtractor(time.Second).Extract(ctx, "a.py", []byte("def f():\n    return 1\n"))
	// A cancelled context may still let a tiny parse finish; when it
	// does not, the failure must be classified as a timeout.
	if failure != nil && failure.Kind != FailureTimeout {
		t.Errorf("Kind = %q, want %q", failure.Kind, FailureTimeout)
	}
}
