package symbols

import (
	"testing"

	"codeintel/internal/syntax"
)

func fn(name string, start, end int, children ...*syntax.Node) *syntax.Node {
	return &syntax.Node{Kind: syntax.KindFunction, Name: name, StartLine: start, EndLine: end, Children: children}
}

func class(name string, start, end int, bases []string, children ...*syntax.Node) *syntax.Node {
	return &syntax.Node{Kind: syntax.KindClass, Name: name, StartLine: start, EndLine: end, Bases: bases, Children: children}
}

func call(callee string, hint syntax.CallHint, line int) *syntax.Node {
	q, m := "", callee
	for i := len(callee) - 1; i >= 0; i-- {
		if callee[i] == '.' {
			q, m = callee[:i], callee[i+1:]
			break
		}
	}
	return &syntax.Node{Kind: syntax.KindCall, Callee: callee, Qualifier: q, Member: m, Hint: hint, StartLine: line, EndLine: line}
}

func unit(path string, lang syntax.Language, children ...*syntax.Node) *syntax.Unit {
	return &syntax.Unit{
		Path:     path,
		Language: lang,
		Module:   syntax.ModuleName(path, lang),
		Root:     &syntax.Node{Kind: syntax.KindModule, StartLine: 1, EndLine: 100, Children: children},
	}
}

func TestIndexScopesAndKinds(t *testing.T) {
	u := unit("app/repo.py", syntax.LangPython,
		class("Repo", 1, 20, []string{"Base"},
			fn("load", 2, 8,
				call("self._read", syntax.HintAttribute, 3),
				fn("inner", 4, 6, call("helper", syntax.HintDirect, 5)),
			),
			fn("_read", 9, 12),
		),
		fn("helper", 21, 22),
		fn("helper", 24, 25),
		call("Repo", syntax.HintDirect, 30),
	)
	fi := Index(u)

	want := []struct {
		id, qualified string
		kind          Kind
		owner         string
		nested        bool
	}{
		{"app/repo.py#Repo", "app.repo.Repo", KindClass, "", false},
		{"app/repo.py#Repo.load", "app.repo.Repo.load", KindMethod, "Repo", false},
		{"app/repo.py#Repo.load.inner", "app.repo.Repo.load.inner", KindFunction, "", true},
		{"app/repo.py#Repo._read", "app.repo.Repo._read", KindMethod, "Repo", false},
		{"app/repo.py#helper", "app.repo.helper", KindFunction, "", false},
		{"app/repo.py#helper@24", "app.repo.helper", KindFunction, "", false},
	}
	if len(fi.Definitions) != len(want) {
		t.Fatalf("definitions = %d, want %d", len(fi.Definitions), len(want))
	}
	for i, w := range want {
		d := fi.Definitions[i]
		if d.ID != w.id || d.QualifiedName != w.qualified || d.Kind != w.kind || d.Owner != w.owner || d.Nested != w.nested {
			t.Errorf("def[%d] = %s %s %s owner=%q nested=%v, want %s %s %s owner=%q nested=%v",
				i, d.ID, d.QualifiedName, d.Kind, d.Owner, d.Nested, w.id, w.qualified, w.kind, w.owner, w.nested)
		}
	}
	if fi.Definitions[2].Parent != "app/repo.py#Repo.load" {
		t.Errorf("inner parent = %q", fi.Definitions[2].Parent)
	}

	if len(fi.Calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(fi.Calls))
	}
	self := fi.Calls[0]
	if self.Caller != "app/repo.py#Repo.load" || self.Owner != "Repo" || self.Qualifier != "self" || self.Member != "_read" {
		t.Errorf("self call = %+v", self)
	}
	nested := fi.Calls[1]
	if nested.Caller != "app/repo.py#Repo.load.inner" || nested.Owner != "Repo" {
		t.Errorf("nested call = %+v", nested)
	}
	top := fi.Calls[2]
	if top.Caller != "" || top.CallerID() != "app/repo.py#<module>" {
		t.Errorf("module call caller = %q (%s)", top.Caller, top.CallerID())
	}
}

func TestIndexGoMethods(t *testing.T) {
	run := fn("Run", 5, 9, call("s.loop", syntax.HintAttribute, 6))
	run.Receiver, run.RecvVar = "Server", "s"
	u := unit("internal/srv/server.go", syntax.LangGo, run)
	fi := Index(u)

	d := fi.Definitions[0]
	if d.Kind != KindMethod || d.Scope != "Server.Run" || d.Owner != "Server" {
		t.Errorf("Run = %+v", d)
	}
	if d.QualifiedName != "internal.srv.Server.Run" {
		t.Errorf("QualifiedName = %q", d.QualifiedName)
	}
	if c := fi.Calls[0]; c.RecvVar != "s" || c.Owner != "Server" {
		t.Errorf("call = %+v", c)
	}
}

func TestQualifyRootModule(t *testing.T) {
	if got := Qualify("_", "main"); got != "main" {
		t.Errorf("Qualify(_, main) = %q, want main", got)
	}
	if got := Qualify("pkg", "f"); got != "pkg.f" {
		t.Errorf("Qualify(pkg, f) = %q, want pkg.f", got)
	}
	if !IsModuleScope(ModuleScopeID("a.py")) || IsModuleScope("a.py#f") {
		t.Error("IsModuleScope mismatch")
	}
	if got := PathOf("a/b.py#C.m"); got != "a/b.py" {
		t.Errorf("PathOf = %q", got)
	}
}
