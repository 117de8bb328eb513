package syntax

import "testing"

func TestModuleName(t *testing.T) {
	tests := []struct {
		path string
		lang Language
		want string
	}{
		{"pkg/util.py", LangPython, "pkg.util"},
		{"./pkg/util.py", LangPython, "pkg.util"},
		{"pkg/__init__.py", LangPython, "pkg"},
		{"main.py", LangPython, "main"},
		{"__init__.py", LangPython, "_"},
		{"cmd/tool/main.go", LangGo, "cmd.tool"},
		{"main.go", LangGo, "_"},
		{"src/components/index.ts", LangTypeScript, "src.components"},
		{"src\\app.js", LangJavaScript, "src.app"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ModuleName(tt.path, tt.lang); got != tt.want {
				t.Errorf("ModuleName(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestLanguageFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Language
		ok   bool
	}{
		{"a.py", LangPython, true},
		{"a.GO", LangGo, true},
		{"a.tsx", LangTSX, true},
		{"a.mjs", LangJavaScript, true},
		{"a.rs", "", false},
		{"Makefile", "", false},
	}

	for _, tt := range tests {
		got, ok := LanguageFromPath(tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("LanguageFromPath(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseLanguage(t *testing.T) {
	if lang, err := ParseLanguage("py"); err != nil || lang != LangPython {
		t.Errorf("ParseLanguage(py) = %q, %v", lang, err)
	}
	if _, err := ParseLanguage("cobol"); err == nil {
		t.Error("expected error for unknown language")
	}
}

func TestSplitCallee(t *testing.T) {
	tests := []struct {
		in        string
		qualifier string
		member    string
	}{
		{"helper", "", "helper"},
		{"self.save", "self", "save"},
		{"os.path.join", "os.path", "join"},
		{"a(b.c).d", "a(b.c)", "d"},
		{"items[i.j].run", "items[i.j]", "run"},
	}

	for _, tt := range tests {
		q, m := splitCallee(tt.in)
		if q != tt.qualifier || m != tt.member {
			t.Errorf("splitCallee(%q) = %q, %q; want %q, %q", tt.in, q, m, tt.qualifier, tt.member)
		}
	}
}

func TestResolveRelative(t *testing.T) {
	tests := []struct {
		module, target, want string
	}{
		{"pkg.sub.mod", ".util", "pkg.sub.util"},
		{"pkg.sub.mod", "..core", "pkg.core"},
		{"pkg.sub.mod", ".", "pkg.sub"},
		{"pkg.mod", "abs.path", "abs.path"},
	}

	for _, tt := range tests {
		if got := resolveRelative(tt.module, tt.target); got != tt.want {
			t.Errorf("resolveRelative(%q, %q) = %q, want %q", tt.module, tt.target, got, tt.want)
		}
	}
}

func TestTokensIn(t *testing.T) {
	u := &Unit{Tokens: []Token{{Text: "a", Byte: 0}, {Text: "b", Byte: 5}, {Text: "c", Byte: 10}}}

	got := u.TokensIn(4, 10)
	if len(got) != 1 || got[0].Text != "b" {
		t.Errorf("TokensIn(4, 10) = %v, want [b]", got)
	}
	if got := u.TokensIn(11, 20); len(got) != 0 {
		t.Errorf("TokensIn(11, 20) = %v, want empty", got)
	}
}
