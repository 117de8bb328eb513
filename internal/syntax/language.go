package syntax

import (
	"fmt"
	"path"
	"strings"
)

// Language represents a supported programming language.
type Language string

const (
	LangPython     Language = "python"
	LangGo         Language = "go"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
)

var extensions = map[string]Language{
	".py":  LangPython,
	".pyi": LangPython,
	".go":  LangGo,
	".js":  LangJavaScript,
	".jsx": LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
	".ts":  LangTypeScript,
	".mts": LangTypeScript,
	".cts": LangTypeScript,
	".tsx": LangTSX,
}

// LanguageFromPath returns the language for a file path based on its
// extension.
func LanguageFromPath(p string) (Language, bool) {
	lang, ok := extensions[strings.ToLower(path.Ext(p))]
	return lang, ok
}

// Languages lists every supported language.
func Languages() []Language {
	return []Language{LangPython, LangGo, LangJavaScript, LangTypeScript, LangTSX}
}

// ParseLanguage converts a user-supplied name into a Language.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "python", "py":
		return LangPython, nil
	case "go", "golang":
		return LangGo, nil
	case "javascript", "js":
		return LangJavaScript, nil
	case "typescript", "ts":
		return LangTypeScript, nil
	case "tsx":
		return LangTSX, nil
	default:
		return "", fmt.Errorf("unsupported language: %s", s)
	}
}

// IsScript reports whether the language belongs to the JavaScript family.
func (l Language) IsScript() bool {
	return l == LangJavaScript || l == LangTypeScript || l == LangTSX
}

// ModuleName derives the dotted module name for a file.
//
// Python and the JavaScript family map one file to one module
// ("pkg/util.py" -> "pkg.util", "pkg/__init__.py" -> "pkg"). Go packages
// span a directory, so every file in a directory shares the directory's
// module ("cmd/tool/main.go" -> "cmd.tool").
func ModuleName(p string, lang Language) string {
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")

	var base string
	if lang == LangGo {
		base = path.Dir(p)
		if base == "." {
			base = ""
		}
	} else {
		base = strings.TrimSuffix(p, path.Ext(p))
		switch path.Base(base) {
		case "__init__", "index":
			base = path.Dir(base)
			if base == "." {
				base = ""
			}
		}
	}
	if base == "" {
		return "_"
	}
	return strings.ReplaceAll(base, "/", ".")
}

// ModuleTail returns the final segment of a dotted module name, which is
// how Go packages and plain "import x" statements refer to it.
func ModuleTail(module string) string {
	if i := strings.LastIndexByte(module, '.'); i >= 0 {
		return module[i+1:]
	}
	return module
}
