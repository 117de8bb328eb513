// Package discover finds analysable source files under a directory.
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"codeintel/internal/deadcode"
	"codeintel/internal/engine"
	"codeintel/internal/syntax"
)

// File is a discovered source file. Path is slash-separated and relative
// to the discovery root.
type File struct {
	Path     string
	Language syntax.Language
	Size     int64
}

// Skip records a file that matched a language but was left out.
type Skip struct {
	Path   string
	Reason string
}

// Options narrows discovery.
type Options struct {
	Languages    []syntax.Language // empty means every supported language
	Exclude      []string          // doublestar patterns against the relative path
	MaxFileSize  int64             // zero disables the limit
	IncludeTests bool
}

var skipDirs = map[string]struct{}{
	"__pycache__":   {},
	"node_modules":  {},
	"vendor":        {},
	"venv":          {},
	".venv":         {},
	"build":         {},
	"dist":          {},
	".tox":          {},
	".mypy_cache":   {},
	".pytest_cache": {},
}

// Files walks root and returns matching files sorted by path.
func Files(root string, opts Options) ([]File, []Skip, error) {
	for _, p := range opts.Exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	langs := make(map[syntax.Language]struct{}, len(opts.Languages))
	for _, l := range opts.Languages {
		langs[l] = struct{}{}
	}
	gi := loadGitignore(root)

	var (
		files   []File
		skipped []Skip
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		name := d.Name()

		if d.IsDir() {
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if gi != nil && gi.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(name, ".") {
			return nil
		}

		lang, ok := syntax.LanguageFromPath(rel)
		if !ok {
			return nil
		}
		if _, want := langs[lang]; len(langs) > 0 && !want {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if excluded(rel, opts.Exclude) {
			skipped = append(skipped, Skip{Path: rel, Reason: "excluded"})
			return nil
		}
		if !opts.IncludeTests && deadcode.IsTestFile(rel) {
			skipped = append(skipped, Skip{Path: rel, Reason: "test file"})
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
			skipped = append(skipped, Skip{Path: rel, Reason: fmt.Sprintf("larger than %d bytes", opts.MaxFileSize)})
			return nil
		}
		files = append(files, File{Path: rel, Language: lang, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, skipped, nil
}

// Read loads the discovered files as engine inputs, preserving order.
func Read(root string, files []File) ([]engine.Input, error) {
	inputs := make([]engine.Input, 0, len(files))
	for _, f := range files {
		content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(f.Path)))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Path, err)
		}
		inputs = append(inputs, engine.Input{Path: f.Path, Content: content})
	}
	return inputs, nil
}

func excluded(rel string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
