package embedding

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/surgebase/porter2"
)

// DefaultLocalDimension is the vector size of the local embedder.
const DefaultLocalDimension = 256

const (
	minStemLength = 3
	shapeWeight   = 1
	wordWeight    = 0.25
	bigramWeight  = 0.125
)

// LocalEmbedder is an offline embedder built from two feature families.
// The dominant one is the shape of the code: bigrams and trigrams of the
// token stream with identifiers, numbers and strings replaced by
// placeholders, so renaming variables leaves it unchanged. The second is
// a lightly weighted bag of stemmed identifier words and their bigrams.
// Features are hashed into a signed vector. It is deterministic and needs
// no network access.
type LocalEmbedder struct {
	dimension int
}

// NewLocalEmbedder creates a local embedder. A non-positive dimension
// selects DefaultLocalDimension.
func NewLocalEmbedder(dim int) *LocalEmbedder {
	if dim <= 0 {
		dim = DefaultLocalDimension
	}
	return &LocalEmbedder{dimension: dim}
}

func (l *LocalEmbedder) Dimension() int { return l.dimension }

func (l *LocalEmbedder) Name() string { return ProviderLocal }

func (l *LocalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = l.vector(text)
	}
	return out, nil
}

func (l *LocalEmbedder) vector(text string) []float32 {
	counts := make(map[string]float32)
	weights := make(map[string]float32)
	count := func(feature string, weight float32) {
		counts[feature]++
		weights[feature] = weight
	}

	shape := Shape(text)
	for n := 2; n <= 3; n++ {
		for i := 0; i+n <= len(shape); i++ {
			count("s:"+strings.Join(shape[i:i+n], " "), shapeWeight)
		}
	}
	words := Words(text)
	for i, w := range words {
		count("w:"+w, wordWeight)
		if i > 0 {
			count("b:"+words[i-1]+"_"+w, bigramWeight)
		}
	}

	// Buckets are filled in sorted feature order so the float sums do not
	// depend on map iteration.
	features := make([]string, 0, len(counts))
	for f := range counts {
		features = append(features, f)
	}
	sort.Strings(features)

	vec := make([]float32, l.dimension)
	for _, f := range features {
		tf := 1 + float32(math.Log(float64(counts[f])))
		l.add(vec, f, weights[f]*tf)
	}
	normalize(vec)
	return vec
}

// add hashes a feature into one bucket. The top bit of the hash picks the
// sign so that collisions tend to cancel.
func (l *LocalEmbedder) add(vec []float32, feature string, weight float32) {
	h := xxhash.Sum64String(feature)
	idx := int(h % uint64(l.dimension))
	if h>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}

// Words splits source text into lower-case stemmed words. Identifiers are
// broken on underscores and case transitions: "fetchHTTPRequest" yields
// "fetch", "http", "request".
func Words(text string) []string {
	var words []string
	emit := func(w string) {
		if w == "" {
			return
		}
		w = strings.ToLower(w)
		if len(w) >= minStemLength {
			w = porter2.Stem(w)
		}
		words = append(words, w)
	}

	runes := []rune(text)
	start := -1
	for i, r := range runes {
		isWord := unicode.IsLetter(r) || unicode.IsDigit(r)
		if !isWord {
			if start >= 0 {
				emit(string(runes[start:i]))
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		if caseBoundary(runes, i) {
			emit(string(runes[start:i]))
			start = i
		}
	}
	if start >= 0 {
		emit(string(runes[start:]))
	}
	return words
}

// caseBoundary reports whether a new word starts at runes[i]: a lower to
// upper transition ("fooBar") or the last capital of an acronym followed
// by lower case ("HTTPRequest").
func caseBoundary(runes []rune, i int) bool {
	prev, cur := runes[i-1], runes[i]
	if unicode.IsLower(prev) && unicode.IsUpper(cur) {
		return true
	}
	if unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
		return true
	}
	return false
}

// Placeholders used by Shape.
const (
	ShapeIdent  = "ID"
	ShapeNumber = "NUM"
	ShapeString = "STR"
)

// keywords survive Shape unchanged. The set covers the control and
// declaration words of every supported language.
var keywords = map[string]bool{
	"and": true, "as": true, "async": true, "await": true, "break": true,
	"case": true, "catch": true, "class": true, "const": true, "continue": true,
	"def": true, "default": true, "defer": true, "del": true, "do": true,
	"elif": true, "else": true, "except": true, "extends": true, "finally": true,
	"for": true, "from": true, "func": true, "function": true, "go": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"let": true, "new": true, "not": true, "or": true, "pass": true,
	"raise": true, "range": true, "return": true, "select": true, "switch": true,
	"throw": true, "try": true, "var": true, "while": true, "with": true,
	"yield": true, "None": true, "True": true, "False": true, "nil": true,
	"null": true, "true": true, "false": true, "undefined": true,
}

// Shape lexes source text into its structural token stream: keywords and
// punctuation are kept, identifiers become ShapeIdent, numeric literals
// ShapeNumber and string literals ShapeString. Whitespace is dropped, as
// are "#" comments and "//" comments that start a line.
func Shape(text string) []string {
	var out []string
	runes := []rune(text)
	lineStart := true
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == '\n':
			lineStart = true
			i++
			continue
		case unicode.IsSpace(r):
			i++
			continue
		case r == '#' || (lineStart && r == '/' && i+1 < len(runes) && runes[i+1] == '/'):
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			continue
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			j := i + 2
			for j+1 < len(runes) && (runes[j] != '*' || runes[j+1] != '/') {
				j++
			}
			if j+1 >= len(runes) {
				return out
			}
			i = j + 2
			continue
		}
		lineStart = false

		switch {
		case r == '"' || r == '\'' || r == '`':
			i = skipString(runes, i)
			out = append(out, ShapeString)
		case unicode.IsDigit(r):
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '.' || runes[i] == '_') {
				i++
			}
			out = append(out, ShapeNumber)
		case unicode.IsLetter(r) || r == '_' || r == '$':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_' || runes[i] == '$') {
				i++
			}
			if w := string(runes[start:i]); keywords[w] {
				out = append(out, w)
			} else {
				out = append(out, ShapeIdent)
			}
		default:
			out = append(out, string(r))
			i++
		}
	}
	return out
}

// skipString returns the index just past the string literal opening at i.
// An unterminated literal runs to the end of the text.
func skipString(runes []rune, i int) int {
	quote := runes[i]
	if i+2 < len(runes) && runes[i+1] == quote && runes[i+2] == quote {
		for j := i + 3; j+2 < len(runes); j++ {
			if runes[j] == quote && runes[j+1] == quote && runes[j+2] == quote {
				return j + 3
			}
		}
		return len(runes)
	}
	i++
	for i < len(runes) {
		switch runes[i] {
		case '\\':
			i += 2
			continue
		case quote:
			return i + 1
		case '\n':
			if quote != '`' {
				return i
			}
		}
		i++
	}
	return i
}
