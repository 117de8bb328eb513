package embedding

import (
	"context"
	"math"
	"strings"
	"testing"
)

func TestWords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"fetchHTTPRequest", []string{"fetch", "http", "request"}},
		{"load_user_records(db)", []string{"load", "user", "record", "db"}},
		{"x = y + 1", []string{"x", "y", "1"}},
		{"", nil},
	}
	for _, tt := range tests {
		got := Words(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("Words(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Words(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestLocalEmbedder(t *testing.T) {
	e := NewLocalEmbedder(0)
	if e.Dimension() != DefaultLocalDimension {
		t.Fatalf("Dimension() = %d, want %d", e.Dimension(), DefaultLocalDimension)
	}

	texts := []string{
		"def load_users(db):\n    rows = db.query('users')\n    return [User(r) for r in rows]",
		"def load_orders(db):\n    rows = db.query('orders')\n    return [Order(r) for r in rows]",
		"func renderTemplate(w io.Writer, tmpl string) error { return nil }",
		"",
	}
	vecs, err := e.Embed(context.Background(), texts)
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("got %d vectors, want %d", len(vecs), len(texts))
	}
	for i, v := range vecs[:3] {
		if len(v) != DefaultLocalDimension {
			t.Errorf("vector %d has %d dims", i, len(v))
		}
		if n := math.Sqrt(dot(v, v)); math.Abs(n-1) > 1e-5 {
			t.Errorf("vector %d norm = %v, want 1", i, n)
		}
	}
	if n := dot(vecs[3], vecs[3]); n != 0 {
		t.Errorf("empty text should embed to the zero vector, norm %v", n)
	}

	similar := dot(vecs[0], vecs[1])
	different := dot(vecs[0], vecs[2])
	if similar <= different {
		t.Errorf("similar functions should be closer: %v <= %v", similar, different)
	}

	again, _ := e.Embed(context.Background(), texts[:1])
	for i := range again[0] {
		if again[0][i] != vecs[0][i] {
			t.Fatal("local embedder is not deterministic")
		}
	}
}

func TestLocalEmbedderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLocalEmbedder(8).Embed(ctx, []string{"a"}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestNewEmbedder(t *testing.T) {
	ctx := context.Background()

	e, err := NewEmbedder(ctx, Options{})
	if err != nil || e == nil || e.Name() != ProviderLocal {
		t.Errorf("default provider = %v, %v; want local", e, err)
	}
	e, err = NewEmbedder(ctx, Options{Provider: "none"})
	if err != nil || e != nil {
		t.Errorf("none provider = %v, %v; want nil, nil", e, err)
	}
	e, err = NewEmbedder(ctx, Options{Provider: "Ollama", Model: "m"})
	if err != nil || e.Name() != "ollama/m" {
		t.Errorf("ollama provider = %v, %v", e, err)
	}
	if _, err := NewEmbedder(ctx, Options{Provider: "gemini"}); err == nil {
		t.Error("gemini without API key should fail")
	}
	if _, err := NewEmbedder(ctx, Options{Provider: "word2vec"}); err == nil {
		t.Error("unknown provider should fail")
	}
}

func TestShape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"total = 0", "ID = NUM"},
		{"if item.price > 0:", "if ID . ID > NUM :"},
		{"return 'a' + \"b\"", "return STR + STR"},
		{"x = 1  # trailing note", "ID = NUM"},
		{"// comment line\nreturn nil", "return nil"},
		{"a // 2", "ID / / NUM"},
		{"f(/* skip */ y)", "ID ( ID )"},
		{`s = """doc "quoted" text"""`, "ID = STR"},
		{"", ""},
	}
	for _, tt := range tests {
		got := strings.Join(Shape(tt.in), " ")
		if got != tt.want {
			t.Errorf("Shape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLocalEmbedderIgnoresRenames(t *testing.T) {
	texts := []string{
		`def total_price(items):
    result = 0
    for item in items:
        if item.price > 0:
            result += item.price * item.quantity
    return result`,
		`def sum_cost(entries):
    acc = 0
    for entry in entries:
        if entry.price > 0:
            acc += entry.price * entry.quantity
    return acc`,
		`def render(template, context):
    with open(template) as handle:
        return handle.read().format(**context)`,
	}
	vecs, err := NewLocalEmbedder(0).Embed(context.Background(), texts)
	if err != nil {
		t.Fatal(err)
	}
	if got := dot(vecs[0], vecs[1]); got < 0.85 {
		t.Errorf("renamed copy similarity = %v, want >= 0.85", got)
	}
	if got := dot(vecs[0], vecs[2]); got >= 0.85 {
		t.Errorf("unrelated function similarity = %v, want < 0.85", got)
	}
}
