package embedding

import (
	"context"
	"strings"
	"testing"
)

func TestContentKey(t *testing.T) {
	a := ContentKey("local", "def f(): pass")
	if a != ContentKey("local", "def f(): pass") {
		t.Error("ContentKey is not stable")
	}
	if a == ContentKey("local", "def g(): pass") {
		t.Error("different text should give a different key")
	}
	if a == ContentKey("ollama/m", "def f(): pass") {
		t.Error("different provider should give a different key")
	}
	if !strings.HasPrefix(a, "local:") {
		t.Errorf("key %q should be prefixed with the provider", a)
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	vec := []float32{1, 2, 3}
	if err := c.Put(ctx, "k", vec); err != nil {
		t.Fatal(err)
	}
	vec[0] = 99

	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if got[0] != 1 {
		t.Error("cache should store a copy")
	}

	if err := c.Invalidate(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("invalidated key still present")
	}

	_ = c.Put(ctx, "a", vec)
	_ = c.Put(ctx, "b", vec)
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
}
