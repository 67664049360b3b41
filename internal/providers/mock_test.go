package providers

import (
	"context"
	"testing"
)

func TestMockEmbedDeterministic(t *testing.T) {
	m := NewMock(16)
	a, err := m.Embed(context.Background(), "same input")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := m.Embed(context.Background(), "same input")
	c, _ := m.Embed(context.Background(), "different input")
	if len(a) != 16 {
		t.Fatalf("expected 16-dim vector, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same input should embed identically")
		}
	}
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different inputs should not embed identically")
	}
}

func TestMockEmbedManyPreservesOrder(t *testing.T) {
	m := NewMock(8)
	vecs, err := m.EmbedMany(context.Background(), []string{"x", "y"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	x, _ := m.Embed(context.Background(), "x")
	if vecs[0][0] != x[0] {
		t.Fatal("EmbedMany should preserve input order")
	}
}
