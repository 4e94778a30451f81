package arb

import (
	"context"
	"errors"
	"testing"
	"time"
)

func selectedVec(strategy string, poolIDs ...byte) VecSwapPathSelected {
	vec := VecSwapPathSelected{}
	for _, id := range poolIDs {
		vec.Value = append(vec.Value, SwapPathSelected{
			Strategy:  strategy,
			CreatedAt: time.Unix(1700000000, 0).UTC(),
			Result:    resultWith(id, int64(id), 0),
		})
	}
	return vec
}

func TestMergedName(t *testing.T) {
	got := MergedName([]string{"SOL-SOLLY", "SOL-SPIKE"})
	want := "0-SOL-SOLLY-1-SOL-SPIKE"
	if got != want {
		t.Fatalf("merged name = %q, want %q", got, want)
	}
}

func TestMergePreservesOrder(t *testing.T) {
	files := newMemFiles()
	docs := &memDocs{}
	a := NewAggregator(files, docs, "strategies", nil)

	v1 := selectedVec("SOL-SOLLY", 10, 11)
	v2 := selectedVec("SOL-SPIKE", 20)

	merged, path, err := a.Merge(context.Background(), []string{"SOL-SOLLY", "SOL-SPIKE"}, []VecSwapPathSelected{v1, v2})
	if err != nil {
		t.Fatal(err)
	}

	if len(merged.Value) != 3 {
		t.Fatalf("expected 3 merged entries, got %d", len(merged.Value))
	}
	wantOrder := []string{"SOL-SOLLY", "SOL-SOLLY", "SOL-SPIKE"}
	for i, sel := range merged.Value {
		if sel.Strategy != wantOrder[i] {
			t.Fatalf("entry %d from %q, want %q", i, sel.Strategy, wantOrder[i])
		}
	}
	if path != "0-SOL-SOLLY-1-SOL-SPIKE.json" {
		t.Fatalf("unexpected merged file %q", path)
	}
	if len(docs.inserts) != 1 {
		t.Fatalf("expected one document insert, got %d", len(docs.inserts))
	}
}

func TestMergeAssociativeByConcatenation(t *testing.T) {
	a := NewAggregator(nil, nil, "strategies", nil)

	v1 := selectedVec("A", 10)
	v2 := selectedVec("B", 20)
	v3 := selectedVec("C", 30)

	all, _, err := a.Merge(context.Background(), []string{"A", "B", "C"}, []VecSwapPathSelected{v1, v2, v3})
	if err != nil {
		t.Fatal(err)
	}

	left, _, err := a.Merge(context.Background(), []string{"A", "B"}, []VecSwapPathSelected{v1, v2})
	if err != nil {
		t.Fatal(err)
	}
	stepwise, _, err := a.Merge(context.Background(), []string{"AB", "C"}, []VecSwapPathSelected{left, v3})
	if err != nil {
		t.Fatal(err)
	}

	if len(all.Value) != len(stepwise.Value) {
		t.Fatalf("grouping changed the merge size: %d vs %d", len(all.Value), len(stepwise.Value))
	}
	for i := range all.Value {
		if all.Value[i].Result.Path.ID() != stepwise.Value[i].Result.Path.ID() {
			t.Fatalf("grouping changed the merge order at %d", i)
		}
	}
}

func TestMergeValidation(t *testing.T) {
	a := NewAggregator(nil, nil, "strategies", nil)

	if _, _, err := a.Merge(context.Background(), []string{"A"}, []VecSwapPathSelected{selectedVec("A", 10)}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("single input must be rejected, got %v", err)
	}
	if _, _, err := a.Merge(context.Background(), []string{"A"}, []VecSwapPathSelected{selectedVec("A", 10), selectedVec("B", 20)}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("name/selection mismatch must be rejected, got %v", err)
	}
}
