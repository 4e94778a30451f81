package arb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	cosmath "cosmossdk.io/math"
)

type memFiles struct {
	writes map[string]VecSwapPathSelected
}

func newMemFiles() *memFiles {
	return &memFiles{writes: make(map[string]VecSwapPathSelected)}
}

func (m *memFiles) WriteVec(name string, vec VecSwapPathSelected) (string, error) {
	m.writes[name] = vec
	return name + ".json", nil
}

type memDocs struct {
	inserts []VecSwapPathSelected
}

func (m *memDocs) InsertVec(ctx context.Context, collection string, vec VecSwapPathSelected) error {
	m.inserts = append(m.inserts, vec)
	return nil
}

type failingFiles struct{}

func (failingFiles) WriteVec(name string, vec VecSwapPathSelected) (string, error) {
	return "", fmt.Errorf("disk full")
}

func resultWith(poolID byte, profit int64, impactBps int64) SwapPathResult {
	amountIn := cosmath.NewInt(1000)
	return SwapPathResult{
		Path: SwapPath{
			BaseToken: testKey(1).String(),
			Hops: []Hop{
				{PoolID: testKey(poolID).String(), TokenIn: testKey(1).String(), TokenOut: testKey(2).String()},
				{PoolID: testKey(poolID + 1).String(), TokenIn: testKey(2).String(), TokenOut: testKey(1).String()},
			},
		},
		AmountIn:  amountIn,
		AmountOut: amountIn.Add(cosmath.NewInt(profit)),
		Profit:    cosmath.NewInt(profit),
		HopAmounts: []HopAmount{
			{AmountIn: amountIn, AmountOut: amountIn, PriceImpactBps: impactBps},
			{AmountIn: amountIn, AmountOut: amountIn.Add(cosmath.NewInt(profit))},
		},
	}
}

func TestSelectTopKByProfit(t *testing.T) {
	files := newMemFiles()
	docs := &memDocs{}
	s := NewSelector(files, docs, "strategies", nil)

	results := []SwapPathResult{
		resultWith(10, 5, 0),
		resultWith(20, 100, 0),
		resultWith(30, 1, 0),
	}

	vec, path, err := s.Select(context.Background(), "SOL-X", results, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(vec.Value) != 2 {
		t.Fatalf("expected 2 selected, got %d", len(vec.Value))
	}
	if !vec.Value[0].Result.Profit.Equal(cosmath.NewInt(100)) {
		t.Fatalf("best profit = %s, want 100", vec.Value[0].Result.Profit)
	}
	if !vec.Value[1].Result.Profit.Equal(cosmath.NewInt(5)) {
		t.Fatalf("second profit = %s, want 5", vec.Value[1].Result.Profit)
	}

	if path != "SOL-X.json" {
		t.Fatalf("unexpected file path %q", path)
	}
	if len(files.writes) != 1 || len(docs.inserts) != 1 {
		t.Fatalf("expected exactly one write per sink, got %d/%d", len(files.writes), len(docs.inserts))
	}
}

func TestSelectDropsUnprofitable(t *testing.T) {
	s := NewSelector(newMemFiles(), nil, "strategies", nil)

	results := []SwapPathResult{
		resultWith(10, 50, 0),
		resultWith(20, 0, 0),
		resultWith(30, -25, 0),
	}

	vec, _, err := s.Select(context.Background(), "SOL-X", results, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(vec.Value) != 1 {
		t.Fatalf("expected only the profitable path, got %d entries", len(vec.Value))
	}
}

func TestSelectTieBreakByImpact(t *testing.T) {
	s := NewSelector(newMemFiles(), nil, "strategies", nil)

	results := []SwapPathResult{
		resultWith(10, 50, 300),
		resultWith(20, 50, 100),
	}

	vec, _, err := s.Select(context.Background(), "SOL-X", results, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if vec.Value[0].Result.AggregateImpactBps() != 100 {
		t.Fatalf("tie must break toward lower impact, got %d bps first", vec.Value[0].Result.AggregateImpactBps())
	}
}

func TestSelectIdempotent(t *testing.T) {
	results := []SwapPathResult{
		resultWith(10, 50, 200),
		resultWith(20, 50, 200),
		resultWith(30, 80, 0),
	}

	s := NewSelector(newMemFiles(), nil, "strategies", nil)
	first, _, err := s.Select(context.Background(), "SOL-X", results, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := s.Select(context.Background(), "SOL-X", results, 3, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(first.Value) != len(second.Value) {
		t.Fatalf("selection size differs: %d vs %d", len(first.Value), len(second.Value))
	}
	for i := range first.Value {
		if first.Value[i].Result.Path.ID() != second.Value[i].Result.Path.ID() {
			t.Fatalf("selection order differs at %d", i)
		}
	}
}

func TestSelectRejectsNonPositiveK(t *testing.T) {
	s := NewSelector(newMemFiles(), nil, "strategies", nil)
	_, _, err := s.Select(context.Background(), "SOL-X", nil, 0, nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSelectBridgeRestriction(t *testing.T) {
	allowed := testKey(5).String()
	blocked := testKey(6).String()

	viaAllowed := resultWith(10, 50, 0)
	viaAllowed.Path.Hops = append(viaAllowed.Path.Hops, viaAllowed.Path.Hops[1])
	viaAllowed.Path.Hops[0].TokenOut = allowed
	viaAllowed.HopAmounts = append(viaAllowed.HopAmounts, viaAllowed.HopAmounts[1])

	viaBlocked := resultWith(20, 90, 0)
	viaBlocked.Path.Hops = append(viaBlocked.Path.Hops, viaBlocked.Path.Hops[1])
	viaBlocked.Path.Hops[0].TokenOut = blocked
	viaBlocked.HopAmounts = append(viaBlocked.HopAmounts, viaBlocked.HopAmounts[1])

	s := NewSelector(newMemFiles(), nil, "strategies", nil)
	vec, _, err := s.Select(context.Background(), "SOL-X", []SwapPathResult{viaAllowed, viaBlocked}, 5, []string{allowed})
	if err != nil {
		t.Fatal(err)
	}
	if len(vec.Value) != 1 {
		t.Fatalf("expected 1 path after bridge filter, got %d", len(vec.Value))
	}
	if vec.Value[0].Result.Path.Hops[0].TokenOut != allowed {
		t.Fatalf("kept the wrong path")
	}
}

func TestSelectPersistenceFailureKeepsSelection(t *testing.T) {
	s := NewSelector(failingFiles{}, nil, "strategies", nil)

	vec, _, err := s.Select(context.Background(), "SOL-X", []SwapPathResult{resultWith(10, 50, 0)}, 1, nil)
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if len(vec.Value) != 1 {
		t.Fatalf("in-memory selection must survive a persistence failure")
	}
}
