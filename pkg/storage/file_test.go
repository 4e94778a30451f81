package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	cosmath "cosmossdk.io/math"

	"solarb/pkg/arb"
)

func sampleVec() arb.VecSwapPathSelected {
	return arb.VecSwapPathSelected{Value: []arb.SwapPathSelected{{
		Strategy:  "SOL-SPIKE",
		CreatedAt: time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC),
		Result: arb.SwapPathResult{
			Path: arb.SwapPath{
				BaseToken: "So11111111111111111111111111111111111111112",
				Hops: []arb.Hop{
					{PoolID: "pool-1", Venue: "spl_token_swap", TokenIn: "SOL", TokenOut: "SPIKE"},
					{PoolID: "pool-2", Venue: "saber", TokenIn: "SPIKE", TokenOut: "SOL"},
				},
			},
			AmountIn:  cosmath.NewInt(3_500_000_000),
			AmountOut: cosmath.NewInt(3_500_100_000),
			Profit:    cosmath.NewInt(100_000),
			ProfitBps: 2,
			HopAmounts: []arb.HopAmount{
				{AmountIn: cosmath.NewInt(3_500_000_000), AmountOut: cosmath.NewInt(7_000_000_000), PriceImpactBps: 12},
				{AmountIn: cosmath.NewInt(7_000_000_000), AmountOut: cosmath.NewInt(3_500_100_000), PriceImpactBps: 9},
			},
		},
	}}}
}

func TestWriteReadRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())
	vec := sampleVec()

	path, err := store.WriteVec("SOL-SPIKE", vec)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "SOL-SPIKE.json" {
		t.Fatalf("unexpected file name %q", filepath.Base(path))
	}

	got, err := store.ReadVec(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(got.Value) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got.Value))
	}
	want := vec.Value[0]
	sel := got.Value[0]
	if sel.Strategy != want.Strategy {
		t.Fatalf("strategy = %q", sel.Strategy)
	}
	if !sel.CreatedAt.Equal(want.CreatedAt) {
		t.Fatalf("timestamp = %s, want %s", sel.CreatedAt, want.CreatedAt)
	}
	if sel.Result.Path.ID() != want.Result.Path.ID() {
		t.Fatalf("path = %q", sel.Result.Path.ID())
	}
	if !sel.Result.Profit.Equal(want.Result.Profit) {
		t.Fatalf("profit = %s, want %s", sel.Result.Profit, want.Result.Profit)
	}
	if len(sel.Result.HopAmounts) != 2 || sel.Result.HopAmounts[0].PriceImpactBps != 12 {
		t.Fatalf("hop amounts misread")
	}
}

func TestFileSchemaHasValueKey(t *testing.T) {
	store := NewFileStore(t.TempDir())

	path, err := store.WriteVec("schema", sampleVec())
	if err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	if _, ok := doc["value"]; !ok {
		t.Fatalf("strategy file must wrap entries under \"value\"")
	}
}

func TestReadMissingFile(t *testing.T) {
	store := NewFileStore(t.TempDir())
	if _, err := store.ReadVec(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatalf("missing file must error")
	}
}
