package arb

import (
	"errors"
	"testing"
)

func TestEnumerateRequiresTwoTokens(t *testing.T) {
	e := NewEnumerator(testGraph(), nil)

	iv := InputVec{TokensToArb: []TokenInArb{{Address: testKey(1).String(), Symbol: "SOL"}}}
	if _, err := e.Enumerate(iv, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEnumerate1HopParallelPools(t *testing.T) {
	sol := testKey(1)
	x := testKey(2)
	p1 := testPool(10, sol, x, 1000, 1000)
	p2 := testPool(11, sol, x, 2000, 2000)

	e := NewEnumerator(testGraph(p1, p2), nil)
	iv := InputVec{
		TokensToArb: []TokenInArb{
			{Address: sol.String(), Symbol: "SOL"},
			{Address: x.String(), Symbol: "X"},
		},
		Include1Hop:        true,
		NumbersOfBestPaths: 5,
	}

	paths, err := e.Enumerate(iv, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Two parallel pools give 2x2 directed pool pairings.
	if len(paths) != 4 {
		t.Fatalf("expected 4 one-hop cycles, got %d", len(paths))
	}
	for _, p := range paths {
		if len(p.Hops) != 2 {
			t.Fatalf("one-hop cycle must have 2 swaps, got %d", len(p.Hops))
		}
		if p.Hops[0].TokenIn != sol.String() || p.Hops[1].TokenOut != sol.String() {
			t.Fatalf("cycle %s does not start and end at the base token", p.ID())
		}
	}
}

func TestEnumerate2HopUsesBridging(t *testing.T) {
	sol := testKey(1)
	x := testKey(2)
	usdc := testKey(3)

	solUsdc := testPool(10, sol, usdc, 1000, 1000)
	usdcX := testPool(11, usdc, x, 1000, 1000)
	xSol := testPool(12, x, sol, 1000, 1000)

	e := NewEnumerator(testGraph(solUsdc, usdcX, xSol), nil)
	iv := InputVec{
		TokensToArb: []TokenInArb{
			{Address: sol.String(), Symbol: "SOL"},
			{Address: x.String(), Symbol: "X"},
		},
		Include2Hop:        true,
		NumbersOfBestPaths: 5,
	}

	paths, err := e.Enumerate(iv, []string{usdc.String()})
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, p := range paths {
		if len(p.Hops) != 3 {
			t.Fatalf("two-hop cycle must have 3 swaps, got %d", len(p.Hops))
		}
		if p.Hops[0].TokenOut == usdc.String() && p.Hops[1].TokenOut == x.String() {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a cycle bridging through the allow-listed token")
	}

	// Without the bridging token no intermediate connects base to target.
	none, err := e.Enumerate(iv, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no cycles without bridging, got %d", len(none))
	}
}

func TestEnumerateDeterministic(t *testing.T) {
	sol := testKey(1)
	x := testKey(2)
	pools := testGraph(
		testPool(12, sol, x, 1, 1),
		testPool(10, sol, x, 1, 1),
		testPool(11, sol, x, 1, 1),
	)

	e := NewEnumerator(pools, nil)
	iv := InputVec{
		TokensToArb: []TokenInArb{
			{Address: sol.String(), Symbol: "SOL"},
			{Address: x.String(), Symbol: "X"},
		},
		Include1Hop:        true,
		NumbersOfBestPaths: 5,
	}

	first, err := e.Enumerate(iv, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Enumerate(iv, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("path count differs between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID() != second[i].ID() {
			t.Fatalf("path order differs at %d: %s vs %s", i, first[i].ID(), second[i].ID())
		}
	}
}
