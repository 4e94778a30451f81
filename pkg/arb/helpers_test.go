package arb

import (
	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"

	"solarb/pkg"
	"solarb/pkg/market"
	"solarb/pkg/pool/cpmm"
)

func testKey(b byte) solana.PublicKey {
	var k solana.PublicKey
	for i := range k {
		k[i] = b
	}
	return k
}

func testPool(id byte, mintA, mintB solana.PublicKey, reserveA, reserveB int64) *cpmm.Pool {
	return &cpmm.Pool{
		MintA:         mintA,
		MintB:         mintB,
		TokenAccountA: testKey(id + 100),
		TokenAccountB: testKey(id + 150),
		PoolId:        testKey(id),
		ReserveA:      cosmath.NewInt(reserveA),
		ReserveB:      cosmath.NewInt(reserveB),
	}
}

func testGraph(pools ...pkg.Pool) *market.Graph {
	return market.Build(pools)
}

// poolMap is a fixed PoolSource for pricing against hand-built snapshots.
type poolMap map[string]pkg.Pool

func (m poolMap) Pool(id string) (pkg.Pool, bool) {
	p, ok := m[id]
	return p, ok
}

func poolsOf(pools ...pkg.Pool) poolMap {
	m := make(poolMap, len(pools))
	for _, p := range pools {
		m[p.GetID()] = p
	}
	return m
}

// cycle builds the 1-hop path base→target on first, target→base on second.
func cycle(base, target string, first, second pkg.Pool) SwapPath {
	return SwapPath{
		BaseToken: base,
		Hops: []Hop{
			{PoolID: first.GetID(), Venue: string(first.ProtocolName()), TokenIn: base, TokenOut: target},
			{PoolID: second.GetID(), Venue: string(second.ProtocolName()), TokenIn: target, TokenOut: base},
		},
	}
}
