package stable

import (
	"encoding/binary"
	"testing"

	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
)

func testKey(b byte) solana.PublicKey {
	var k solana.PublicKey
	for i := range k {
		k[i] = b
	}
	return k
}

func testPool(amp uint64, reserveA, reserveB int64, feeNum, feeDen uint64) *Pool {
	return &Pool{
		IsInitialized:       true,
		AmpFactor:           amp,
		MintA:               testKey(1),
		MintB:               testKey(2),
		TokenAccountA:       testKey(3),
		TokenAccountB:       testKey(4),
		TradeFeeNumerator:   feeNum,
		TradeFeeDenominator: feeDen,
		PoolId:              testKey(9),
		ReserveA:            cosmath.NewInt(reserveA),
		ReserveB:            cosmath.NewInt(reserveB),
	}
}

func TestDecode(t *testing.T) {
	data := make([]byte, swapInfoAccountSize)
	data[0] = 1 // initialized
	data[1] = 0 // not paused
	data[2] = 252

	binary.LittleEndian.PutUint64(data[3:11], 50)   // initial amp, unused
	binary.LittleEndian.PutUint64(data[11:19], 100) // target amp

	offset := 19 + 24 + 32 // ramp window, future admin
	keys := []solana.PublicKey{
		testKey(10), // admin
		testKey(11), // vault A
		testKey(12), // mint A
		testKey(13), // admin fee A
		testKey(14), // vault B
		testKey(15), // mint B
		testKey(16), // admin fee B
		testKey(17), // pool mint
	}
	for _, k := range keys {
		copy(data[offset:offset+32], k[:])
		offset += 32
	}
	// the admin fees lead the fees block; the trade fee follows them
	binary.LittleEndian.PutUint64(data[offset:offset+8], 1_000)      // admin trade numerator
	binary.LittleEndian.PutUint64(data[offset+8:offset+16], 10_000)  // admin trade denominator
	binary.LittleEndian.PutUint64(data[offset+16:offset+24], 2_000)  // admin withdraw numerator
	binary.LittleEndian.PutUint64(data[offset+24:offset+32], 10_000) // admin withdraw denominator
	binary.LittleEndian.PutUint64(data[offset+32:offset+40], 4)      // trade fee numerator
	binary.LittleEndian.PutUint64(data[offset+40:offset+48], 10_000) // trade fee denominator

	p := &Pool{}
	if err := p.Decode(data); err != nil {
		t.Fatal(err)
	}

	if !p.IsInitialized || p.IsPaused || p.Nonce != 252 {
		t.Fatalf("header misparsed: init=%v paused=%v nonce=%d", p.IsInitialized, p.IsPaused, p.Nonce)
	}
	if p.AmpFactor != 100 {
		t.Fatalf("amp = %d, want the target value 100", p.AmpFactor)
	}
	if p.TokenAccountA != testKey(11) || p.MintA != testKey(12) {
		t.Fatalf("side A misparsed")
	}
	if p.TokenAccountB != testKey(14) || p.MintB != testKey(15) {
		t.Fatalf("side B misparsed")
	}
	if p.TradeFeeNumerator != 4 || p.TradeFeeDenominator != 10_000 {
		t.Fatalf("fee = %d/%d", p.TradeFeeNumerator, p.TradeFeeDenominator)
	}
}

func TestBalancedPoolTradesNearParity(t *testing.T) {
	p := testPool(100, 1_000_000, 1_000_000, 0, 0)

	in := cosmath.NewInt(10_000)
	out, err := p.AmountOut(p.MintA.String(), in)
	if err != nil {
		t.Fatal(err)
	}

	// The stable curve holds a balanced pool close to 1:1 for a trade of 1%
	// of the reserves.
	if out.GT(in) {
		t.Fatalf("out %s exceeds in %s", out, in)
	}
	if out.LT(cosmath.NewInt(9_900)) {
		t.Fatalf("out %s strays too far from parity", out)
	}
}

func TestHigherAmpTightensThePeg(t *testing.T) {
	in := cosmath.NewInt(50_000)

	loose, err := testPool(1, 1_000_000, 1_000_000, 0, 0).AmountOut(testKey(1).String(), in)
	if err != nil {
		t.Fatal(err)
	}
	tight, err := testPool(1000, 1_000_000, 1_000_000, 0, 0).AmountOut(testKey(1).String(), in)
	if err != nil {
		t.Fatal(err)
	}

	if !tight.GT(loose) {
		t.Fatalf("amp 1000 out %s must beat amp 1 out %s", tight, loose)
	}
}

func TestFeeAppliedToOutput(t *testing.T) {
	in := cosmath.NewInt(10_000)

	gross, err := testPool(100, 1_000_000, 1_000_000, 0, 0).AmountOut(testKey(1).String(), in)
	if err != nil {
		t.Fatal(err)
	}
	net, err := testPool(100, 1_000_000, 1_000_000, 100, 10_000).AmountOut(testKey(1).String(), in)
	if err != nil {
		t.Fatal(err)
	}

	fee := gross.MulRaw(100).QuoRaw(10_000)
	if !net.Equal(gross.Sub(fee)) {
		t.Fatalf("net %s, want gross %s minus fee %s", net, gross, fee)
	}
}

func TestAmountOutZeroReserve(t *testing.T) {
	p := testPool(100, 1_000_000, 0, 0, 0)
	out, err := p.AmountOut(p.MintA.String(), cosmath.NewInt(100))
	if err != nil {
		t.Fatal(err)
	}
	if !out.IsZero() {
		t.Fatalf("zero reserve must quote zero, got %s", out)
	}
}

func TestApplyAccountDataReturnsNewSnapshot(t *testing.T) {
	p := testPool(100, 1_000_000, 1_000_000, 0, 0)

	data := make([]byte, 165)
	binary.LittleEndian.PutUint64(data[tokenAccountAmountOffset:tokenAccountAmountOffset+8], 777)

	next, err := p.ApplyAccountData(p.TokenAccountB.String(), data)
	if err != nil {
		t.Fatal(err)
	}
	if !p.ReserveB.Equal(cosmath.NewInt(1_000_000)) {
		t.Fatalf("receiver mutated: reserve = %s", p.ReserveB)
	}
	if !next.Reserve(p.MintB.String()).Equal(cosmath.NewInt(777)) {
		t.Fatalf("new snapshot reserve = %s, want 777", next.Reserve(p.MintB.String()))
	}
}
