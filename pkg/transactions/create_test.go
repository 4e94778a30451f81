package transactions

import (
	"testing"

	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
)

func TestApplySlippage(t *testing.T) {
	cases := []struct {
		amount      int64
		slippageBps int64
		want        int64
	}{
		{10_000, 50, 9_950},
		{10_000, 0, 10_000},
		{3, 50, 2},
		{0, 50, 0},
	}

	for _, tc := range cases {
		got := applySlippage(cosmath.NewInt(tc.amount), tc.slippageBps)
		if !got.Equal(cosmath.NewInt(tc.want)) {
			t.Fatalf("applySlippage(%d, %d) = %s, want %d", tc.amount, tc.slippageBps, got, tc.want)
		}
	}
}

func TestApplySlippageNilAmount(t *testing.T) {
	if !applySlippage(cosmath.Int{}, 50).IsZero() {
		t.Fatalf("nil amount must map to zero")
	}
}

func TestUserTokenAccountRejectsBadMint(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	if _, err := userTokenAccount(owner, "not-a-mint"); err == nil {
		t.Fatalf("invalid mint must be rejected")
	}
}

func TestUserTokenAccountDerivesAssociatedAccount(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	first, err := userTokenAccount(owner, mint.String())
	if err != nil {
		t.Fatal(err)
	}
	second, err := userTokenAccount(owner, mint.String())
	if err != nil {
		t.Fatal(err)
	}
	if !first.Equals(second) {
		t.Fatalf("derivation must be deterministic")
	}
	if first.Equals(owner) || first.Equals(mint) {
		t.Fatalf("derived account must differ from its inputs")
	}
}
