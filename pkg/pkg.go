package pkg

import (
	"context"

	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
)

// ProtocolName identifies the venue a pool belongs to
type ProtocolName string

// FeeConvention describes where a venue applies its trade fee relative to
// the pricing curve. Each pool variant declares its convention explicitly so
// the pricer never has to guess.
type FeeConvention uint8

const (
	// FeeOnInput deducts the fee from the input amount before the curve
	FeeOnInput FeeConvention = iota
	// FeeOnOutput applies the curve first and deducts the fee from the output
	FeeOnOutput
)

func (f FeeConvention) String() string {
	if f == FeeOnOutput {
		return "fee_on_output"
	}
	return "fee_on_input"
}

// Pool is an immutable reserve snapshot of one liquidity pool. Quoting is
// pure computation over the snapshot; refreshing state produces a new Pool
// value via ApplyAccountData rather than mutating the receiver, so concurrent
// pricing never observes a partial update.
type Pool interface {
	ProtocolName() ProtocolName
	GetProgramID() solana.PublicKey
	GetID() string
	GetTokens() (string, string)
	FeeConvention() FeeConvention

	// Reserve returns the snapshot balance held for mint, or zero when the
	// pool does not hold that mint.
	Reserve(mint string) math.Int

	// Decode parses the on-chain account layout into the pool during the
	// initial load.
	Decode(data []byte) error

	// AmountOut simulates a swap of amountIn units of inputMint against the
	// snapshot and returns the output amount in the opposite mint. A zero
	// reserve on the needed side yields zero output, not an error.
	AmountOut(inputMint string, amountIn math.Int) (math.Int, error)

	// MarginalAmountOut returns the output the same trade would receive at
	// the pool's instantaneous marginal price, fee applied per the venue
	// convention. Used as the price-impact reference.
	MarginalAmountOut(inputMint string, amountIn math.Int) (math.Int, error)

	// ApplyAccountData returns a new snapshot with the given account's state
	// replaced. The receiver is left untouched.
	ApplyAccountData(accountID string, data []byte) (Pool, error)

	// BuildSwapInstructions assembles the venue-specific swap instructions
	// for the transaction collaborator.
	BuildSwapInstructions(
		ctx context.Context,
		user solana.PublicKey,
		inputMint string,
		inputAmount math.Int,
		minOutputAmount math.Int,
		userInAccount solana.PublicKey,
		userOutAccount solana.PublicKey,
	) ([]solana.Instruction, error)
}

// Protocol loads pools for one venue program from chain state.
type Protocol interface {
	ProtocolName() ProtocolName
	FetchPoolsByPair(ctx context.Context, baseMint, quoteMint string) ([]Pool, error)
	FetchPoolByID(ctx context.Context, poolID string) (Pool, error)
}
