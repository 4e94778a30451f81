package clmm

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"

	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
	"solarb/pkg"
)

// Pool is a concentrated-liquidity pool snapshot (Whirlpool layout). Quoting
// uses the virtual reserves implied by the active liquidity and the Q64.64
// sqrt price, which is exact while the trade stays inside the current tick.
type Pool struct {
	WhirlpoolsConfig solana.PublicKey
	WhirlpoolBump    uint8
	TickSpacing      uint16
	FeeRate          uint16
	ProtocolFeeRate  uint16
	Liquidity        uint128.Uint128
	SqrtPrice        uint128.Uint128
	TickCurrentIndex int32
	TokenMintA       solana.PublicKey
	TokenVaultA      solana.PublicKey
	TokenMintB       solana.PublicKey
	TokenVaultB      solana.PublicKey

	PoolId solana.PublicKey
}

func (p *Pool) ProtocolName() pkg.ProtocolName {
	return pkg.ProtocolName("whirlpool")
}

func (p *Pool) GetProgramID() solana.PublicKey {
	return WhirlpoolProgramID
}

func (p *Pool) GetID() string {
	return p.PoolId.String()
}

func (p *Pool) GetTokens() (string, string) {
	return p.TokenMintA.String(), p.TokenMintB.String()
}

func (p *Pool) FeeConvention() pkg.FeeConvention {
	return pkg.FeeOnInput
}

// virtualReserves derives the constant-product reserves equivalent to the
// active liquidity at the current sqrt price:
// reserveA = L << 64 / sqrtP, reserveB = L * sqrtP >> 64.
func (p *Pool) virtualReserves() (reserveA, reserveB cosmath.Int) {
	if p.Liquidity.IsZero() || p.SqrtPrice.IsZero() {
		return cosmath.ZeroInt(), cosmath.ZeroInt()
	}

	liquidity := p.Liquidity.Big()
	sqrtPrice := p.SqrtPrice.Big()

	a := new(big.Int).Lsh(liquidity, 64)
	a.Quo(a, sqrtPrice)

	b := new(big.Int).Mul(liquidity, sqrtPrice)
	b.Rsh(b, 64)

	return cosmath.NewIntFromBigInt(a), cosmath.NewIntFromBigInt(b)
}

func (p *Pool) Reserve(mint string) cosmath.Int {
	reserveA, reserveB := p.virtualReserves()
	switch mint {
	case p.TokenMintA.String():
		return reserveA
	case p.TokenMintB.String():
		return reserveB
	}
	return cosmath.ZeroInt()
}

func (p *Pool) Decode(data []byte) error {
	if len(data) < poolAccountMinSize {
		return fmt.Errorf("data too short for whirlpool account: got %d bytes", len(data))
	}

	// Skip the 8-byte anchor discriminator
	offset := 8

	copy(p.WhirlpoolsConfig[:], data[offset:offset+32])
	offset += 32
	p.WhirlpoolBump = data[offset]
	offset++

	p.TickSpacing = binary.LittleEndian.Uint16(data[offset : offset+2])
	offset += 2
	// tick spacing seed
	offset += 2

	p.FeeRate = binary.LittleEndian.Uint16(data[offset : offset+2])
	offset += 2
	p.ProtocolFeeRate = binary.LittleEndian.Uint16(data[offset : offset+2])
	offset += 2

	p.Liquidity = uint128.FromBytes(data[offset : offset+16])
	offset += 16
	p.SqrtPrice = uint128.FromBytes(data[offset : offset+16])
	offset += 16

	p.TickCurrentIndex = int32(binary.LittleEndian.Uint32(data[offset : offset+4]))
	offset += 4

	// protocol fees owed A/B
	offset += 16

	copy(p.TokenMintA[:], data[offset:offset+32])
	offset += 32
	copy(p.TokenVaultA[:], data[offset:offset+32])
	offset += 32
	// fee growth global A
	offset += 16

	copy(p.TokenMintB[:], data[offset:offset+32])
	offset += 32
	copy(p.TokenVaultB[:], data[offset:offset+32])

	return nil
}

func (p *Pool) direction(inputMint string) (reserveIn, reserveOut cosmath.Int, err error) {
	reserveA, reserveB := p.virtualReserves()
	switch inputMint {
	case p.TokenMintA.String():
		return reserveA, reserveB, nil
	case p.TokenMintB.String():
		return reserveB, reserveA, nil
	}
	return cosmath.Int{}, cosmath.Int{}, fmt.Errorf("mint %s not held by pool %s", inputMint, p.GetID())
}

func (p *Pool) applyFee(amount cosmath.Int) cosmath.Int {
	fee := amount.MulRaw(int64(p.FeeRate)).QuoRaw(feeRateDenominator)
	return amount.Sub(fee)
}

func (p *Pool) AmountOut(inputMint string, amountIn cosmath.Int) (cosmath.Int, error) {
	reserveIn, reserveOut, err := p.direction(inputMint)
	if err != nil {
		return cosmath.ZeroInt(), err
	}
	if amountIn.IsZero() || reserveIn.IsZero() || reserveOut.IsZero() {
		return cosmath.ZeroInt(), nil
	}

	amountInWithFee := p.applyFee(amountIn)

	denominator := reserveIn.Add(amountInWithFee)
	amountOut := reserveOut.Mul(amountInWithFee).Quo(denominator)

	return amountOut, nil
}

func (p *Pool) MarginalAmountOut(inputMint string, amountIn cosmath.Int) (cosmath.Int, error) {
	reserveIn, reserveOut, err := p.direction(inputMint)
	if err != nil {
		return cosmath.ZeroInt(), err
	}
	if amountIn.IsZero() || reserveIn.IsZero() || reserveOut.IsZero() {
		return cosmath.ZeroInt(), nil
	}

	amountInWithFee := p.applyFee(amountIn)
	return amountInWithFee.Mul(reserveOut).Quo(reserveIn), nil
}

func (p *Pool) ApplyAccountData(accountID string, data []byte) (pkg.Pool, error) {
	if accountID != p.PoolId.String() {
		return nil, fmt.Errorf("account %s does not belong to pool %s", accountID, p.GetID())
	}

	next := *p
	if err := next.Decode(data); err != nil {
		return nil, err
	}
	return &next, nil
}

// SetState returns a copy of the pool with the given liquidity and sqrt price.
func (p *Pool) SetState(liquidity, sqrtPrice uint128.Uint128) *Pool {
	next := *p
	next.Liquidity = liquidity
	next.SqrtPrice = sqrtPrice
	return &next
}

// currentTickArrayStart returns the start index of the tick array containing
// the current tick.
func (p *Pool) currentTickArrayStart() (int32, error) {
	if p.TickSpacing == 0 {
		return 0, fmt.Errorf("pool %s has zero tick spacing", p.GetID())
	}
	span := int32(p.TickSpacing) * ticksPerArray
	start := p.TickCurrentIndex / span * span
	if p.TickCurrentIndex < 0 && p.TickCurrentIndex%span != 0 {
		start -= span
	}
	return start, nil
}

func (p *Pool) BuildSwapInstructions(
	ctx context.Context,
	user solana.PublicKey,
	inputMint string,
	inputAmount cosmath.Int,
	minOutputAmount cosmath.Int,
	userInAccount solana.PublicKey,
	userOutAccount solana.PublicKey,
) ([]solana.Instruction, error) {
	aToB := inputMint == p.TokenMintA.String()

	startTick, err := p.currentTickArrayStart()
	if err != nil {
		return nil, err
	}
	tickArray, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("tick_array"), p.PoolId.Bytes(), []byte(fmt.Sprintf("%d", startTick))},
		WhirlpoolProgramID,
	)
	if err != nil {
		return nil, fmt.Errorf("derive tick array: %w", err)
	}

	oracle, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("oracle"), p.PoolId.Bytes()},
		WhirlpoolProgramID,
	)
	if err != nil {
		return nil, fmt.Errorf("derive oracle: %w", err)
	}

	// swap(amount, otherAmountThreshold, sqrtPriceLimit, amountSpecifiedIsInput, aToB)
	data := make([]byte, 8+8+8+16+1+1)
	copy(data[0:8], swapDiscriminator[:])
	binary.LittleEndian.PutUint64(data[8:16], inputAmount.Uint64())
	binary.LittleEndian.PutUint64(data[16:24], minOutputAmount.Uint64())

	sqrtPriceLimit := maxSqrtPrice
	if aToB {
		sqrtPriceLimit = minSqrtPrice
	}
	sqrtPriceLimit.PutBytes(data[24:40])

	if aToB {
		data[41] = 1
	}
	data[40] = 1 // amount specified is the input

	userAccountA, userAccountB := userInAccount, userOutAccount
	if !aToB {
		userAccountA, userAccountB = userOutAccount, userInAccount
	}

	accounts := solana.AccountMetaSlice{
		solana.Meta(solana.TokenProgramID),
		solana.Meta(user).SIGNER(),
		solana.Meta(p.PoolId).WRITE(),
		solana.Meta(userAccountA).WRITE(),
		solana.Meta(p.TokenVaultA).WRITE(),
		solana.Meta(userAccountB).WRITE(),
		solana.Meta(p.TokenVaultB).WRITE(),
		solana.Meta(tickArray).WRITE(),
		solana.Meta(tickArray).WRITE(),
		solana.Meta(tickArray).WRITE(),
		solana.Meta(oracle),
	}

	return []solana.Instruction{
		solana.NewInstruction(WhirlpoolProgramID, accounts, data),
	}, nil
}
