package cpmm

import (
	"context"
	"encoding/binary"
	"fmt"

	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"solarb/pkg"
)

// Pool is a constant-product pool snapshot (SPL Token Swap layout).
// The fee is deducted from the input before the curve.
type Pool struct {
	Version        uint8
	IsInitialized  bool
	Nonce          uint8
	TokenProgramId solana.PublicKey
	TokenAccountA  solana.PublicKey
	TokenAccountB  solana.PublicKey
	TokenPool      solana.PublicKey
	MintA          solana.PublicKey
	MintB          solana.PublicKey
	FeeAccount     solana.PublicKey

	TradeFeeNumerator   uint64
	TradeFeeDenominator uint64

	PoolId solana.PublicKey

	// Reserve snapshot (vault balances at load/update time)
	ReserveA cosmath.Int
	ReserveB cosmath.Int
}

func (p *Pool) ProtocolName() pkg.ProtocolName {
	return pkg.ProtocolName("spl_token_swap")
}

func (p *Pool) GetProgramID() solana.PublicKey {
	return TokenSwapProgramID
}

func (p *Pool) GetID() string {
	return p.PoolId.String()
}

func (p *Pool) GetTokens() (string, string) {
	return p.MintA.String(), p.MintB.String()
}

func (p *Pool) FeeConvention() pkg.FeeConvention {
	return pkg.FeeOnInput
}

func (p *Pool) Reserve(mint string) cosmath.Int {
	switch mint {
	case p.MintA.String():
		if p.ReserveA.IsNil() {
			return cosmath.ZeroInt()
		}
		return p.ReserveA
	case p.MintB.String():
		if p.ReserveB.IsNil() {
			return cosmath.ZeroInt()
		}
		return p.ReserveB
	}
	return cosmath.ZeroInt()
}

func (p *Pool) Decode(data []byte) error {
	if len(data) < poolAccountSize {
		return fmt.Errorf("data too short for token swap pool: got %d bytes", len(data))
	}

	offset := 0

	p.Version = data[offset]
	offset++
	p.IsInitialized = data[offset] == 1
	offset++
	p.Nonce = data[offset]
	offset++

	copy(p.TokenProgramId[:], data[offset:offset+32])
	offset += 32

	copy(p.TokenAccountA[:], data[offset:offset+32])
	offset += 32
	copy(p.TokenAccountB[:], data[offset:offset+32])
	offset += 32

	copy(p.TokenPool[:], data[offset:offset+32])
	offset += 32

	copy(p.MintA[:], data[offset:offset+32])
	offset += 32
	copy(p.MintB[:], data[offset:offset+32])
	offset += 32

	copy(p.FeeAccount[:], data[offset:offset+32])
	offset += 32

	p.TradeFeeNumerator = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8
	p.TradeFeeDenominator = binary.LittleEndian.Uint64(data[offset : offset+8])

	if p.ReserveA.IsNil() {
		p.ReserveA = cosmath.ZeroInt()
	}
	if p.ReserveB.IsNil() {
		p.ReserveB = cosmath.ZeroInt()
	}

	return nil
}

// direction resolves the in/out reserves for the given input mint.
func (p *Pool) direction(inputMint string) (reserveIn, reserveOut cosmath.Int, err error) {
	switch inputMint {
	case p.MintA.String():
		return p.Reserve(p.MintA.String()), p.Reserve(p.MintB.String()), nil
	case p.MintB.String():
		return p.Reserve(p.MintB.String()), p.Reserve(p.MintA.String()), nil
	}
	return cosmath.Int{}, cosmath.Int{}, fmt.Errorf("mint %s not held by pool %s", inputMint, p.GetID())
}

func (p *Pool) applyFee(amount cosmath.Int) cosmath.Int {
	if p.TradeFeeDenominator == 0 {
		return amount
	}
	fee := amount.MulRaw(int64(p.TradeFeeNumerator)).QuoRaw(int64(p.TradeFeeDenominator))
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

	// amountOut = reserveOut * amountInWithFee / (reserveIn + amountInWithFee)
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
	next := *p

	switch accountID {
	case p.TokenAccountA.String(), p.TokenAccountB.String():
		if len(data) < tokenAccountAmountOffset+8 {
			return nil, fmt.Errorf("token account data too short: got %d bytes", len(data))
		}
		balance := binary.LittleEndian.Uint64(data[tokenAccountAmountOffset : tokenAccountAmountOffset+8])
		if accountID == p.TokenAccountA.String() {
			next.ReserveA = cosmath.NewIntFromUint64(balance)
		} else {
			next.ReserveB = cosmath.NewIntFromUint64(balance)
		}
	case p.PoolId.String():
		if err := next.Decode(data); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("account %s does not belong to pool %s", accountID, p.GetID())
	}

	return &next, nil
}

// SetReserves returns a copy of the pool with the given vault balances.
func (p *Pool) SetReserves(reserveA, reserveB cosmath.Int) *Pool {
	next := *p
	next.ReserveA = reserveA
	next.ReserveB = reserveB
	return &next
}

// VaultAccounts lists the token accounts holding this pool's reserves.
func (p *Pool) VaultAccounts() []string {
	return []string{p.TokenAccountA.String(), p.TokenAccountB.String()}
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
	authority, err := solana.CreateProgramAddress(
		[][]byte{p.PoolId.Bytes(), {p.Nonce}},
		TokenSwapProgramID,
	)
	if err != nil {
		return nil, fmt.Errorf("derive swap authority: %w", err)
	}

	poolInVault, poolOutVault := p.TokenAccountA, p.TokenAccountB
	if inputMint == p.MintB.String() {
		poolInVault, poolOutVault = p.TokenAccountB, p.TokenAccountA
	}

	data := make([]byte, 17)
	data[0] = swapInstructionTag
	binary.LittleEndian.PutUint64(data[1:9], inputAmount.Uint64())
	binary.LittleEndian.PutUint64(data[9:17], minOutputAmount.Uint64())

	accounts := solana.AccountMetaSlice{
		solana.Meta(p.PoolId),
		solana.Meta(authority),
		solana.Meta(user).SIGNER(),
		solana.Meta(userInAccount).WRITE(),
		solana.Meta(poolInVault).WRITE(),
		solana.Meta(poolOutVault).WRITE(),
		solana.Meta(userOutAccount).WRITE(),
		solana.Meta(p.TokenPool).WRITE(),
		solana.Meta(p.FeeAccount).WRITE(),
		solana.Meta(p.TokenProgramId),
	}

	return []solana.Instruction{
		solana.NewInstruction(TokenSwapProgramID, accounts, data),
	}, nil
}
