package stable

import (
	"context"
	"encoding/binary"
	"fmt"

	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"solarb/pkg"
)

// Pool is a StableSwap pool snapshot (Saber layout). The curve is the
// two-coin Curve invariant; the trade fee is applied to the output.
type Pool struct {
	IsInitialized bool
	IsPaused      bool
	Nonce         uint8
	AmpFactor     uint64

	AdminKey         solana.PublicKey
	TokenAccountA    solana.PublicKey
	MintA            solana.PublicKey
	AdminFeeAccountA solana.PublicKey
	TokenAccountB    solana.PublicKey
	MintB            solana.PublicKey
	AdminFeeAccountB solana.PublicKey
	PoolMint         solana.PublicKey

	TradeFeeNumerator   uint64
	TradeFeeDenominator uint64

	PoolId solana.PublicKey

	ReserveA cosmath.Int
	ReserveB cosmath.Int
}

func (p *Pool) ProtocolName() pkg.ProtocolName {
	return pkg.ProtocolName("saber")
}

func (p *Pool) GetProgramID() solana.PublicKey {
	return StableSwapProgramID
}

func (p *Pool) GetID() string {
	return p.PoolId.String()
}

func (p *Pool) GetTokens() (string, string) {
	return p.MintA.String(), p.MintB.String()
}

func (p *Pool) FeeConvention() pkg.FeeConvention {
	return pkg.FeeOnOutput
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
	if len(data) < swapInfoAccountSize {
		return fmt.Errorf("data too short for stableswap pool: got %d bytes", len(data))
	}

	offset := 0

	p.IsInitialized = data[offset] == 1
	offset++
	p.IsPaused = data[offset] == 1
	offset++
	p.Nonce = data[offset]
	offset++

	// initial amp factor is skipped; the target value is what trades use
	offset += 8
	p.AmpFactor = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8

	// ramp timestamps and admin transition deadline
	offset += 24

	// future admin key
	offset += 32
	copy(p.AdminKey[:], data[offset:offset+32])
	offset += 32

	copy(p.TokenAccountA[:], data[offset:offset+32])
	offset += 32
	copy(p.MintA[:], data[offset:offset+32])
	offset += 32
	copy(p.AdminFeeAccountA[:], data[offset:offset+32])
	offset += 32

	copy(p.TokenAccountB[:], data[offset:offset+32])
	offset += 32
	copy(p.MintB[:], data[offset:offset+32])
	offset += 32
	copy(p.AdminFeeAccountB[:], data[offset:offset+32])
	offset += 32

	copy(p.PoolMint[:], data[offset:offset+32])
	offset += 32

	// the fees block opens with the admin trade and withdraw fee ratios
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

func (p *Pool) direction(inputMint string) (reserveIn, reserveOut cosmath.Int, err error) {
	switch inputMint {
	case p.MintA.String():
		return p.Reserve(p.MintA.String()), p.Reserve(p.MintB.String()), nil
	case p.MintB.String():
		return p.Reserve(p.MintB.String()), p.Reserve(p.MintA.String()), nil
	}
	return cosmath.Int{}, cosmath.Int{}, fmt.Errorf("mint %s not held by pool %s", inputMint, p.GetID())
}

// computeD solves the two-coin invariant
// Ann*S + D = Ann*D + D^3 / (4*x*y) for D via Newton iteration,
// with Ann = amp * n^n and n = 2.
func computeD(amp uint64, x, y cosmath.Int) cosmath.Int {
	s := x.Add(y)
	if s.IsZero() {
		return cosmath.ZeroInt()
	}

	ann := cosmath.NewIntFromUint64(amp).MulRaw(4)
	d := s
	two := cosmath.NewInt(2)
	three := cosmath.NewInt(3)

	for i := 0; i < maxIterations; i++ {
		// dP = D^3 / (4*x*y), computed stepwise to stay within range
		dP := d.Mul(d).Quo(x.MulRaw(2)).Mul(d).Quo(y.MulRaw(2))

		prev := d
		// D = (Ann*S + 2*dP) * D / ((Ann-1)*D + 3*dP)
		numerator := ann.Mul(s).Add(two.Mul(dP)).Mul(d)
		denominator := ann.Sub(cosmath.OneInt()).Mul(d).Add(three.Mul(dP))
		d = numerator.Quo(denominator)

		if d.Sub(prev).Abs().LTE(cosmath.OneInt()) {
			break
		}
	}

	return d
}

// computeY solves for the output-side balance given the new input-side
// balance x and invariant d.
func computeY(amp uint64, x, d cosmath.Int) cosmath.Int {
	if x.IsZero() || d.IsZero() {
		return cosmath.ZeroInt()
	}

	ann := cosmath.NewIntFromUint64(amp).MulRaw(4)

	// c = D^3 / (4*x*Ann), b = x + D/Ann
	c := d.Mul(d).Quo(x.MulRaw(2)).Mul(d).Quo(ann.MulRaw(2))
	b := x.Add(d.Quo(ann))

	y := d
	for i := 0; i < maxIterations; i++ {
		prev := y
		// y = (y^2 + c) / (2y + b - D)
		y = y.Mul(y).Add(c).Quo(y.MulRaw(2).Add(b).Sub(d))
		if y.Sub(prev).Abs().LTE(cosmath.OneInt()) {
			break
		}
	}

	return y
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

	d := computeD(p.AmpFactor, reserveIn, reserveOut)
	newY := computeY(p.AmpFactor, reserveIn.Add(amountIn), d)

	amountOut := reserveOut.Sub(newY)
	if amountOut.IsNegative() {
		return cosmath.ZeroInt(), nil
	}

	return p.applyFee(amountOut), nil
}

func (p *Pool) MarginalAmountOut(inputMint string, amountIn cosmath.Int) (cosmath.Int, error) {
	reserveIn, reserveOut, err := p.direction(inputMint)
	if err != nil {
		return cosmath.ZeroInt(), err
	}
	if amountIn.IsZero() || reserveIn.IsZero() || reserveOut.IsZero() {
		return cosmath.ZeroInt(), nil
	}

	// Probe the curve with a sliver of the trade and scale back up. The
	// probe rides through the same fee path as the real trade.
	probe := amountIn.QuoRaw(1024)
	if probe.IsZero() {
		return p.AmountOut(inputMint, amountIn)
	}

	probeOut, err := p.AmountOut(inputMint, probe)
	if err != nil {
		return cosmath.ZeroInt(), err
	}

	return probeOut.Mul(amountIn).Quo(probe), nil
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
		StableSwapProgramID,
	)
	if err != nil {
		return nil, fmt.Errorf("derive swap authority: %w", err)
	}

	poolInVault, poolOutVault := p.TokenAccountA, p.TokenAccountB
	adminFeeAccount := p.AdminFeeAccountB
	if inputMint == p.MintB.String() {
		poolInVault, poolOutVault = p.TokenAccountB, p.TokenAccountA
		adminFeeAccount = p.AdminFeeAccountA
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
		solana.Meta(adminFeeAccount).WRITE(),
		solana.Meta(solana.TokenProgramID),
	}

	return []solana.Instruction{
		solana.NewInstruction(StableSwapProgramID, accounts, data),
	}, nil
}
