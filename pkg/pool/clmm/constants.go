package clmm

import (
	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"
)

// Orca Whirlpool program
var WhirlpoolProgramID = solana.MustPublicKeyFromBase58("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc")

// Sqrt-price bounds enforced by the whirlpool program, Q64.64.
// MIN is 4295048016, MAX is 79226673515401279992447579055.
var (
	minSqrtPrice = uint128.From64(4295048016)
	maxSqrtPrice = uint128.New(0x35bb7f32a81b33af, 0xfffec4b1)
)

// Anchor discriminator for the swap instruction
var swapDiscriminator = [8]byte{0xf8, 0xc6, 0x9e, 0x91, 0xe1, 0x75, 0x87, 0xc8}

// Minimum account size covering the fields decoded below
const poolAccountMinSize = 269

// Ticks per tick array in the whirlpool layout
const ticksPerArray = 88

// Fee rate unit: hundredths of a basis point
const feeRateDenominator = 1_000_000
