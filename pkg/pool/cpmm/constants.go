package cpmm

import "github.com/gagliardetto/solana-go"

// SPL Token Swap program
var TokenSwapProgramID = solana.MustPublicKeyFromBase58("SwaPpA9LAaLfeLi3a68M4DjnLqgtticKg6CnyNwgAC8")

// Swap instruction tag in the token-swap program
const swapInstructionTag = 1

// Account layout size for a v1 token-swap pool
const poolAccountSize = 324

// SPL token account: amount field lives at byte 64
const tokenAccountAmountOffset = 64
