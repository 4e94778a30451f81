package stable

import "github.com/gagliardetto/solana-go"

// Saber StableSwap program
var StableSwapProgramID = solana.MustPublicKeyFromBase58("SSwpkEEcbUqx4vtoEByFjSkhKdCT862DNVb52nZg1UZ")

const swapInstructionTag = 1

// Minimum account size for the swap info layout decoded below
const swapInfoAccountSize = 395

const tokenAccountAmountOffset = 64

// Newton iteration cap for the invariant solvers
const maxIterations = 256
