package transactions

import (
	"context"
	"fmt"

	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"

	"solarb/pkg/arb"
	"solarb/pkg/sol"
)

const defaultSlippageBps = 50

// Builder assembles, signs and submits the swap transaction for a validated
// execution request. It owns the signing key; callers never see it.
type Builder struct {
	client      *sol.Client
	signer      solana.PrivateKey
	pools       arb.PoolSource
	slippageBps int64
	useJito     bool
	logger      *zap.Logger
}

func NewBuilder(client *sol.Client, signer solana.PrivateKey, pools arb.PoolSource, useJito bool, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		client:      client,
		signer:      signer,
		pools:       pools,
		slippageBps: defaultSlippageBps,
		useJito:     useJito,
		logger:      logger.With(zap.String("component", "transactions")),
	}
}

// LoadSigner reads a keypair in solana-keygen JSON format.
func LoadSigner(path string) (solana.PrivateKey, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("load keypair %s: %w", path, err)
	}
	return key, nil
}

// SubmitSwapPath builds one transaction covering every hop of the path and
// either simulates or sends it per the request mode. The returned identity is
// the transaction signature, or a simulation summary in simulate mode.
func (b *Builder) SubmitSwapPath(ctx context.Context, req arb.ExecutionRequest) (string, error) {
	tx, err := b.buildTransaction(ctx, req)
	if err != nil {
		return "", err
	}

	if req.Mode == arb.Simulate {
		resp, err := b.client.SimulateTransaction(ctx, tx)
		if err != nil {
			return "", fmt.Errorf("simulate transaction: %w", err)
		}
		if resp.Value.Err != nil {
			return "", fmt.Errorf("simulation failed: %v", resp.Value.Err)
		}
		units := uint64(0)
		if resp.Value.UnitsConsumed != nil {
			units = *resp.Value.UnitsConsumed
		}
		b.logger.Info("transaction simulated",
			zap.String("strategy", req.Strategy),
			zap.Uint64("units_consumed", units))
		return fmt.Sprintf("simulated:%d", units), nil
	}

	if b.useJito {
		return b.sendBundle(ctx, req, tx)
	}

	sig, err := b.client.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}
	b.logger.Info("transaction sent",
		zap.String("strategy", req.Strategy),
		zap.String("signature", sig.String()))
	return sig.String(), nil
}

func (b *Builder) sendBundle(ctx context.Context, req arb.ExecutionRequest, tx *solana.Transaction) (string, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("serialize transaction: %w", err)
	}
	encoded := base58.Encode(raw)

	result, err := b.client.SendJitoBundle(ctx, []string{encoded})
	if err != nil {
		return "", fmt.Errorf("send bundle: %w", err)
	}
	b.logger.Info("bundle submitted",
		zap.String("strategy", req.Strategy),
		zap.ByteString("bundle_id", result))
	return string(result), nil
}

func (b *Builder) buildTransaction(ctx context.Context, req arb.ExecutionRequest) (*solana.Transaction, error) {
	hops := req.Result.Path.Hops
	if len(hops) == 0 {
		return nil, fmt.Errorf("%w: path has no hops", arb.ErrInvalidInput)
	}
	if len(req.Result.HopAmounts) != len(hops) {
		return nil, fmt.Errorf("%w: hop amounts missing", arb.ErrInvalidInput)
	}

	user := b.signer.PublicKey()
	instructions := make([]solana.Instruction, 0, len(hops))

	amountIn := req.AmountIn
	for i, hop := range hops {
		pool, ok := b.pools.Pool(hop.PoolID)
		if !ok {
			return nil, fmt.Errorf("%w: pool %s not loaded", arb.ErrDataUnavailable, hop.PoolID)
		}

		inAccount, err := userTokenAccount(user, hop.TokenIn)
		if err != nil {
			return nil, err
		}
		outAccount, err := userTokenAccount(user, hop.TokenOut)
		if err != nil {
			return nil, err
		}

		minOut := applySlippage(req.Result.HopAmounts[i].AmountOut, b.slippageBps)
		hopIxs, err := pool.BuildSwapInstructions(ctx, user, hop.TokenIn, amountIn, minOut, inAccount, outAccount)
		if err != nil {
			return nil, fmt.Errorf("build hop %d through %s: %w", i, hop.PoolID, err)
		}
		instructions = append(instructions, hopIxs...)

		// Each hop swaps exactly what the previous one produced.
		amountIn = req.Result.HopAmounts[i].AmountOut
	}

	blockhash, err := b.client.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(user))
	if err != nil {
		return nil, fmt.Errorf("assemble transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(user) {
			return &b.signer
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return tx, nil
}

func userTokenAccount(owner solana.PublicKey, mint string) (solana.PublicKey, error) {
	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid mint %s: %w", mint, err)
	}
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mintKey)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive token account for %s: %w", mint, err)
	}
	return ata, nil
}

func applySlippage(amount cosmath.Int, slippageBps int64) cosmath.Int {
	if amount.IsNil() || !amount.IsPositive() {
		return cosmath.ZeroInt()
	}
	return amount.MulRaw(10_000 - slippageBps).QuoRaw(10_000)
}
