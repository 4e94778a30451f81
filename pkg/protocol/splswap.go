package protocol

import (
	"context"
	"encoding/binary"
	"fmt"

	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"solarb/pkg"
	"solarb/pkg/pool/cpmm"
	"solarb/pkg/sol"
)

// Mint offsets in the token-swap account layout
const (
	splSwapMintAOffset = 131
	splSwapMintBOffset = 163
)

type SplTokenSwapProtocol struct {
	SolClient *sol.Client
}

func NewSplTokenSwap(solClient *sol.Client) *SplTokenSwapProtocol {
	return &SplTokenSwapProtocol{SolClient: solClient}
}

func (p *SplTokenSwapProtocol) ProtocolName() pkg.ProtocolName {
	return pkg.ProtocolName("spl_token_swap")
}

func (p *SplTokenSwapProtocol) FetchPoolsByPair(ctx context.Context, baseMint, quoteMint string) ([]pkg.Pool, error) {
	basePubkey, err := solana.PublicKeyFromBase58(baseMint)
	if err != nil {
		return nil, fmt.Errorf("invalid base mint address: %w", err)
	}
	quotePubkey, err := solana.PublicKeyFromBase58(quoteMint)
	if err != nil {
		return nil, fmt.Errorf("invalid quote mint address: %w", err)
	}

	accounts, err := p.fetchByMints(ctx, basePubkey, quotePubkey)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token swap pools: %w", err)
	}

	// Reverse pair as well: pools store mints in creation order
	if reverse, err := p.fetchByMints(ctx, quotePubkey, basePubkey); err == nil {
		accounts = append(accounts, reverse...)
	}

	res := make([]pkg.Pool, 0, len(accounts))
	for _, v := range accounts {
		pool := &cpmm.Pool{}
		if err := pool.Decode(v.Account.Data.GetBinary()); err != nil {
			continue
		}
		pool.PoolId = v.Pubkey
		reserveA, reserveB, err := fetchVaultBalances(ctx, p.SolClient, pool.TokenAccountA, pool.TokenAccountB)
		if err != nil {
			continue
		}
		pool.ReserveA, pool.ReserveB = reserveA, reserveB
		res = append(res, pool)
	}
	return res, nil
}

func (p *SplTokenSwapProtocol) fetchByMints(ctx context.Context, mintA, mintB solana.PublicKey) (rpc.GetProgramAccountsResult, error) {
	filters := []rpc.RPCFilter{
		{
			Memcmp: &rpc.RPCFilterMemcmp{
				Offset: splSwapMintAOffset,
				Bytes:  mintA.Bytes(),
			},
		},
		{
			Memcmp: &rpc.RPCFilterMemcmp{
				Offset: splSwapMintBOffset,
				Bytes:  mintB.Bytes(),
			},
		},
	}

	return p.SolClient.GetProgramAccountsWithOpts(ctx, cpmm.TokenSwapProgramID, &rpc.GetProgramAccountsOpts{
		Filters: filters,
	})
}

func (p *SplTokenSwapProtocol) FetchPoolByID(ctx context.Context, poolId string) (pkg.Pool, error) {
	poolPubkey, err := solana.PublicKeyFromBase58(poolId)
	if err != nil {
		return nil, fmt.Errorf("invalid pool ID: %w", err)
	}

	account, err := p.SolClient.GetAccountInfoWithOpts(ctx, poolPubkey)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool account %s: %w", poolId, err)
	}

	pool := &cpmm.Pool{}
	if err := pool.Decode(account.Value.Data.GetBinary()); err != nil {
		return nil, fmt.Errorf("failed to parse pool data for pool %s: %w", poolId, err)
	}
	pool.PoolId = poolPubkey

	reserveA, reserveB, err := fetchVaultBalances(ctx, p.SolClient, pool.TokenAccountA, pool.TokenAccountB)
	if err != nil {
		return nil, err
	}
	pool.ReserveA, pool.ReserveB = reserveA, reserveB
	return pool, nil
}

// fetchVaultBalances reads the two vault token accounts so the loaded pool
// carries a complete reserve snapshot.
func fetchVaultBalances(ctx context.Context, client *sol.Client, vaultA, vaultB solana.PublicKey) (cosmath.Int, cosmath.Int, error) {
	results, err := client.GetMultipleAccountsWithOpts(ctx, []solana.PublicKey{vaultA, vaultB})
	if err != nil {
		return cosmath.Int{}, cosmath.Int{}, fmt.Errorf("fetch vault balances: %w", err)
	}

	balances := make([]cosmath.Int, 2)
	for i, result := range results.Value {
		if result == nil {
			return cosmath.Int{}, cosmath.Int{}, fmt.Errorf("vault account not found")
		}
		data := result.Data.GetBinary()
		if len(data) < 72 {
			return cosmath.Int{}, cosmath.Int{}, fmt.Errorf("vault account data too short: got %d bytes", len(data))
		}
		balances[i] = cosmath.NewIntFromUint64(binary.LittleEndian.Uint64(data[64:72]))
	}

	return balances[0], balances[1], nil
}
