package protocol

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"solarb/pkg"
	"solarb/pkg/pool/stable"
	"solarb/pkg/sol"
)

// Mint offsets in the stableswap account layout
const (
	saberMintAOffset = 139
	saberMintBOffset = 235
)

type SaberProtocol struct {
	SolClient *sol.Client
}

func NewSaber(solClient *sol.Client) *SaberProtocol {
	return &SaberProtocol{SolClient: solClient}
}

func (p *SaberProtocol) ProtocolName() pkg.ProtocolName {
	return pkg.ProtocolName("saber")
}

func (p *SaberProtocol) FetchPoolsByPair(ctx context.Context, baseMint, quoteMint string) ([]pkg.Pool, error) {
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
		return nil, fmt.Errorf("failed to fetch stableswap pools: %w", err)
	}
	if reverse, err := p.fetchByMints(ctx, quotePubkey, basePubkey); err == nil {
		accounts = append(accounts, reverse...)
	}

	res := make([]pkg.Pool, 0, len(accounts))
	for _, v := range accounts {
		pool := &stable.Pool{}
		if err := pool.Decode(v.Account.Data.GetBinary()); err != nil {
			continue
		}
		if pool.IsPaused {
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

func (p *SaberProtocol) fetchByMints(ctx context.Context, mintA, mintB solana.PublicKey) (rpc.GetProgramAccountsResult, error) {
	filters := []rpc.RPCFilter{
		{
			Memcmp: &rpc.RPCFilterMemcmp{
				Offset: saberMintAOffset,
				Bytes:  mintA.Bytes(),
			},
		},
		{
			Memcmp: &rpc.RPCFilterMemcmp{
				Offset: saberMintBOffset,
				Bytes:  mintB.Bytes(),
			},
		},
	}

	return p.SolClient.GetProgramAccountsWithOpts(ctx, stable.StableSwapProgramID, &rpc.GetProgramAccountsOpts{
		Filters: filters,
	})
}

func (p *SaberProtocol) FetchPoolByID(ctx context.Context, poolId string) (pkg.Pool, error) {
	poolPubkey, err := solana.PublicKeyFromBase58(poolId)
	if err != nil {
		return nil, fmt.Errorf("invalid pool ID: %w", err)
	}

	account, err := p.SolClient.GetAccountInfoWithOpts(ctx, poolPubkey)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool account %s: %w", poolId, err)
	}

	pool := &stable.Pool{}
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
