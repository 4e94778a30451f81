package protocol

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"solarb/pkg"
	"solarb/pkg/pool/clmm"
	"solarb/pkg/sol"
)

// Mint offsets in the whirlpool account layout
const (
	whirlpoolMintAOffset = 101
	whirlpoolMintBOffset = 181
)

type WhirlpoolProtocol struct {
	SolClient *sol.Client
}

func NewWhirlpool(solClient *sol.Client) *WhirlpoolProtocol {
	return &WhirlpoolProtocol{SolClient: solClient}
}

func (p *WhirlpoolProtocol) ProtocolName() pkg.ProtocolName {
	return pkg.ProtocolName("whirlpool")
}

func (p *WhirlpoolProtocol) FetchPoolsByPair(ctx context.Context, baseMint, quoteMint string) ([]pkg.Pool, error) {
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
		return nil, fmt.Errorf("failed to fetch whirlpool pools: %w", err)
	}
	if reverse, err := p.fetchByMints(ctx, quotePubkey, basePubkey); err == nil {
		accounts = append(accounts, reverse...)
	}

	res := make([]pkg.Pool, 0, len(accounts))
	for _, v := range accounts {
		pool := &clmm.Pool{}
		if err := pool.Decode(v.Account.Data.GetBinary()); err != nil {
			continue
		}
		pool.PoolId = v.Pubkey
		res = append(res, pool)
	}
	return res, nil
}

func (p *WhirlpoolProtocol) fetchByMints(ctx context.Context, mintA, mintB solana.PublicKey) (rpc.GetProgramAccountsResult, error) {
	filters := []rpc.RPCFilter{
		{
			Memcmp: &rpc.RPCFilterMemcmp{
				Offset: whirlpoolMintAOffset,
				Bytes:  mintA.Bytes(),
			},
		},
		{
			Memcmp: &rpc.RPCFilterMemcmp{
				Offset: whirlpoolMintBOffset,
				Bytes:  mintB.Bytes(),
			},
		},
	}

	return p.SolClient.GetProgramAccountsWithOpts(ctx, clmm.WhirlpoolProgramID, &rpc.GetProgramAccountsOpts{
		Filters: filters,
	})
}

func (p *WhirlpoolProtocol) FetchPoolByID(ctx context.Context, poolId string) (pkg.Pool, error) {
	poolPubkey, err := solana.PublicKeyFromBase58(poolId)
	if err != nil {
		return nil, fmt.Errorf("invalid pool ID: %w", err)
	}

	account, err := p.SolClient.GetAccountInfoWithOpts(ctx, poolPubkey)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool account %s: %w", poolId, err)
	}

	pool := &clmm.Pool{}
	if err := pool.Decode(account.Value.Data.GetBinary()); err != nil {
		return nil, fmt.Errorf("failed to parse pool data for pool %s: %w", poolId, err)
	}
	pool.PoolId = poolPubkey
	return pool, nil
}
