package sol

import (
	"context"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"solarb/pkg/arb"
)

// GetTokensInfos resolves mint metadata for the configuration tokens in one
// batched account fetch. The returned map is complete or the call fails:
// pricing must never start against partial metadata.
func GetTokensInfos(ctx context.Context, client *Client, tokens []arb.TokenInArb) (arb.TokenInfos, error) {
	if len(tokens) == 0 {
		return arb.TokenInfos{}, nil
	}

	mints := make([]solana.PublicKey, 0, len(tokens))
	for _, t := range tokens {
		mint, err := solana.PublicKeyFromBase58(t.Address)
		if err != nil {
			return nil, fmt.Errorf("invalid mint address %s: %w", t.Address, err)
		}
		mints = append(mints, mint)
	}

	result, err := client.GetMultipleAccountsWithOpts(ctx, mints)
	if err != nil {
		return nil, fmt.Errorf("fetch mint accounts: %w", err)
	}

	infos := make(arb.TokenInfos, len(tokens))
	for i, account := range result.Value {
		if account == nil {
			return nil, fmt.Errorf("mint account %s not found", tokens[i].Address)
		}
		decimals, err := decodeMintDecimals(account.Data.GetBinary())
		if err != nil {
			return nil, fmt.Errorf("decode mint %s: %w", tokens[i].Address, err)
		}
		infos[tokens[i].Address] = arb.TokenInfo{
			Address:  tokens[i].Address,
			Symbol:   tokens[i].Symbol,
			Decimals: decimals,
		}
	}

	return infos, nil
}

// decodeMintDecimals walks the SPL mint layout up to the decimals field.
func decodeMintDecimals(data []byte) (uint8, error) {
	decoder := bin.NewBinDecoder(data)

	// mint authority option + authority
	if _, err := decoder.ReadUint32(bin.LE); err != nil {
		return 0, err
	}
	if _, err := decoder.ReadNBytes(32); err != nil {
		return 0, err
	}

	// supply
	if _, err := decoder.ReadUint64(bin.LE); err != nil {
		return 0, err
	}

	decimals, err := decoder.ReadUint8()
	if err != nil {
		return 0, err
	}
	return decimals, nil
}
