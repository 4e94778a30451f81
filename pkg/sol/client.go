package sol

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	jitorpc "github.com/jito-labs/jito-go-rpc"
	"golang.org/x/time/rate"
)

// Client wraps a Solana RPC endpoint with request rate limiting and an
// optional Jito block-engine client for bundle submission.
type Client struct {
	rpc     *rpc.Client
	jito    *jitorpc.JitoJsonRpcClient
	limiter *rate.Limiter
}

// NewClient creates a rate-limited client. jitoRpc may be empty when bundle
// submission is not needed.
func NewClient(ctx context.Context, endpoint, jitoRpc string, reqLimitPerSecond int) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("rpc endpoint is required")
	}
	if reqLimitPerSecond <= 0 {
		reqLimitPerSecond = 10
	}

	c := &Client{
		rpc:     rpc.New(endpoint),
		limiter: rate.NewLimiter(rate.Limit(reqLimitPerSecond), reqLimitPerSecond),
	}
	if jitoRpc != "" {
		c.jito = jitorpc.NewJitoJsonRpcClient(jitoRpc, "")
	}
	return c, nil
}

func (c *Client) wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

func (c *Client) GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.rpc.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
}

func (c *Client) GetMultipleAccountsWithOpts(ctx context.Context, accounts []solana.PublicKey) (*rpc.GetMultipleAccountsResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.rpc.GetMultipleAccountsWithOpts(ctx, accounts, &rpc.GetMultipleAccountsOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
}

func (c *Client) GetProgramAccountsWithOpts(ctx context.Context, program solana.PublicKey, opts *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.rpc.GetProgramAccountsWithOpts(ctx, program, opts)
}

func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	if err := c.wait(ctx); err != nil {
		return solana.Hash{}, err
	}
	result, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Hash{}, err
	}
	return result.Value.Blockhash, nil
}

func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if err := c.wait(ctx); err != nil {
		return solana.Signature{}, err
	}
	return c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight: true,
	})
}

func (c *Client) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*rpc.SimulateTransactionResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.rpc.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
}

// SendJitoBundle submits base58-encoded transactions as one bundle through
// the block engine. Requires a jito endpoint at construction.
func (c *Client) SendJitoBundle(ctx context.Context, transactions []string) (json.RawMessage, error) {
	if c.jito == nil {
		return nil, fmt.Errorf("jito endpoint not configured")
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.jito.SendBundle([][]string{transactions})
}
