package chain

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// ErrNotConnected is returned when the node does not answer the liveness probe.
var ErrNotConnected = errors.New("rpc node not reachable")

// Client wraps go-ethereum RPC and provides helper methods.
type Client struct {
	rpcURL    string
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	chainID *big.Int
}

// NewClient creates a new chain client from the RPC URL.
// HTTP endpoints are dialed lazily, so no request is made here.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcURL:    rpcURL,
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// URL returns the endpoint the client was created with.
func (c *Client) URL() string {
	return c.rpcURL
}

// IsConnected reports whether the node answers an eth_chainId request.
func (c *Client) IsConnected(ctx context.Context) bool {
	_, err := c.ChainID(ctx)
	return err == nil
}

// ChainID returns the chain ID. The first successful answer is cached.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	if c.chainID != nil {
		return new(big.Int).Set(c.chainID), nil
	}
	id, err := c.ethClient.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	c.chainID = id
	return new(big.Int).Set(id), nil
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}
