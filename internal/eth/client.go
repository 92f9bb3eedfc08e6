package eth

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// rpcCallTimeout bounds every individual RPC call. A timed-out or failed call
// is surfaced to the caller, who decides whether to restart the whole flow;
// there is no automatic retry.
const rpcCallTimeout = 30 * time.Second

var (
	// ErrTimeout marks an RPC call that exceeded rpcCallTimeout.
	ErrTimeout = errors.New("rpc call timed out")

	// ErrNetwork marks an RPC call the node rejected or the transport dropped.
	ErrNetwork = errors.New("rpc call failed")
)

// Client is a wallet-facing JSON-RPC client. All methods enforce the per-call
// timeout and classify failures as ErrTimeout or ErrNetwork.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
	rpcURL    string
}

// NewClient connects to an Ethereum JSON-RPC endpoint
func NewClient(rpcURL string) (*Client, error) {
	rpcClient, err := rpc.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ethereum client: %w", err)
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		rpcURL:    rpcURL,
	}, nil
}

// ChainID fetches the chain ID from the node
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	var chainID *big.Int
	err := c.do(ctx, "eth_chainId", func(ctx context.Context) error {
		var err error
		chainID, err = c.ethClient.ChainID(ctx)
		return err
	})
	return chainID, err
}

// GasPrice fetches the current gas price (eth_gasPrice)
func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	var price *big.Int
	err := c.do(ctx, "eth_gasPrice", func(ctx context.Context) error {
		var err error
		price, err = c.ethClient.SuggestGasPrice(ctx)
		return err
	})
	return price, err
}

// EstimateGas asks the node to estimate execution gas (eth_estimateGas)
func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	var gas uint64
	err := c.do(ctx, "eth_estimateGas", func(ctx context.Context) error {
		var err error
		gas, err = c.ethClient.EstimateGas(ctx, msg)
		return err
	})
	return gas, err
}

// PendingNonceAt fetches the next nonce for an account, including pending
// transactions (eth_getTransactionCount)
func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var nonce uint64
	err := c.do(ctx, "eth_getTransactionCount", func(ctx context.Context) error {
		var err error
		nonce, err = c.ethClient.PendingNonceAt(ctx, account)
		return err
	})
	return nonce, err
}

// BalanceAt fetches the latest balance of an account
func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	var balance *big.Int
	err := c.do(ctx, "eth_getBalance", func(ctx context.Context) error {
		var err error
		balance, err = c.ethClient.BalanceAt(ctx, account, nil)
		return err
	})
	return balance, err
}

// SendRawTransaction broadcasts pre-signed transaction bytes
// (eth_sendRawTransaction) and returns the transaction hash.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	var txHash common.Hash
	err := c.do(ctx, "eth_sendRawTransaction", func(ctx context.Context) error {
		var result string
		if err := c.rpcClient.CallContext(ctx, &result, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
			return err
		}
		txHash = common.HexToHash(result)
		return nil
	})
	return txHash, err
}

// TransactionReceipt fetches the receipt of a mined transaction
// (eth_getTransactionReceipt). A nil receipt with no error means the
// transaction is not yet mined.
func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	err := c.do(ctx, "eth_getTransactionReceipt", func(ctx context.Context) error {
		var err error
		receipt, err = c.ethClient.TransactionReceipt(ctx, txHash)
		if errors.Is(err, ethereum.NotFound) {
			receipt = nil
			return nil
		}
		return err
	})
	return receipt, err
}

// Close closes the underlying connection
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// do runs one RPC call under the per-call timeout and classifies the failure.
func (c *Client) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, rpcCallTimeout)
	defer cancel()

	err := fn(callCtx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrTimeout, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrNetwork, op, err)
}
