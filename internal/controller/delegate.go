package controller

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/yourorg/keyfob/internal/gas"
	"github.com/yourorg/keyfob/internal/logger"
	"github.com/yourorg/keyfob/internal/signer"
	"github.com/yourorg/keyfob/internal/txbuilder"
)

// ChainClient is the slice of the RPC client the controller needs.
type ChainClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// receiptPollInterval spaces out eth_getTransactionReceipt polls while
// waiting for a broadcast transaction to mine.
const receiptPollInterval = 2 * time.Second

// Controller drives the delegation pipeline: nonce and fee discovery,
// authorization signing, envelope assembly and signing, and the optional
// broadcast. Signing and broadcasting are separate steps; a failure between
// them leaves the signed bytes with the caller and nothing on-chain.
type Controller struct {
	chain ChainClient
	ds    signer.DigestSigner
	log   logger.Logger
}

// DelegateConfig describes one delegation request.
type DelegateConfig struct {
	// Delegate is the contract the account's code is delegated to.
	Delegate common.Address

	// To is the transaction destination. Nil targets the sender itself,
	// the usual shape for activating freshly delegated code.
	To *common.Address

	Value *big.Int
	Data  []byte

	// GasLimit overrides estimation entirely when non-zero.
	GasLimit uint64

	// Fee overrides, applied per the estimator's precedence rules.
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	GasPrice             *big.Int
	FeeCapGwei           uint64

	// ChainID skips the eth_chainId query when non-zero.
	ChainID uint64

	Broadcast bool
}

// DelegateResult is the outcome of a completed pipeline.
type DelegateResult struct {
	RawTransaction string
	SigningHash    []byte
	TxHash         common.Hash // zero unless broadcast
	Nonce          uint64
	AuthNonce      uint64
	Estimate       gas.Estimate
}

// New creates a Controller
func New(chain ChainClient, ds signer.DigestSigner, log logger.Logger) *Controller {
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{chain: chain, ds: ds, log: log}
}

// Delegate runs the pipeline end to end and returns the signed wire bytes.
func (c *Controller) Delegate(ctx context.Context, cfg DelegateConfig) (*DelegateResult, error) {
	sender := c.ds.Address()

	chainID, err := c.resolveChainID(ctx, cfg.ChainID)
	if err != nil {
		return nil, err
	}

	nonce, err := c.chain.PendingNonceAt(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	// The authorizing account is also the transaction sender, so the
	// authorization consumes the nonce slot after the outer transaction's.
	authNonce := nonce + 1

	to := cfg.To
	if to == nil {
		to = &sender
	}

	estimate, err := c.estimate(ctx, cfg, sender, to)
	if err != nil {
		return nil, err
	}

	// Preflight only: a short balance is worth surfacing before broadcast,
	// but signing offline must still work.
	if balance, err := c.chain.BalanceAt(ctx, sender); err == nil {
		if balance.Cmp(estimate.TotalCost) < 0 {
			c.log.Warn("balance below estimated total cost",
				zap.String("balance", balance.String()),
				zap.String("totalCost", estimate.TotalCost.String()))
		}
	}

	c.log.Info("delegation plan",
		zap.String("sender", sender.Hex()),
		zap.String("delegate", cfg.Delegate.Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("authNonce", authNonce),
		zap.Uint64("gasLimit", estimate.GasLimit),
		zap.String("maxFeePerGas", estimate.MaxFeePerGas.String()))

	auth, err := txbuilder.SignAuthorization(c.ds, chainID, cfg.Delegate, authNonce)
	if err != nil {
		return nil, err
	}

	tx := &txbuilder.SetCodeTx{
		ChainID:              chainID,
		Nonce:                nonce,
		MaxPriorityFeePerGas: estimate.MaxPriorityFeePerGas,
		MaxFeePerGas:         estimate.MaxFeePerGas,
		GasLimit:             estimate.GasLimit,
		To:                   to,
		Value:                cfg.Value,
		Data:                 cfg.Data,
		AuthList:             []txbuilder.Authorization{auth},
	}

	raw, err := tx.Sign(c.ds)
	if err != nil {
		return nil, err
	}

	result := &DelegateResult{
		RawTransaction: txbuilder.EncodeHex(raw),
		SigningHash:    tx.SigningHash(),
		Nonce:          nonce,
		AuthNonce:      authNonce,
		Estimate:       estimate,
	}

	if cfg.Broadcast {
		txHash, err := c.chain.SendRawTransaction(ctx, raw)
		if err != nil {
			return result, fmt.Errorf("broadcast failed: %w", err)
		}
		result.TxHash = txHash
		c.log.Info("transaction broadcast", zap.String("txHash", txHash.Hex()))
	}

	return result, nil
}

// WaitForReceipt polls for the receipt of a broadcast transaction until it
// mines or ctx expires.
func (c *Controller) WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.chain.TransactionReceipt(ctx, txHash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			c.log.Info("transaction mined",
				zap.String("txHash", txHash.Hex()),
				zap.Uint64("blockNumber", receipt.BlockNumber.Uint64()),
				zap.Uint64("gasUsed", receipt.GasUsed))
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for receipt of %s: %w", txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// EstimateDelegation derives the gas plan without touching the signer.
func (c *Controller) EstimateDelegation(ctx context.Context, cfg DelegateConfig) (gas.Estimate, error) {
	sender := c.ds.Address()
	to := cfg.To
	if to == nil {
		to = &sender
	}
	return c.estimate(ctx, cfg, sender, to)
}

func (c *Controller) resolveChainID(ctx context.Context, override uint64) (*big.Int, error) {
	if override != 0 {
		return new(big.Int).SetUint64(override), nil
	}
	chainID, err := c.chain.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	return chainID, nil
}

func (c *Controller) estimate(ctx context.Context, cfg DelegateConfig, sender common.Address, to *common.Address) (gas.Estimate, error) {
	estimator := gas.NewEstimator(c.chain, cfg.FeeCapGwei, c.log)
	overrides := gas.Overrides{
		MaxFeePerGas:         cfg.MaxFeePerGas,
		MaxPriorityFeePerGas: cfg.MaxPriorityFeePerGas,
		GasPrice:             cfg.GasPrice,
	}

	if cfg.GasLimit != 0 {
		// An explicit limit is used verbatim; only fees are derived.
		prices, err := estimator.Prices(ctx, overrides)
		if err != nil {
			return gas.Estimate{}, err
		}
		value := cfg.Value
		if value == nil {
			value = new(big.Int)
		}
		gasCost := new(big.Int).Mul(new(big.Int).SetUint64(cfg.GasLimit), prices.MaxFeePerGas)
		return gas.Estimate{
			GasLimit:             cfg.GasLimit,
			MaxFeePerGas:         prices.MaxFeePerGas,
			MaxPriorityFeePerGas: prices.MaxPriorityFeePerGas,
			EstimatedGasCost:     gasCost,
			TotalCost:            new(big.Int).Add(gasCost, value),
			Type:                 gas.TypeDelegation,
		}, nil
	}

	nodeEstimate, err := c.chain.EstimateGas(ctx, ethereum.CallMsg{
		From:  sender,
		To:    to,
		Value: cfg.Value,
		Data:  cfg.Data,
	})
	if err != nil {
		return gas.Estimate{}, fmt.Errorf("failed to estimate gas: %w", err)
	}

	return estimator.Estimate(ctx, nodeEstimate, 1, cfg.Value, overrides)
}
