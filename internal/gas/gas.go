// Package gas derives gas limits and EIP-1559 fees for wallet transactions.
package gas

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/yourorg/keyfob/internal/logger"
)

const (
	// TxGasFloor is the network minimum for any transaction.
	TxGasFloor = 21000

	// minGasCushion is the smallest absolute buffer added to an estimate.
	minGasCushion = 1500

	// perAuthorizationGas is the EIP-7702 per-tuple account cost.
	perAuthorizationGas = 25000

	// delegationSafetyMargin covers delegated-code execution beyond the
	// plain transfer the node estimated.
	delegationSafetyMargin = 20000

	// DefaultFeeCapGwei bounds the derived max fee when the caller supplies
	// no override.
	DefaultFeeCapGwei = 100

	// maxDerivedPriorityFee caps the derived tip at 2 gwei.
	maxDerivedPriorityFee = 2_000_000_000
)

// EstimateType tags which fee path produced an estimate.
type EstimateType string

const (
	TypeLegacy     EstimateType = "legacy"
	TypeEIP1559    EstimateType = "eip1559"
	TypeDelegation EstimateType = "eip7702"
)

// PriceSource supplies the network's current gas price. Implementations
// bound each call with a timeout.
type PriceSource interface {
	GasPrice(ctx context.Context) (*big.Int, error)
}

// Overrides carries caller-supplied fee settings. All fields are optional.
type Overrides struct {
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	GasPrice             *big.Int // legacy single price
}

// Prices is a derived fee pair.
type Prices struct {
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	IsEIP1559            bool
}

// Estimate is a fully derived gas plan. Read-only once constructed.
type Estimate struct {
	GasLimit             uint64
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	EstimatedGasCost     *big.Int
	TotalCost            *big.Int
	Type                 EstimateType
}

// ApplyGasBuffer cushions a node-provided estimate: at least 50% or 1500
// units extra, whichever is larger, and never below the 21000 floor.
func ApplyGasBuffer(estimate uint64) uint64 {
	cushion := estimate / 2
	if cushion < minGasCushion {
		cushion = minGasCushion
	}
	buffered := estimate + cushion
	if buffered < TxGasFloor {
		return TxGasFloor
	}
	return buffered
}

// DelegationOverhead is the extra gas an EIP-7702 transaction needs on top of
// an eth_estimateGas result that did not account for its authorization list.
func DelegationOverhead(authorizationCount int, includeSafetyMargin bool) uint64 {
	overhead := uint64(authorizationCount)*perAuthorizationGas + TxGasFloor
	if includeSafetyMargin {
		overhead += delegationSafetyMargin
	}
	return overhead
}

// Estimator derives fee prices from overrides or network state.
type Estimator struct {
	source     PriceSource
	feeCapGwei uint64
	log        logger.Logger
}

// NewEstimator returns an Estimator. A zero feeCapGwei selects the default
// 100 gwei cap.
func NewEstimator(source PriceSource, feeCapGwei uint64, log logger.Logger) *Estimator {
	if feeCapGwei == 0 {
		feeCapGwei = DefaultFeeCapGwei
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Estimator{source: source, feeCapGwei: feeCapGwei, log: log}
}

// Prices resolves the fee pair for a transaction:
//   - explicit max fee and priority fee are used as given (EIP-1559 path)
//   - an explicit legacy gas price becomes the max fee with a zero tip
//   - otherwise the network price p yields maxFee = min(2p, cap) and
//     tip = min(p/2, 2 gwei)
func (e *Estimator) Prices(ctx context.Context, o Overrides) (Prices, error) {
	if o.MaxFeePerGas != nil && o.MaxPriorityFeePerGas != nil {
		return Prices{
			MaxFeePerGas:         o.MaxFeePerGas,
			MaxPriorityFeePerGas: o.MaxPriorityFeePerGas,
			IsEIP1559:            true,
		}, nil
	}
	if o.GasPrice != nil {
		return Prices{
			MaxFeePerGas:         o.GasPrice,
			MaxPriorityFeePerGas: new(big.Int),
			IsEIP1559:            false,
		}, nil
	}

	networkPrice, err := e.source.GasPrice(ctx)
	if err != nil {
		return Prices{}, fmt.Errorf("failed to fetch gas price: %w", err)
	}

	feeCap := new(big.Int).Mul(big.NewInt(int64(e.feeCapGwei)), big.NewInt(1_000_000_000))
	maxFee := new(big.Int).Lsh(networkPrice, 1)
	if maxFee.Cmp(feeCap) > 0 {
		maxFee = feeCap
	}

	priority := new(big.Int).Rsh(networkPrice, 1)
	if priority.Cmp(big.NewInt(maxDerivedPriorityFee)) > 0 {
		priority = big.NewInt(maxDerivedPriorityFee)
	}

	e.log.Debug("derived fees from network price",
		zap.String("networkPrice", networkPrice.String()),
		zap.String("maxFeePerGas", maxFee.String()),
		zap.String("maxPriorityFeePerGas", priority.String()))

	return Prices{
		MaxFeePerGas:         maxFee,
		MaxPriorityFeePerGas: priority,
		IsEIP1559:            true,
	}, nil
}

// Estimate combines a node gas estimate, the authorization count, and the
// transfer value into a complete gas plan.
func (e *Estimator) Estimate(ctx context.Context, nodeEstimate uint64, authorizationCount int, value *big.Int, o Overrides) (Estimate, error) {
	prices, err := e.Prices(ctx, o)
	if err != nil {
		return Estimate{}, err
	}

	gasLimit := ApplyGasBuffer(nodeEstimate)
	estimateType := TypeEIP1559
	if !prices.IsEIP1559 {
		estimateType = TypeLegacy
	}
	if authorizationCount > 0 {
		gasLimit += DelegationOverhead(authorizationCount, true)
		estimateType = TypeDelegation
	}

	if value == nil {
		value = new(big.Int)
	}
	gasCost := new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), prices.MaxFeePerGas)

	return Estimate{
		GasLimit:             gasLimit,
		MaxFeePerGas:         prices.MaxFeePerGas,
		MaxPriorityFeePerGas: prices.MaxPriorityFeePerGas,
		EstimatedGasCost:     gasCost,
		TotalCost:            new(big.Int).Add(gasCost, value),
		Type:                 estimateType,
	}, nil
}
