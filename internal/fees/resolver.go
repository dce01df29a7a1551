package fees

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"walletExport/internal/model"
	"walletExport/internal/normalize"
	"walletExport/internal/retry"
)

const (
	// DefaultConcurrency is the number of receipt lookups kept in flight.
	DefaultConcurrency = 200
	// MaxConcurrency caps the configurable fan-out.
	MaxConcurrency = 1000
)

// ReceiptFetcher is the receipt lookup operation of the indexing API.
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, hash string) (model.Receipt, error)
}

// Config controls resolution fan-out and retries.
type Config struct {
	Concurrency int
	Policy      retry.Policy
}

// Validate checks the concurrency bound.
func (c Config) Validate() error {
	if c.Concurrency < 1 || c.Concurrency > MaxConcurrency {
		return fmt.Errorf("fee concurrency must be within [1, %d], got %d", MaxConcurrency, c.Concurrency)
	}
	return nil
}

// Resolver prices transactions from their receipts.
type Resolver struct {
	fetcher ReceiptFetcher
	cfg     Config
	logger  *zap.Logger
}

// NewResolver builds a Resolver.
func NewResolver(fetcher ReceiptFetcher, cfg Config, logger *zap.Logger) (*Resolver, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("receipt fetcher is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{fetcher: fetcher, cfg: cfg, logger: logger}, nil
}

// Resolve returns a fee for every hash. Lookups that fail after retries
// degrade to an unresolved "0" fee for that hash only. An error is returned
// only when ctx is done.
func (r *Resolver) Resolve(ctx context.Context, hashes []string) (map[string]model.Fee, error) {
	out := make(map[string]model.Fee, len(hashes))
	if len(hashes) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(r.cfg.Concurrency)

	for _, hash := range hashes {
		mu.Lock()
		_, dup := out[hash]
		if !dup {
			out[hash] = model.UnresolvedFee()
		}
		mu.Unlock()
		if dup {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		hash := hash
		g.Go(func() error {
			fee := r.resolveOne(ctx, hash)
			mu.Lock()
			out[hash] = fee
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resolver) resolveOne(ctx context.Context, hash string) model.Fee {
	policy := r.cfg.Policy
	policy.OnRetry = func(attempt int, wait time.Duration, err error) {
		r.logger.Debug("receipt lookup failed", zap.String("tx_hash", hash), zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
	}

	var receipt model.Receipt
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		var err error
		receipt, err = r.fetcher.TransactionReceipt(ctx, hash)
		return err
	})
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("fee unresolved: receipt lookup exhausted", zap.String("tx_hash", hash), zap.Error(err))
		}
		return model.UnresolvedFee()
	}

	fee, ok := Compute(receipt)
	if !ok {
		r.logger.Warn("fee unresolved: receipt fields missing or invalid",
			zap.String("tx_hash", hash),
			zap.String("effective_gas_price", receipt.EffectiveGasPrice),
			zap.String("gas_used", receipt.GasUsed),
		)
	}
	return fee
}

// Compute prices a receipt as effective gas price times gas used, in whole
// native units. It reports false when either field is missing or not a
// non-negative integer.
func Compute(receipt model.Receipt) (model.Fee, bool) {
	price, ok := normalize.ParseInteger(receipt.EffectiveGasPrice)
	if !ok || price.Sign() < 0 {
		return model.UnresolvedFee(), false
	}
	used, ok := normalize.ParseInteger(receipt.GasUsed)
	if !ok || used.Sign() < 0 {
		return model.UnresolvedFee(), false
	}
	total := new(big.Int).Mul(price, used)
	return model.Fee{
		Amount: normalize.FormatUnits(total, normalize.NativeDecimals),
		Status: model.FeeResolved,
	}, true
}
