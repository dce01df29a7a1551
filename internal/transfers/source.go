package transfers

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"walletExport/internal/model"
	"walletExport/internal/retry"
)

// ErrExhausted is returned by Next once the listing has terminated.
var ErrExhausted = errors.New("transfer listing exhausted")

// Lister is the paged listing operation of the indexing API.
type Lister interface {
	AssetTransfers(ctx context.Context, q model.TransferQuery) (model.TransferPage, error)
}

// Query fixes the (address, direction, block range) of one iteration.
type Query struct {
	Address   string
	Direction model.Direction
	FromBlock string
	ToBlock   string
	PageSize  int
}

// Source iterates the pages of one (address, direction) listing by cursor.
type Source struct {
	lister Lister
	query  Query
	policy retry.Policy
	logger *zap.Logger

	cursor string
	pages  int
	done   bool
}

// NewSource builds a Source. Every fetch goes through policy.
func NewSource(lister Lister, query Query, policy retry.Policy, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		lister: lister,
		query:  query,
		policy: policy,
		logger: logger,
	}
}

// Done reports whether the listing has terminated.
func (s *Source) Done() bool {
	return s.done
}

// Pages returns the number of pages fetched so far.
func (s *Source) Pages() int {
	return s.pages
}

// Next fetches the page at the current cursor and advances. The listing ends
// after a page without a continuation cursor; an empty page that still
// carries a cursor does not end it.
func (s *Source) Next(ctx context.Context) (model.TransferPage, error) {
	if s.done {
		return model.TransferPage{}, ErrExhausted
	}

	q := model.TransferQuery{
		Address:   s.query.Address,
		Direction: s.query.Direction,
		FromBlock: s.query.FromBlock,
		ToBlock:   s.query.ToBlock,
		Cursor:    s.cursor,
		MaxCount:  s.query.PageSize,
	}

	policy := s.policy
	onRetry := policy.OnRetry
	policy.OnRetry = func(attempt int, wait time.Duration, err error) {
		s.logger.Warn("list transfers failed",
			zap.Error(err),
			zap.String("direction", string(s.query.Direction)),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
		)
		if onRetry != nil {
			onRetry(attempt, wait, err)
		}
	}

	var page model.TransferPage
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		var err error
		page, err = s.lister.AssetTransfers(ctx, q)
		return err
	})
	if err != nil {
		return model.TransferPage{}, err
	}

	s.pages++
	s.cursor = page.Cursor
	if page.Cursor == "" {
		s.done = true
	}
	return page, nil
}
