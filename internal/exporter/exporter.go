package exporter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"walletExport/internal/chain"
	"walletExport/internal/dedup"
	"walletExport/internal/model"
	"walletExport/internal/retry"
	"walletExport/internal/storage"
	"walletExport/internal/transfers"
)

const (
	// DefaultDedupCapacity bounds the keys remembered across both passes.
	DefaultDedupCapacity = 100000
	// DefaultPageInterval is the minimum spacing between page fetch starts.
	DefaultPageInterval = 120 * time.Millisecond
)

// FeeResolver prices a page's distinct transaction hashes.
type FeeResolver interface {
	Resolve(ctx context.Context, hashes []string) (map[string]model.Fee, error)
}

// Config holds runtime settings for one export.
type Config struct {
	Address       string
	FromBlock     string
	ToBlock       string
	PageSize      int
	DedupCapacity int
	PageInterval  time.Duration
	Policy        retry.Policy
	RunID         string
}

// Stats counts the work done by one direction pass.
type Stats struct {
	Direction      model.Direction `json:"direction"`
	Pages          int             `json:"pages"`
	Records        int             `json:"records"`
	Duplicates     int             `json:"duplicates"`
	Rows           int             `json:"rows"`
	Transactions   int             `json:"transactions"`
	UnresolvedFees int             `json:"unresolved_fees"`
}

// Summary reports a completed export.
type Summary struct {
	RunID    string        `json:"run_id"`
	Address  string        `json:"address"`
	Sent     Stats         `json:"sent"`
	Received Stats         `json:"received"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Rows returns the total number of rows written.
func (s Summary) Rows() int {
	return s.Sent.Rows + s.Received.Rows
}

// Exporter drives the sent and received passes for one address.
type Exporter struct {
	cfg     Config
	lister  transfers.Lister
	fees    FeeResolver
	sink    storage.Sink
	logger  *zap.Logger
	limiter *rate.Limiter
}

// New builds an Exporter with its dependencies.
func New(cfg Config, lister transfers.Lister, fees FeeResolver, sink storage.Sink, logger *zap.Logger) (*Exporter, error) {
	if lister == nil {
		return nil, fmt.Errorf("transfer lister is nil")
	}
	if fees == nil {
		return nil, fmt.Errorf("fee resolver is nil")
	}
	if sink == nil {
		return nil, fmt.Errorf("sink is nil")
	}
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, fmt.Errorf("address is required")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = chain.MaxPageSize
	}
	if cfg.DedupCapacity <= 0 {
		return nil, fmt.Errorf("dedup capacity must be greater than zero")
	}
	if cfg.PageInterval < 0 {
		return nil, fmt.Errorf("page interval must not be negative")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Page fetches start at least PageInterval apart. Fee resolution and
	// writes count toward the gap, so slow pages are not delayed further.
	limit := rate.Inf
	if cfg.PageInterval > 0 {
		limit = rate.Every(cfg.PageInterval)
	}
	return &Exporter{
		cfg:     cfg,
		lister:  lister,
		fees:    fees,
		sink:    sink,
		logger:  logger,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// Run exports the sent pass to completion, then the received pass. Both
// passes share one dedup set so a transfer listed by both is written once.
func (e *Exporter) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: e.cfg.RunID, Address: e.cfg.Address}
	seen := dedup.NewRollingSet(e.cfg.DedupCapacity)

	e.logger.Info("export start",
		zap.String("address", e.cfg.Address),
		zap.String("from_block", e.cfg.FromBlock),
		zap.String("to_block", e.cfg.ToBlock),
		zap.Int("dedup_capacity", e.cfg.DedupCapacity),
	)

	sent, err := e.runDirection(ctx, model.DirectionSent, seen)
	summary.Sent = sent
	if err != nil {
		return summary, fmt.Errorf("direction %s: %w", model.DirectionSent, err)
	}

	received, err := e.runDirection(ctx, model.DirectionReceived, seen)
	summary.Received = received
	if err != nil {
		return summary, fmt.Errorf("direction %s: %w", model.DirectionReceived, err)
	}

	summary.Elapsed = time.Since(start)
	e.logger.Info("export complete",
		zap.String("run_id", summary.RunID),
		zap.Int("rows", summary.Rows()),
		zap.Int("sent_rows", sent.Rows),
		zap.Int("received_rows", received.Rows),
		zap.Int("duplicates", sent.Duplicates+received.Duplicates),
		zap.Int("unresolved_fees", sent.UnresolvedFees+received.UnresolvedFees),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}
