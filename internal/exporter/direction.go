package exporter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"walletExport/internal/dedup"
	"walletExport/internal/model"
	"walletExport/internal/normalize"
	"walletExport/internal/transfers"
)

// runDirection pages through one direction, writing each page's new rows
// with fees attached before fetching the next page.
func (e *Exporter) runDirection(ctx context.Context, direction model.Direction, seen *dedup.RollingSet) (Stats, error) {
	stats := Stats{Direction: direction}
	source := transfers.NewSource(e.lister, transfers.Query{
		Address:   e.cfg.Address,
		Direction: direction,
		FromBlock: e.cfg.FromBlock,
		ToBlock:   e.cfg.ToBlock,
		PageSize:  e.cfg.PageSize,
	}, e.cfg.Policy, e.logger)

	for !source.Done() {
		if err := e.limiter.Wait(ctx); err != nil {
			return stats, err
		}

		page, err := source.Next(ctx)
		if err != nil {
			return stats, fmt.Errorf("fetch page %d: %w", source.Pages()+1, err)
		}
		stats.Pages++
		stats.Records += len(page.Transfers)

		rows, hashes, dups := expandPage(page.Transfers, seen)
		stats.Duplicates += dups

		if len(rows) > 0 {
			fees, err := e.fees.Resolve(ctx, hashes)
			if err != nil {
				return stats, fmt.Errorf("resolve fees: %w", err)
			}
			for i := range rows {
				fee, ok := fees[rows[i].Hash]
				if !ok {
					fee = model.UnresolvedFee()
				}
				rows[i] = rows[i].WithFee(fee)
			}
			for _, hash := range hashes {
				if fee, ok := fees[hash]; !ok || fee.Status != model.FeeResolved {
					stats.UnresolvedFees++
				}
			}

			if err := e.sink.WriteRows(ctx, rows); err != nil {
				return stats, fmt.Errorf("write page %d: %w", stats.Pages, err)
			}
		}
		stats.Rows += len(rows)
		stats.Transactions += len(hashes)

		e.logger.Info("page written",
			zap.String("direction", string(direction)),
			zap.Int("page", stats.Pages),
			zap.Int("records", len(page.Transfers)),
			zap.Int("rows", len(rows)),
			zap.Int("duplicates", dups),
			zap.Bool("more", !source.Done()),
		)
	}

	e.logger.Info("direction complete",
		zap.String("direction", string(direction)),
		zap.Int("pages", stats.Pages),
		zap.Int("records", stats.Records),
		zap.Int("rows", stats.Rows),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("unresolved_fees", stats.UnresolvedFees),
	)
	return stats, nil
}

// expandPage admits unseen records into seen and returns their rows in
// listing order together with the page's distinct hashes in first-seen
// order.
func expandPage(records []model.TransferRecord, seen *dedup.RollingSet) ([]model.OutputRow, []string, int) {
	var (
		rows       []model.OutputRow
		hashes     []string
		duplicates int
	)
	pageHashes := make(map[string]struct{})
	for _, rec := range records {
		key := dedup.Key(rec)
		if !seen.Admit(key) {
			duplicates++
			continue
		}
		rows = append(rows, normalize.Rows(rec, key)...)
		if rec.Hash == "" {
			continue
		}
		if _, ok := pageHashes[rec.Hash]; !ok {
			pageHashes[rec.Hash] = struct{}{}
			hashes = append(hashes, rec.Hash)
		}
	}
	return rows, hashes, duplicates
}
