package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"walletExport/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS wallet_transfers (
	wallet           TEXT NOT NULL,
	transfer_id      TEXT NOT NULL,
	row_index        INTEGER NOT NULL,
	tx_hash          TEXT NOT NULL,
	block_time       TEXT NOT NULL,
	from_addr        TEXT NOT NULL,
	to_addr          TEXT NOT NULL,
	transfer_type    TEXT NOT NULL,
	contract_address TEXT NOT NULL,
	asset            TEXT NOT NULL,
	token_id         TEXT NOT NULL,
	amount           TEXT NOT NULL,
	fee              TEXT NOT NULL,
	fee_status       TEXT NOT NULL,
	run_id           TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (wallet, transfer_id, row_index)
);

CREATE INDEX IF NOT EXISTS wallet_transfers_tx_hash_idx ON wallet_transfers(tx_hash);
`

// Store mirrors exported rows into Postgres.
type Store struct {
	pool   *pgxpool.Pool
	wallet string
	runID  string
}

func NewStore(ctx context.Context, dsn, wallet, runID string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return New(pool, wallet, runID), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool, wallet, runID string) *Store {
	return &Store{pool: pool, wallet: strings.ToLower(wallet), runID: runID}
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// EnsureSchema creates the mirror table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// WriteRows upserts one page of rows. A re-run overwrites earlier rows for
// the same wallet and transfer.
func (s *Store) WriteRows(ctx context.Context, rows []model.OutputRow) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO wallet_transfers (
				wallet, transfer_id, row_index, tx_hash, block_time, from_addr, to_addr,
				transfer_type, contract_address, asset, token_id, amount, fee, fee_status,
				run_id, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,now(),now())
			ON CONFLICT (wallet, transfer_id, row_index)
			DO UPDATE SET
				tx_hash = EXCLUDED.tx_hash,
				block_time = EXCLUDED.block_time,
				from_addr = EXCLUDED.from_addr,
				to_addr = EXCLUDED.to_addr,
				transfer_type = EXCLUDED.transfer_type,
				contract_address = EXCLUDED.contract_address,
				asset = EXCLUDED.asset,
				token_id = EXCLUDED.token_id,
				amount = EXCLUDED.amount,
				fee = EXCLUDED.fee,
				fee_status = EXCLUDED.fee_status,
				run_id = EXCLUDED.run_id,
				updated_at = now()
		`,
			s.wallet,
			row.TransferID,
			row.Index,
			row.Hash,
			row.Timestamp,
			row.From,
			row.To,
			row.Type,
			row.ContractAddress,
			row.Asset,
			row.TokenID,
			row.Amount,
			row.Fee,
			string(row.FeeStatus),
			s.runID,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range rows {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert wallet transfer: %w", err)
		}
	}
	return nil
}

// CountRows returns the number of mirrored rows for the store's wallet.
func (s *Store) CountRows(ctx context.Context) (int64, error) {
	var n int64
	row := s.pool.QueryRow(ctx, `SELECT count(*) FROM wallet_transfers WHERE wallet=$1`, s.wallet)
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
