//go:build integration

package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"walletExport/internal/model"
	"walletExport/internal/storage/postgres"
)

func TestStore_WriteRowsUpserts(t *testing.T) {
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)

	wallet := "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	store := postgres.New(pool, wallet, "run-1")
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	_, _ = pool.Exec(ctx, "DELETE FROM wallet_transfers WHERE wallet=$1", "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	rows := []model.OutputRow{
		{TransferID: "0x1:log:0", Index: 0, Hash: "0x1", Type: "ERC-1155", TokenID: "1", Amount: "5", Fee: "0", FeeStatus: model.FeeUnresolved},
		{TransferID: "0x1:log:0", Index: 1, Hash: "0x1", Type: "ERC-1155", TokenID: "2", Amount: "7", Fee: "0", FeeStatus: model.FeeUnresolved},
	}
	if err := store.WriteRows(ctx, rows); err != nil {
		t.Fatalf("WriteRows: %v", err)
	}

	rows[0].Fee = "0.000021"
	rows[0].FeeStatus = model.FeeResolved
	if err := store.WriteRows(ctx, rows[:1]); err != nil {
		t.Fatalf("WriteRows again: %v", err)
	}

	n, err := store.CountRows(ctx)
	if err != nil {
		t.Fatalf("CountRows: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}

	var fee, status string
	err = pool.QueryRow(ctx, `SELECT fee, fee_status FROM wallet_transfers WHERE wallet=$1 AND transfer_id=$2 AND row_index=0`,
		"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "0x1:log:0").Scan(&fee, &status)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if fee != "0.000021" || status != "resolved" {
		t.Fatalf("upsert did not overwrite: fee=%s status=%s", fee, status)
	}
}
