package normalize

import (
	"math/big"
	"testing"

	"walletExport/internal/model"
)

const (
	wallet  = "0x1111111111111111111111111111111111111111"
	peer    = "0x2222222222222222222222222222222222222222"
	zero    = "0x0000000000000000000000000000000000000000"
	token   = "0x3333333333333333333333333333333333333333"
	oneUnit = "1000000000000000000"
)

func intPtr(v int) *int { return &v }

func TestInferType(t *testing.T) {
	cases := []struct {
		name string
		rec  model.TransferRecord
		want string
	}{
		{"erc20", model.TransferRecord{Category: model.CategoryERC20, Value: "5", To: peer}, TypeERC20},
		{"erc721", model.TransferRecord{Category: model.CategoryERC721, To: peer}, TypeERC721},
		{"erc1155", model.TransferRecord{Category: model.CategoryERC1155, To: peer}, TypeERC1155},
		{"external zero value", model.TransferRecord{Category: model.CategoryExternal, Value: "0", To: peer}, TypeContractInteraction},
		{"external zero value to zero address", model.TransferRecord{Category: model.CategoryExternal, Value: "0", To: zero}, TypeContractInteraction},
		{"external value to zero address", model.TransferRecord{Category: model.CategoryExternal, Value: oneUnit, To: zero}, TypeContractInteraction},
		{"external missing value", model.TransferRecord{Category: model.CategoryExternal, To: peer}, TypeContractInteraction},
		{"external contract creation", model.TransferRecord{Category: model.CategoryExternal, Value: oneUnit}, TypeContractInteraction},
		{"external non-zero", model.TransferRecord{Category: model.CategoryExternal, Value: oneUnit, To: peer}, TypeNativeTransfer},
		{"internal", model.TransferRecord{Category: model.CategoryInternal, Value: "0", To: peer}, TypeNativeTransfer},
	}

	for _, tc := range cases {
		if got := InferType(tc.rec); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestRowsERC1155Batch(t *testing.T) {
	rec := model.TransferRecord{
		Hash:            "0xbatch",
		Category:        model.CategoryERC1155,
		From:            wallet,
		To:              peer,
		ContractAddress: token,
		Asset:           "ITEMS",
		Timestamp:       "2024-01-01T00:00:00.000Z",
		SubAssets: []model.SubAsset{
			{TokenID: "0x1", Value: "10"},
			{TokenID: "0x2", Value: "0x14"},
			{TokenID: "0x3", Value: "30"},
		},
	}

	rows := Rows(rec, "id")
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	wantTokens := []string{"0x1", "0x2", "0x3"}
	wantAmounts := []string{"10", "20", "30"}
	for i, row := range rows {
		if row.TokenID != wantTokens[i] || row.Amount != wantAmounts[i] {
			t.Fatalf("row %d mismatch: %+v", i, row)
		}
		if row.Index != i {
			t.Fatalf("row %d has index %d", i, row.Index)
		}
		if row.Hash != rec.Hash || row.From != wallet || row.To != peer || row.Timestamp != rec.Timestamp {
			t.Fatalf("row %d lost shared fields: %+v", i, row)
		}
		if row.Type != TypeERC1155 || row.TransferID != "id" {
			t.Fatalf("row %d type/id mismatch: %+v", i, row)
		}
	}
}

func TestRowsERC1155SingleWithoutSubAssets(t *testing.T) {
	rec := model.TransferRecord{Category: model.CategoryERC1155, TokenID: "0x9", Value: "4"}
	rows := Rows(rec, "id")
	if len(rows) != 1 || rows[0].TokenID != "0x9" || rows[0].Amount != "4" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestRowsERC721AmountIsOne(t *testing.T) {
	for _, value := range []string{"", "0", "7", oneUnit} {
		rec := model.TransferRecord{Category: model.CategoryERC721, TokenID: "0x2a", Value: value}
		rows := Rows(rec, "id")
		if len(rows) != 1 || rows[0].Amount != "1" || rows[0].TokenID != "0x2a" {
			t.Fatalf("value %q: unexpected rows %+v", value, rows)
		}
	}
}

func TestRowsAmounts(t *testing.T) {
	cases := []struct {
		name string
		rec  model.TransferRecord
		want string
	}{
		{"native one unit", model.TransferRecord{Category: model.CategoryExternal, Value: oneUnit, To: peer}, "1"},
		{"native fraction", model.TransferRecord{Category: model.CategoryInternal, Value: "1500000000000000"}, "0.0015"},
		{"native missing", model.TransferRecord{Category: model.CategoryExternal, To: peer}, "0"},
		{"erc20 with decimals", model.TransferRecord{Category: model.CategoryERC20, Value: "2500000", Decimals: intPtr(6)}, "2.5"},
		{"erc20 unknown decimals", model.TransferRecord{Category: model.CategoryERC20, Value: "2500000"}, "2500000"},
		{"erc20 missing value", model.TransferRecord{Category: model.CategoryERC20}, "0"},
	}
	for _, tc := range cases {
		rows := Rows(tc.rec, "id")
		if len(rows) != 1 {
			t.Fatalf("%s: expected one row, got %d", tc.name, len(rows))
		}
		if rows[0].Amount != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, rows[0].Amount)
		}
		if rows[0].TokenID != "" {
			t.Fatalf("%s: token id should be empty", tc.name)
		}
	}
}

func TestFormatUnits(t *testing.T) {
	cases := []struct {
		value    *big.Int
		decimals int
		want     string
	}{
		{big.NewInt(42000), 18, "0.000042"},
		{big.NewInt(21000), 18, "0.000021"},
		{new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil), 18, "1"},
		{big.NewInt(0), 18, "0"},
		{big.NewInt(1), 18, "0.000000000000000001"},
		{big.NewInt(123450), 2, "1234.5"},
		{big.NewInt(77), 0, "77"},
		{nil, 18, "0"},
	}
	for _, tc := range cases {
		if got := FormatUnits(tc.value, tc.decimals); got != tc.want {
			t.Fatalf("FormatUnits(%v, %d) = %q, want %q", tc.value, tc.decimals, got, tc.want)
		}
	}
}

func TestParseInteger(t *testing.T) {
	if v, ok := ParseInteger("0x5208"); !ok || v.Int64() != 21000 {
		t.Fatalf("hex parse failed: %v %v", v, ok)
	}
	if v, ok := ParseInteger("21000"); !ok || v.Int64() != 21000 {
		t.Fatalf("decimal parse failed: %v %v", v, ok)
	}
	if _, ok := ParseInteger(""); ok {
		t.Fatalf("empty input should not parse")
	}
	if _, ok := ParseInteger("0xzz"); ok {
		t.Fatalf("garbage should not parse")
	}
}
