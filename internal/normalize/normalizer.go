package normalize

import (
	"github.com/ethereum/go-ethereum/common"

	"walletExport/internal/model"
)

const (
	TypeERC20               = "ERC-20"
	TypeERC721              = "ERC-721"
	TypeERC1155             = "ERC-1155"
	TypeNativeTransfer      = "ETH transfer"
	TypeContractInteraction = "contract interaction"
)

// InferType labels a transfer by category. External transfers that carry no
// value or go to the zero address are contract interactions.
func InferType(rec model.TransferRecord) string {
	switch rec.Category {
	case model.CategoryERC20:
		return TypeERC20
	case model.CategoryERC721:
		return TypeERC721
	case model.CategoryERC1155:
		return TypeERC1155
	case model.CategoryExternal:
		if isZeroValue(rec.Value) || isZeroAddress(rec.To) {
			return TypeContractInteraction
		}
		return TypeNativeTransfer
	default:
		return TypeNativeTransfer
	}
}

// Rows expands a transfer into output rows without fee data. ERC-1155 batches
// yield one row per sub-asset in list order; everything else yields one row.
func Rows(rec model.TransferRecord, transferID string) []model.OutputRow {
	base := model.OutputRow{
		TransferID:      transferID,
		Hash:            rec.Hash,
		Timestamp:       rec.Timestamp,
		From:            rec.From,
		To:              rec.To,
		Type:            InferType(rec),
		ContractAddress: rec.ContractAddress,
		Asset:           rec.Asset,
	}

	if rec.Category == model.CategoryERC1155 && len(rec.SubAssets) > 0 {
		rows := make([]model.OutputRow, 0, len(rec.SubAssets))
		for i, sub := range rec.SubAssets {
			row := base
			row.Index = i
			row.TokenID = sub.TokenID
			row.Amount = formatAmount(sub.Value, 0)
			rows = append(rows, row)
		}
		return rows
	}

	row := base
	row.TokenID = rec.TokenID
	row.Amount = amountOf(rec)
	return []model.OutputRow{row}
}

func amountOf(rec model.TransferRecord) string {
	switch rec.Category {
	case model.CategoryERC721:
		return "1"
	case model.CategoryExternal, model.CategoryInternal:
		decimals := NativeDecimals
		if rec.Decimals != nil {
			decimals = *rec.Decimals
		}
		return formatAmount(rec.Value, decimals)
	case model.CategoryERC20:
		decimals := 0
		if rec.Decimals != nil {
			decimals = *rec.Decimals
		}
		return formatAmount(rec.Value, decimals)
	default:
		return formatAmount(rec.Value, 0)
	}
}

func isZeroAddress(addr string) bool {
	if addr == "" {
		return true
	}
	if !common.IsHexAddress(addr) {
		return false
	}
	return common.HexToAddress(addr) == (common.Address{})
}
