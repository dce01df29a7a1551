package chain

import (
	"fmt"
	"math/big"
	"strings"

	"walletExport/internal/model"
	"walletExport/internal/normalize"
)

type assetTransfersResponse struct {
	Transfers []assetTransfer `json:"transfers"`
	PageKey   string          `json:"pageKey"`
}

type assetTransfer struct {
	BlockNum        string            `json:"blockNum"`
	UniqueID        string            `json:"uniqueId"`
	Hash            string            `json:"hash"`
	From            string            `json:"from"`
	To              *string           `json:"to"`
	ERC721TokenID   *string           `json:"erc721TokenId"`
	ERC1155Metadata []erc1155Metadata `json:"erc1155Metadata"`
	TokenID         *string           `json:"tokenId"`
	Asset           *string           `json:"asset"`
	Category        string            `json:"category"`
	RawContract     rawContract       `json:"rawContract"`
	Metadata        *transferMetadata `json:"metadata"`
}

type erc1155Metadata struct {
	TokenID string `json:"tokenId"`
	Value   string `json:"value"`
}

type rawContract struct {
	Value   *string `json:"value"`
	Address *string `json:"address"`
	Decimal *string `json:"decimal"`
}

type transferMetadata struct {
	BlockTimestamp string `json:"blockTimestamp"`
}

func (t assetTransfer) record() (model.TransferRecord, error) {
	rec := model.TransferRecord{
		Hash:            t.Hash,
		Category:        model.Category(strings.ToLower(t.Category)),
		From:            t.From,
		To:              deref(t.To),
		TokenID:         tokenID(deref(t.ERC721TokenID)),
		ContractAddress: deref(t.RawContract.Address),
		Asset:           deref(t.Asset),
		LogIndex:        logIndexFromUniqueID(t.UniqueID),
		UniqueID:        t.UniqueID,
	}
	if rec.TokenID == "" {
		rec.TokenID = tokenID(deref(t.TokenID))
	}
	if t.Metadata != nil {
		rec.Timestamp = t.Metadata.BlockTimestamp
	}

	if t.BlockNum != "" {
		blockNum, err := quantity(t.BlockNum)
		if err != nil {
			return model.TransferRecord{}, fmt.Errorf("block number: %w", err)
		}
		if !blockNum.IsUint64() {
			return model.TransferRecord{}, fmt.Errorf("block number out of range: %s", t.BlockNum)
		}
		rec.BlockNum = blockNum.Uint64()
	}

	if raw := deref(t.RawContract.Value); raw != "" {
		value, err := quantity(raw)
		if err != nil {
			return model.TransferRecord{}, fmt.Errorf("value: %w", err)
		}
		rec.Value = value.String()
	}

	if raw := deref(t.RawContract.Decimal); raw != "" {
		decimals, err := quantity(raw)
		if err != nil || !decimals.IsInt64() || decimals.Int64() > 255 {
			return model.TransferRecord{}, fmt.Errorf("decimals: invalid %q", raw)
		}
		d := int(decimals.Int64())
		rec.Decimals = &d
	}

	for _, meta := range t.ERC1155Metadata {
		value := ""
		if meta.Value != "" {
			v, err := quantity(meta.Value)
			if err != nil {
				return model.TransferRecord{}, fmt.Errorf("erc1155 value: %w", err)
			}
			value = v.String()
		}
		rec.SubAssets = append(rec.SubAssets, model.SubAsset{TokenID: tokenID(meta.TokenID), Value: value})
	}

	return rec, nil
}

// quantity parses a non-negative hex or decimal quantity. Leading zeros are
// tolerated since the provider pads raw values to 32 bytes.
func quantity(raw string) (*big.Int, error) {
	value, ok := normalize.ParseInteger(raw)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("invalid quantity %q", raw)
	}
	return value, nil
}

// tokenID renders a provider token id in decimal digits, like amounts.
// Ids that are not integers are kept as given.
func tokenID(raw string) string {
	if raw == "" {
		return ""
	}
	value, err := quantity(raw)
	if err != nil {
		return raw
	}
	return value.String()
}

func logIndexFromUniqueID(uniqueID string) string {
	idx := strings.LastIndex(uniqueID, ":log:")
	if idx < 0 {
		return ""
	}
	return uniqueID[idx+len(":log:"):]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
