package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"walletExport/internal/model"
)

// MaxPageSize is the largest maxCount the transfers endpoint accepts.
const MaxPageSize = 1000

var (
	// ErrReceiptNotFound is returned when the node has no receipt for a hash yet.
	ErrReceiptNotFound = errors.New("receipt not found")
	// ErrMalformedResponse marks a response that cannot be decoded. Fetching
	// it again returns the same payload.
	ErrMalformedResponse = errors.New("malformed response")
)

// Client wraps a go-ethereum RPC client with the indexing API calls.
type Client struct {
	rpcClient *rpc.Client
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return &Client{rpcClient: rpcClient}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

type assetTransfersParams struct {
	FromBlock        string   `json:"fromBlock,omitempty"`
	ToBlock          string   `json:"toBlock,omitempty"`
	FromAddress      string   `json:"fromAddress,omitempty"`
	ToAddress        string   `json:"toAddress,omitempty"`
	Category         []string `json:"category"`
	WithMetadata     bool     `json:"withMetadata"`
	ExcludeZeroValue bool     `json:"excludeZeroValue"`
	MaxCount         string   `json:"maxCount,omitempty"`
	PageKey          string   `json:"pageKey,omitempty"`
}

// AssetTransfers lists one page of transfers for the query, requesting every
// category in a single call.
func (c *Client) AssetTransfers(ctx context.Context, q model.TransferQuery) (model.TransferPage, error) {
	params := assetTransfersParams{
		FromBlock:        q.FromBlock,
		ToBlock:          q.ToBlock,
		Category:         make([]string, 0, len(model.AllCategories)),
		WithMetadata:     true,
		ExcludeZeroValue: false,
		PageKey:          q.Cursor,
	}
	for _, category := range model.AllCategories {
		params.Category = append(params.Category, string(category))
	}

	maxCount := q.MaxCount
	if maxCount <= 0 || maxCount > MaxPageSize {
		maxCount = MaxPageSize
	}
	params.MaxCount = hexutil.EncodeUint64(uint64(maxCount))

	switch q.Direction {
	case model.DirectionSent:
		params.FromAddress = q.Address
	case model.DirectionReceived:
		params.ToAddress = q.Address
	default:
		return model.TransferPage{}, fmt.Errorf("unknown direction %q", q.Direction)
	}

	var resp assetTransfersResponse
	if err := c.rpcClient.CallContext(ctx, &resp, "alchemy_getAssetTransfers", params); err != nil {
		return model.TransferPage{}, err
	}

	page := model.TransferPage{
		Transfers: make([]model.TransferRecord, 0, len(resp.Transfers)),
		Cursor:    resp.PageKey,
	}
	for _, raw := range resp.Transfers {
		rec, err := raw.record()
		if err != nil {
			return model.TransferPage{}, fmt.Errorf("%w: decode transfer %s: %v", ErrMalformedResponse, raw.Hash, err)
		}
		page.Transfers = append(page.Transfers, rec)
	}
	return page, nil
}

type receiptJSON struct {
	TransactionHash   string  `json:"transactionHash"`
	EffectiveGasPrice *string `json:"effectiveGasPrice"`
	GasUsed           *string `json:"gasUsed"`
}

// TransactionReceipt fetches the receipt fields used for fee calculation.
func (c *Client) TransactionReceipt(ctx context.Context, hash string) (model.Receipt, error) {
	var raw json.RawMessage
	if err := c.rpcClient.CallContext(ctx, &raw, "eth_getTransactionReceipt", hash); err != nil {
		return model.Receipt{}, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return model.Receipt{}, fmt.Errorf("%s: %w", hash, ErrReceiptNotFound)
	}

	var receipt receiptJSON
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return model.Receipt{}, fmt.Errorf("%w: parse receipt %s: %v", ErrMalformedResponse, hash, err)
	}

	txHash := receipt.TransactionHash
	if txHash == "" {
		txHash = hash
	}
	return model.Receipt{
		TxHash:            txHash,
		EffectiveGasPrice: deref(receipt.EffectiveGasPrice),
		GasUsed:           deref(receipt.GasUsed),
	}, nil
}
