package model

// Category is the provider's transfer category.
type Category string

const (
	CategoryExternal Category = "external"
	CategoryInternal Category = "internal"
	CategoryERC20    Category = "erc20"
	CategoryERC721   Category = "erc721"
	CategoryERC1155  Category = "erc1155"
)

// AllCategories is requested on every listing call.
var AllCategories = []Category{
	CategoryExternal,
	CategoryInternal,
	CategoryERC20,
	CategoryERC721,
	CategoryERC1155,
}

// Direction selects which side of a transfer the wallet is on.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// SubAsset is one (tokenId, value) entry of an ERC-1155 batch transfer.
type SubAsset struct {
	TokenID string `json:"token_id"`
	Value   string `json:"value"`
}

// TransferRecord is one transfer as reported by the indexing API.
// Value and sub-asset values are base-unit integers in decimal digits.
type TransferRecord struct {
	Hash            string     `json:"hash"`
	Category        Category   `json:"category"`
	From            string     `json:"from"`
	To              string     `json:"to"`
	Value           string     `json:"value"`
	Decimals        *int       `json:"decimals,omitempty"`
	TokenID         string     `json:"token_id"`
	ContractAddress string     `json:"contract_address"`
	Asset           string     `json:"asset"`
	BlockNum        uint64     `json:"block_num"`
	Timestamp       string     `json:"timestamp"`
	LogIndex        string     `json:"log_index"`
	SubAssets       []SubAsset `json:"sub_assets,omitempty"`
	UniqueID        string     `json:"unique_id,omitempty"`
}

// TransferQuery describes one page request.
type TransferQuery struct {
	Address   string
	Direction Direction
	FromBlock string
	ToBlock   string
	Cursor    string
	MaxCount  int
}

// TransferPage is one page of listing results. An empty Cursor means there
// is no continuation.
type TransferPage struct {
	Transfers []TransferRecord
	Cursor    string
}
