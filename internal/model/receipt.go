package model

// Receipt carries the receipt fields needed to price a transaction.
// Quantities are kept as returned upstream; empty means missing.
type Receipt struct {
	TxHash            string `json:"tx_hash"`
	EffectiveGasPrice string `json:"effective_gas_price"`
	GasUsed           string `json:"gas_used"`
}

// FeeStatus tells a resolved fee apart from a fallback "0".
type FeeStatus string

const (
	FeeResolved   FeeStatus = "resolved"
	FeeUnresolved FeeStatus = "unresolved"
)

// Fee is the resolved fee of one transaction in whole native units.
type Fee struct {
	Amount string    `json:"amount"`
	Status FeeStatus `json:"status"`
}

// UnresolvedFee is used when a receipt could not be priced.
func UnresolvedFee() Fee {
	return Fee{Amount: "0", Status: FeeUnresolved}
}
