package model

// OutputRow is one exported line.
type OutputRow struct {
	TransferID      string    `json:"transfer_id"`
	Index           int       `json:"index"`
	Hash            string    `json:"hash"`
	Timestamp       string    `json:"timestamp"`
	From            string    `json:"from"`
	To              string    `json:"to"`
	Type            string    `json:"type"`
	ContractAddress string    `json:"contract_address"`
	Asset           string    `json:"asset"`
	TokenID         string    `json:"token_id"`
	Amount          string    `json:"amount"`
	Fee             string    `json:"fee"`
	FeeStatus       FeeStatus `json:"fee_status"`
}

// WithFee returns a copy of the row carrying fee.
func (r OutputRow) WithFee(fee Fee) OutputRow {
	r.Fee = fee.Amount
	r.FeeStatus = fee.Status
	return r
}
