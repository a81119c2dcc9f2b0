package entity

import "time"

// Receipt is returned to the buyer after a successful allocation. The codes
// listed here were exclusively reserved for this call at the moment of the
// winning write.
type Receipt struct {
	TxnId    string    `json:"txn_id"`
	Service  string    `json:"service"`
	Codes    []string  `json:"codes"`
	Quantity int       `json:"quantity"`
	Total    int64     `json:"total"`
	Owner    string    `json:"owner"`
	IssuedAt time.Time `json:"issued_at"`
}

// TransactionSummary is one row of the per-catalog transaction listing,
// grouped by transaction id.
type TransactionSummary struct {
	TxnId      string    `json:"txn_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Owner      string    `json:"owner"`
	Quantity   int       `json:"quantity"`
}

// TransactionCode is one code of a retrieved transaction, tagged with the
// catalog it came from.
type TransactionCode struct {
	Service string    `json:"service"`
	Code    string    `json:"code"`
	UsedAt  time.Time `json:"used_at"`
}
