package entity

import (
	"strings"
	"time"
)

// CodeRecord is a single redemption code inside a catalog. An unused record
// carries only the code itself; UsedBy, UsedAt and TxnId are set together
// the moment the code is issued and cleared together on reset.
type CodeRecord struct {
	Code   string    `json:"code" bson:"code"`
	Used   bool      `json:"used" bson:"used"`
	UsedBy string    `json:"used_by,omitempty" bson:"used_by,omitempty"`
	UsedAt time.Time `json:"used_at,omitempty" bson:"used_at,omitempty"`
	TxnId  string    `json:"txn_id,omitempty" bson:"txn_id,omitempty"`
}

func (c *CodeRecord) MarkUsed(identity, txnId string, at time.Time) {
	c.Used = true
	c.UsedBy = identity
	c.UsedAt = at
	c.TxnId = txnId
}

func (c *CodeRecord) Reset() {
	c.Used = false
	c.UsedBy = ""
	c.UsedAt = time.Time{}
	c.TxnId = ""
}

// Key is the case-insensitive form of the code used for deduplication.
// The stored code keeps its original casing.
func (c *CodeRecord) Key() string {
	return strings.ToLower(c.Code)
}

// InventoryDocument is one catalog: an ordered pool of codes plus the store
// revision it was read at. Code order is insertion order and is the FIFO
// tie-break for allocation. Revision 0 means the document has not been
// written yet.
type InventoryDocument struct {
	Id       string       `json:"id" bson:"_id"`
	Codes    []CodeRecord `json:"codes" bson:"codes"`
	Revision int64        `json:"-" bson:"rev"`
}

// Unused returns the indexes of unused records in original order.
func (d *InventoryDocument) Unused() []int {
	var idx []int
	for i := range d.Codes {
		if !d.Codes[i].Used {
			idx = append(idx, i)
		}
	}
	return idx
}
