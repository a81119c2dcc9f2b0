package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"codepool/entity"
	"codepool/internal/catalog"
	"codepool/lib/sl"
)

type Store interface {
	GetInventory(ctx context.Context, docId string) (*entity.InventoryDocument, error)
}

// Ledger reconstructs transaction views by scanning code records. A
// transaction has no storage of its own: it exists exactly as long as its
// codes carry its txn id.
type Ledger struct {
	store    Store
	registry *catalog.Registry
	log      *slog.Logger
}

func New(store Store, registry *catalog.Registry, log *slog.Logger) *Ledger {
	if store == nil {
		panic("ledger: store is nil")
	}
	return &Ledger{
		store:    store,
		registry: registry,
		log:      log.With(sl.Module("ledger")),
	}
}

// RetrieveByTransaction returns the codes of one transaction, scanned
// across every known catalog. Both the transaction id and the owner must
// match, so users only ever see their own codes.
func (l *Ledger) RetrieveByTransaction(ctx context.Context, identity, txnId string) ([]entity.TransactionCode, error) {
	if identity == "" {
		return nil, entity.Validationf("requester identity is empty")
	}
	if txnId == "" {
		return nil, entity.Validationf("transaction id is empty")
	}

	var matches []entity.TransactionCode
	for _, cat := range l.registry.All() {
		doc, err := l.store.GetInventory(ctx, cat.DocumentId)
		if errors.Is(err, entity.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for i := range doc.Codes {
			rec := &doc.Codes[i]
			if rec.Used && rec.TxnId == txnId && rec.UsedBy == identity {
				matches = append(matches, entity.TransactionCode{
					Service: cat.Service,
					Code:    rec.Code,
					UsedAt:  rec.UsedAt,
				})
			}
		}
	}
	if len(matches) == 0 {
		return nil, entity.ErrNotFound
	}
	return matches, nil
}

// ListTransactions groups the used records of one catalog into summary
// rows, newest first. Equal timestamps are ordered by ascending txn id so
// the listing is deterministic.
func (l *Ledger) ListTransactions(ctx context.Context, service string) ([]entity.TransactionSummary, error) {
	cat, err := l.registry.Resolve(service)
	if err != nil {
		return nil, err
	}

	doc, err := l.store.GetInventory(ctx, cat.DocumentId)
	if errors.Is(err, entity.ErrNotFound) {
		// catalog never replenished: no transactions
		return []entity.TransactionSummary{}, nil
	}
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*entity.TransactionSummary)
	for i := range doc.Codes {
		rec := &doc.Codes[i]
		if !rec.Used {
			continue
		}
		row, ok := groups[rec.TxnId]
		if !ok {
			groups[rec.TxnId] = &entity.TransactionSummary{
				TxnId:      rec.TxnId,
				OccurredAt: rec.UsedAt,
				Owner:      rec.UsedBy,
				Quantity:   1,
			}
			continue
		}
		row.Quantity++
	}

	rows := make([]entity.TransactionSummary, 0, len(groups))
	for _, row := range groups {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].OccurredAt.Equal(rows[j].OccurredAt) {
			return rows[i].OccurredAt.After(rows[j].OccurredAt)
		}
		return rows[i].TxnId < rows[j].TxnId
	})
	return rows, nil
}
