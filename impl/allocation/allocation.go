package allocation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"codepool/entity"
	"codepool/internal/catalog"
	"codepool/lib/retry"
	"codepool/lib/sl"
)

const DefaultMaxQuantity = 10

// Store is the slice of the document store the engine needs. Both the
// MongoDB adapter and the in-memory store satisfy it.
type Store interface {
	GetInventory(ctx context.Context, docId string) (*entity.InventoryDocument, error)
	PutInventory(ctx context.Context, doc *entity.InventoryDocument) error
}

// Notifier receives the receipt of a successful allocation. Delivery is
// best effort and runs outside the request path.
type Notifier interface {
	Send(receipt *entity.Receipt) error
}

// Engine reserves unused codes from a catalog document. It holds no locks:
// every mutation goes through the store's revision check, and losers of a
// race re-read and retry under the bounded retry policy. The catalog
// document is the only serialization point.
type Engine struct {
	store    Store
	registry *catalog.Registry
	policy   retry.Policy
	maxQty   int
	notifier Notifier
	log      *slog.Logger
}

func New(store Store, registry *catalog.Registry, policy retry.Policy, maxQty int, log *slog.Logger) *Engine {
	if store == nil {
		panic("allocation: store is nil")
	}
	if maxQty < 1 {
		maxQty = DefaultMaxQuantity
	}
	return &Engine{
		store:    store,
		registry: registry,
		policy:   policy,
		maxQty:   maxQty,
		log:      log.With(sl.Module("allocation")),
	}
}

func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

// MaxQuantity is the policy cap per allocation.
func (e *Engine) MaxQuantity() int {
	return e.maxQty
}

// Allocate reserves exactly quantity unused codes from the named catalog
// for the requester. Selection is FIFO over insertion order. On success the
// returned codes are exclusively reserved for this call: no other
// successful call can ever return any of them.
func (e *Engine) Allocate(ctx context.Context, service, identity string, quantity int) (*entity.Receipt, error) {
	if identity == "" {
		return nil, entity.Validationf("requester identity is empty")
	}
	cat, err := e.registry.Resolve(service)
	if err != nil {
		return nil, err
	}
	if quantity < 1 || quantity > e.maxQty {
		return nil, entity.Validationf("quantity must be between 1 and %d", e.maxQty)
	}

	var receipt *entity.Receipt
	err = e.policy.Do(ctx, func() error {
		doc, err := e.store.GetInventory(ctx, cat.DocumentId)
		if errors.Is(err, entity.ErrNotFound) {
			return entity.ErrUnknownCatalog
		}
		if err != nil {
			return err
		}

		unused := doc.Unused()
		if len(unused) == 0 {
			return entity.ErrOutOfStock
		}
		if len(unused) < quantity {
			return &entity.InsufficientStockError{Available: len(unused)}
		}

		txnId := uuid.NewString()
		now := time.Now().UTC()
		selected := make([]string, 0, quantity)
		for _, i := range unused[:quantity] {
			doc.Codes[i].MarkUsed(identity, txnId, now)
			selected = append(selected, doc.Codes[i].Code)
		}

		// conflict here means another writer committed since our read; the
		// policy re-runs this whole closure against a fresh document
		err = e.store.PutInventory(ctx, doc)
		if errors.Is(err, entity.ErrNotFound) {
			return entity.ErrUnknownCatalog
		}
		if err != nil {
			return err
		}

		receipt = &entity.Receipt{
			TxnId:    txnId,
			Service:  cat.Service,
			Codes:    selected,
			Quantity: quantity,
			Total:    int64(quantity) * cat.UnitPrice,
			Owner:    identity,
			IssuedAt: now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.With(
		slog.String("service", cat.Service),
		slog.String("txn_id", receipt.TxnId),
		slog.Int("quantity", quantity),
	).Info("codes allocated")

	e.dispatch(receipt)
	return receipt, nil
}

// dispatch fires the notification hook without blocking the caller. Hook
// failures never alter the already-committed allocation.
func (e *Engine) dispatch(receipt *entity.Receipt) {
	if e.notifier == nil {
		return
	}
	go func() {
		if err := e.notifier.Send(receipt); err != nil {
			e.log.With(
				slog.String("txn_id", receipt.TxnId),
				sl.Err(err),
			).Warn("notification failed")
		}
	}()
}
