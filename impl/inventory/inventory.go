package inventory

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"codepool/entity"
	"codepool/internal/catalog"
	"codepool/lib/retry"
	"codepool/lib/sl"
)

type Store interface {
	GetInventory(ctx context.Context, docId string) (*entity.InventoryDocument, error)
	PutInventory(ctx context.Context, doc *entity.InventoryDocument) error
}

// Maintenance is the admin side of the pool: replenishment and resets. It
// runs under the same CAS retry discipline as allocation, so admin writes
// and buyer writes race safely on the same documents.
type Maintenance struct {
	store    Store
	registry *catalog.Registry
	policy   retry.Policy
	log      *slog.Logger
}

func New(store Store, registry *catalog.Registry, policy retry.Policy, log *slog.Logger) *Maintenance {
	if store == nil {
		panic("inventory: store is nil")
	}
	return &Maintenance{
		store:    store,
		registry: registry,
		policy:   policy,
		log:      log.With(sl.Module("inventory")),
	}
}

// AddCodes appends the codes the catalog does not already hold, preserving
// input order. Comparison is case-insensitive and the first occurrence
// wins, both against existing records and against earlier entries of the
// same batch. The document is created on first replenishment.
func (m *Maintenance) AddCodes(ctx context.Context, service string, rawCodes []string) (added, skipped []string, err error) {
	cat, err := m.registry.Resolve(service)
	if err != nil {
		return nil, nil, err
	}

	err = m.policy.Do(ctx, func() error {
		added, skipped = added[:0], skipped[:0]

		doc, err := m.store.GetInventory(ctx, cat.DocumentId)
		if errors.Is(err, entity.ErrNotFound) {
			doc = &entity.InventoryDocument{Id: cat.DocumentId}
		} else if err != nil {
			return err
		}

		seen := make(map[string]struct{}, len(doc.Codes))
		for i := range doc.Codes {
			seen[doc.Codes[i].Key()] = struct{}{}
		}

		for _, raw := range rawCodes {
			code := strings.TrimSpace(raw)
			if code == "" {
				continue
			}
			key := strings.ToLower(code)
			if _, dup := seen[key]; dup {
				skipped = append(skipped, code)
				continue
			}
			seen[key] = struct{}{}
			doc.Codes = append(doc.Codes, entity.CodeRecord{Code: code})
			added = append(added, code)
		}

		return m.store.PutInventory(ctx, doc)
	})
	if err != nil {
		return nil, nil, err
	}

	m.log.With(
		slog.String("service", cat.Service),
		slog.Int("added", len(added)),
		slog.Int("skipped", len(skipped)),
	).Info("codes added")
	return added, skipped, nil
}

// ResetCodes returns every record of one catalog to the unused state. Past
// transactions cease to exist once their identifying fields are cleared.
// Idempotent: already-unused records are untouched.
func (m *Maintenance) ResetCodes(ctx context.Context, service string) error {
	cat, err := m.registry.Resolve(service)
	if err != nil {
		return err
	}
	return m.reset(ctx, cat)
}

// ResetAll resets every catalog in the registry, skipping catalogs that
// were never replenished.
func (m *Maintenance) ResetAll(ctx context.Context) error {
	for _, cat := range m.registry.All() {
		err := m.reset(ctx, cat)
		if err != nil && !errors.Is(err, entity.ErrUnknownCatalog) {
			return err
		}
	}
	return nil
}

func (m *Maintenance) reset(ctx context.Context, cat catalog.Catalog) error {
	err := m.policy.Do(ctx, func() error {
		doc, err := m.store.GetInventory(ctx, cat.DocumentId)
		if errors.Is(err, entity.ErrNotFound) {
			return entity.ErrUnknownCatalog
		}
		if err != nil {
			return err
		}
		for i := range doc.Codes {
			doc.Codes[i].Reset()
		}
		err = m.store.PutInventory(ctx, doc)
		if errors.Is(err, entity.ErrNotFound) {
			return entity.ErrUnknownCatalog
		}
		return err
	})
	if err != nil {
		return err
	}
	m.log.With(slog.String("service", cat.Service)).Info("catalog reset")
	return nil
}
