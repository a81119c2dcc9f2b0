package catalog

import (
	"codepool/entity"
	"codepool/internal/config"
)

// Catalog describes one code pool: the document it lives in and the unit
// price applied per code.
type Catalog struct {
	Service    string
	DocumentId string
	UnitPrice  int64
}

// Registry maps logical service names to catalog documents. It is built
// once at startup and read-only afterwards; adding a catalog is a config
// entry, not a code change.
type Registry struct {
	byService map[string]Catalog
	order     []string
}

// defaults cover the catalogs the service shipped with before the registry
// became configurable.
var defaults = []config.CatalogEntry{
	{Service: "itunes", DocumentId: "codes_itunes", UnitPrice: 2500},
	{Service: "google-play", DocumentId: "codes_google_play", UnitPrice: 2500},
	{Service: "steam", DocumentId: "codes_steam", UnitPrice: 2000},
}

func New(entries []config.CatalogEntry) *Registry {
	if len(entries) == 0 {
		entries = defaults
	}
	r := &Registry{byService: make(map[string]Catalog, len(entries))}
	for _, e := range entries {
		if e.Service == "" || e.DocumentId == "" {
			continue
		}
		if _, dup := r.byService[e.Service]; dup {
			continue
		}
		r.byService[e.Service] = Catalog{
			Service:    e.Service,
			DocumentId: e.DocumentId,
			UnitPrice:  e.UnitPrice,
		}
		r.order = append(r.order, e.Service)
	}
	return r
}

// Resolve returns the catalog for a service name. Unknown names are a
// validation failure: the store is never consulted for them.
func (r *Registry) Resolve(service string) (Catalog, error) {
	cat, ok := r.byService[service]
	if !ok {
		return Catalog{}, entity.Validationf("unknown service %q", service)
	}
	return cat, nil
}

// All returns every catalog in registration order.
func (r *Registry) All() []Catalog {
	list := make([]Catalog, 0, len(r.order))
	for _, service := range r.order {
		list = append(list, r.byService[service])
	}
	return list
}
