package catalog

import (
	"errors"
	"testing"

	"codepool/entity"
	"codepool/internal/config"
)

func TestResolve_Known(t *testing.T) {
	r := New([]config.CatalogEntry{
		{Service: "steam", DocumentId: "codes_steam", UnitPrice: 2000},
	})

	cat, err := r.Resolve("steam")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if cat.DocumentId != "codes_steam" {
		t.Errorf("expected codes_steam, got %s", cat.DocumentId)
	}
	if cat.UnitPrice != 2000 {
		t.Errorf("expected unit price 2000, got %d", cat.UnitPrice)
	}
}

func TestResolve_UnknownIsValidationError(t *testing.T) {
	r := New(nil)

	_, err := r.Resolve("nope")
	var validation *entity.ValidationError
	if !errors.As(err, &validation) {
		t.Errorf("expected ValidationError, got: %v", err)
	}
}

func TestAll_PreservesRegistrationOrder(t *testing.T) {
	r := New([]config.CatalogEntry{
		{Service: "b", DocumentId: "doc_b", UnitPrice: 1},
		{Service: "a", DocumentId: "doc_a", UnitPrice: 2},
		{Service: "c", DocumentId: "doc_c", UnitPrice: 3},
	})

	all := r.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 catalogs, got %d", len(all))
	}
	for i, want := range []string{"b", "a", "c"} {
		if all[i].Service != want {
			t.Errorf("position %d: expected %s, got %s", i, want, all[i].Service)
		}
	}
}

func TestNew_SkipsDuplicatesAndBlanks(t *testing.T) {
	r := New([]config.CatalogEntry{
		{Service: "a", DocumentId: "doc_a", UnitPrice: 1},
		{Service: "a", DocumentId: "doc_other", UnitPrice: 9},
		{Service: "", DocumentId: "doc_x", UnitPrice: 1},
	})

	if len(r.All()) != 1 {
		t.Fatalf("expected 1 catalog, got %d", len(r.All()))
	}
	cat, _ := r.Resolve("a")
	if cat.DocumentId != "doc_a" {
		t.Errorf("first entry should win, got %s", cat.DocumentId)
	}
}

func TestNew_EmptyUsesDefaults(t *testing.T) {
	r := New(nil)
	if len(r.All()) == 0 {
		t.Error("expected built-in default catalogs")
	}
	if _, err := r.Resolve("steam"); err != nil {
		t.Errorf("expected default steam catalog: %v", err)
	}
}
