package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"codepool/entity"
	"codepool/internal/catalog"
	"codepool/internal/config"
	"codepool/internal/database"
)

func testRegistry() *catalog.Registry {
	return catalog.New([]config.CatalogEntry{
		{Service: "steam", DocumentId: "codes_steam", UnitPrice: 2000},
		{Service: "itunes", DocumentId: "codes_itunes", UnitPrice: 2500},
	})
}

func testLedger(store Store) *Ledger {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, testRegistry(), log)
}

func seedDoc(t *testing.T, store *database.Memory, docId string, codes ...entity.CodeRecord) {
	t.Helper()
	doc := &entity.InventoryDocument{Id: docId, Codes: codes}
	if err := store.PutInventory(context.Background(), doc); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
}

func usedCode(code, owner, txnId string, at time.Time) entity.CodeRecord {
	rec := entity.CodeRecord{Code: code}
	rec.MarkUsed(owner, txnId, at)
	return rec
}

func TestRetrieveByTransaction_AcrossCatalogs(t *testing.T) {
	store := database.NewMemory()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedDoc(t, store, "codes_steam",
		usedCode("S1", "x@example.com", "txn-1", at),
		entity.CodeRecord{Code: "S2"},
	)
	seedDoc(t, store, "codes_itunes",
		usedCode("I1", "x@example.com", "txn-1", at),
		usedCode("I2", "y@example.com", "txn-2", at),
	)
	l := testLedger(store)

	codes, err := l.RetrieveByTransaction(context.Background(), "x@example.com", "txn-1")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if len(codes) != 2 {
		t.Fatalf("expected 2 codes, got %d: %+v", len(codes), codes)
	}
	byService := map[string]string{}
	for _, c := range codes {
		byService[c.Service] = c.Code
	}
	if byService["steam"] != "S1" || byService["itunes"] != "I1" {
		t.Errorf("unexpected codes per service: %v", byService)
	}
}

func TestRetrieveByTransaction_WrongOwner(t *testing.T) {
	store := database.NewMemory()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedDoc(t, store, "codes_steam", usedCode("S1", "x@example.com", "txn-1", at))
	l := testLedger(store)

	_, err := l.RetrieveByTransaction(context.Background(), "intruder@example.com", "txn-1")
	if !errors.Is(err, entity.ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign owner, got: %v", err)
	}
}

func TestRetrieveByTransaction_Validation(t *testing.T) {
	l := testLedger(database.NewMemory())

	for _, tc := range []struct{ identity, txnId string }{
		{"", "txn-1"},
		{"x@example.com", ""},
	} {
		_, err := l.RetrieveByTransaction(context.Background(), tc.identity, tc.txnId)
		var validation *entity.ValidationError
		if !errors.As(err, &validation) {
			t.Errorf("identity=%q txn=%q: expected ValidationError, got: %v", tc.identity, tc.txnId, err)
		}
	}
}

func TestRetrieveByTransaction_SkipsMissingCatalogs(t *testing.T) {
	store := database.NewMemory()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	// itunes was never replenished, the scan must not fail on it
	seedDoc(t, store, "codes_steam", usedCode("S1", "x@example.com", "txn-1", at))
	l := testLedger(store)

	codes, err := l.RetrieveByTransaction(context.Background(), "x@example.com", "txn-1")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if len(codes) != 1 || codes[0].Code != "S1" {
		t.Errorf("unexpected codes: %+v", codes)
	}
}

func TestListTransactions_GroupsAndSorts(t *testing.T) {
	store := database.NewMemory()
	early := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)
	seedDoc(t, store, "codes_steam",
		usedCode("S1", "x@example.com", "txn-b", early),
		usedCode("S2", "x@example.com", "txn-b", early),
		usedCode("S3", "y@example.com", "txn-c", late),
		usedCode("S4", "z@example.com", "txn-a", early),
		entity.CodeRecord{Code: "S5"},
	)
	l := testLedger(store)

	rows, err := l.ListTransactions(context.Background(), "steam")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 transactions, got %d: %+v", len(rows), rows)
	}
	// newest first, ties broken by ascending txn id
	if rows[0].TxnId != "txn-c" || rows[1].TxnId != "txn-a" || rows[2].TxnId != "txn-b" {
		t.Errorf("unexpected order: %s %s %s", rows[0].TxnId, rows[1].TxnId, rows[2].TxnId)
	}
	if rows[2].Quantity != 2 {
		t.Errorf("expected txn-b quantity 2, got %d", rows[2].Quantity)
	}
	if rows[0].Owner != "y@example.com" {
		t.Errorf("unexpected owner on txn-c: %s", rows[0].Owner)
	}
}

func TestListTransactions_NeverReplenished(t *testing.T) {
	l := testLedger(database.NewMemory())

	rows, err := l.ListTransactions(context.Background(), "steam")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", rows)
	}
}

func TestListTransactions_UnknownService(t *testing.T) {
	l := testLedger(database.NewMemory())

	_, err := l.ListTransactions(context.Background(), "nope")
	var validation *entity.ValidationError
	if !errors.As(err, &validation) {
		t.Errorf("expected ValidationError, got: %v", err)
	}
}
