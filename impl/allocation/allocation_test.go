package allocation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"codepool/entity"
	"codepool/internal/catalog"
	"codepool/internal/config"
	"codepool/internal/database"
	"codepool/lib/retry"
)

const (
	testService = "steam"
	testDocId   = "codes_steam"
	testPrice   = 2000
)

func testRegistry() *catalog.Registry {
	return catalog.New([]config.CatalogEntry{
		{Service: testService, DocumentId: testDocId, UnitPrice: testPrice},
	})
}

func testPolicy(attempts int) retry.Policy {
	return retry.Policy{
		Attempts:  attempts,
		BaseDelay: time.Millisecond,
		MaxDelay:  4 * time.Millisecond,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seed(t *testing.T, store Store, codes ...string) {
	t.Helper()
	doc := &entity.InventoryDocument{Id: testDocId}
	for _, c := range codes {
		doc.Codes = append(doc.Codes, entity.CodeRecord{Code: c})
	}
	if err := store.PutInventory(context.Background(), doc); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
}

// recordingStore counts store calls and can force every put to fail.
type recordingStore struct {
	inner  Store
	mu     sync.Mutex
	gets   int
	puts   int
	putErr error
}

func (r *recordingStore) GetInventory(ctx context.Context, docId string) (*entity.InventoryDocument, error) {
	r.mu.Lock()
	r.gets++
	r.mu.Unlock()
	return r.inner.GetInventory(ctx, docId)
}

func (r *recordingStore) PutInventory(ctx context.Context, doc *entity.InventoryDocument) error {
	r.mu.Lock()
	r.puts++
	forced := r.putErr
	r.mu.Unlock()
	if forced != nil {
		return forced
	}
	return r.inner.PutInventory(ctx, doc)
}

func (r *recordingStore) calls() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gets, r.puts
}

func TestAllocate_FIFO(t *testing.T) {
	store := database.NewMemory()
	seed(t, store, "C1", "C2", "C3")
	engine := New(store, testRegistry(), testPolicy(5), 10, discardLogger())

	receipt, err := engine.Allocate(context.Background(), testService, "x@example.com", 2)
	if err != nil {
		t.Fatalf("allocate failed: %v", err)
	}
	if receipt.TxnId == "" {
		t.Error("expected non-empty txn id")
	}
	if len(receipt.Codes) != 2 || receipt.Codes[0] != "C1" || receipt.Codes[1] != "C2" {
		t.Errorf("expected FIFO selection [C1 C2], got %v", receipt.Codes)
	}
	if receipt.Total != 2*testPrice {
		t.Errorf("expected total %d, got %d", 2*testPrice, receipt.Total)
	}

	doc, err := store.GetInventory(context.Background(), testDocId)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	for _, i := range []int{0, 1} {
		rec := doc.Codes[i]
		if !rec.Used || rec.UsedBy != "x@example.com" || rec.TxnId != receipt.TxnId || rec.UsedAt.IsZero() {
			t.Errorf("record %s not fully marked: %+v", rec.Code, rec)
		}
	}
	if doc.Codes[2].Used {
		t.Error("C3 must remain unused")
	}
}

func TestAllocate_SecondCallSeesRemainder(t *testing.T) {
	store := database.NewMemory()
	seed(t, store, "C1", "C2", "C3")
	engine := New(store, testRegistry(), testPolicy(5), 10, discardLogger())

	if _, err := engine.Allocate(context.Background(), testService, "x@example.com", 2); err != nil {
		t.Fatalf("first allocate failed: %v", err)
	}

	_, err := engine.Allocate(context.Background(), testService, "y@example.com", 2)
	var insufficient *entity.InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got: %v", err)
	}
	if insufficient.Available != 1 {
		t.Errorf("expected available 1, got %d", insufficient.Available)
	}
}

func TestAllocate_OutOfStock(t *testing.T) {
	store := database.NewMemory()
	seed(t, store) // document exists, no codes
	engine := New(store, testRegistry(), testPolicy(5), 10, discardLogger())

	_, err := engine.Allocate(context.Background(), testService, "x@example.com", 1)
	if !errors.Is(err, entity.ErrOutOfStock) {
		t.Errorf("expected ErrOutOfStock, got: %v", err)
	}
}

func TestAllocate_MissingDocumentIsUnknownCatalog(t *testing.T) {
	store := database.NewMemory()
	engine := New(store, testRegistry(), testPolicy(5), 10, discardLogger())

	_, err := engine.Allocate(context.Background(), testService, "x@example.com", 1)
	if !errors.Is(err, entity.ErrUnknownCatalog) {
		t.Errorf("expected ErrUnknownCatalog, got: %v", err)
	}
}

func TestAllocate_ValidationNeverTouchesStore(t *testing.T) {
	store := &recordingStore{inner: database.NewMemory()}
	engine := New(store, testRegistry(), testPolicy(5), 10, discardLogger())
	ctx := context.Background()

	cases := []struct {
		name     string
		service  string
		identity string
		quantity int
	}{
		{"zero quantity", testService, "x@example.com", 0},
		{"over max", testService, "x@example.com", 11},
		{"empty identity", testService, "", 1},
		{"unknown service", "nope", "x@example.com", 1},
	}
	for _, tc := range cases {
		_, err := engine.Allocate(ctx, tc.service, tc.identity, tc.quantity)
		var validation *entity.ValidationError
		if !errors.As(err, &validation) {
			t.Errorf("%s: expected ValidationError, got: %v", tc.name, err)
		}
	}

	gets, puts := store.calls()
	if gets != 0 || puts != 0 {
		t.Errorf("store must not be touched on validation failure, got %d gets, %d puts", gets, puts)
	}
}

func TestAllocate_ExhaustedRetriesReturnBusy(t *testing.T) {
	inner := database.NewMemory()
	seed(t, inner, "C1", "C2")
	store := &recordingStore{inner: inner, putErr: entity.ErrConflict}
	engine := New(store, testRegistry(), testPolicy(3), 10, discardLogger())

	_, err := engine.Allocate(context.Background(), testService, "x@example.com", 1)
	if !errors.Is(err, entity.ErrBusy) {
		t.Fatalf("expected ErrBusy, got: %v", err)
	}
	gets, puts := store.calls()
	if gets != 3 || puts != 3 {
		t.Errorf("expected 3 attempts, got %d gets, %d puts", gets, puts)
	}

	// losing attempts must not leak partial state
	doc, _ := inner.GetInventory(context.Background(), testDocId)
	if len(doc.Unused()) != 2 {
		t.Error("failed allocation must leave all codes unused")
	}
}

func TestAllocate_ConcurrentExhaustsExactly(t *testing.T) {
	const stock = 20

	store := database.NewMemory()
	codes := make([]string, stock)
	for i := range codes {
		codes[i] = "C" + string(rune('A'+i))
	}
	seed(t, store, codes...)
	// generous attempt budget so contention cannot surface as ErrBusy here
	engine := New(store, testRegistry(), testPolicy(100), 10, discardLogger())

	var wg sync.WaitGroup
	results := make(chan *entity.Receipt, stock)
	for i := 0; i < stock; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			receipt, err := engine.Allocate(context.Background(), testService, "x@example.com", 1)
			if err != nil {
				t.Errorf("allocate failed: %v", err)
				return
			}
			results <- receipt
		}()
	}
	wg.Wait()
	close(results)

	issued := make(map[string]bool)
	for receipt := range results {
		if len(receipt.Codes) != 1 {
			t.Fatalf("expected 1 code per receipt, got %d", len(receipt.Codes))
		}
		if issued[receipt.Codes[0]] {
			t.Errorf("code %s issued twice", receipt.Codes[0])
		}
		issued[receipt.Codes[0]] = true
	}
	if len(issued) != stock {
		t.Errorf("expected %d distinct codes, got %d", stock, len(issued))
	}

	doc, _ := store.GetInventory(context.Background(), testDocId)
	if len(doc.Unused()) != 0 {
		t.Errorf("expected 0 unused codes, got %d", len(doc.Unused()))
	}
}

func TestAllocate_OversubscribedFailsExactlyOnce(t *testing.T) {
	const stock = 10

	store := database.NewMemory()
	codes := make([]string, stock)
	for i := range codes {
		codes[i] = "C" + string(rune('A'+i))
	}
	seed(t, store, codes...)
	engine := New(store, testRegistry(), testPolicy(100), 10, discardLogger())

	var wg sync.WaitGroup
	var mu sync.Mutex
	var successes int
	var failures []error
	for i := 0; i < stock+1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Allocate(context.Background(), testService, "x@example.com", 1)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			successes++
		}()
	}
	wg.Wait()

	if successes != stock {
		t.Errorf("expected %d successes, got %d", stock, successes)
	}
	if len(failures) != 1 {
		t.Fatalf("expected exactly 1 failure, got %d: %v", len(failures), failures)
	}
	if !errors.Is(failures[0], entity.ErrOutOfStock) {
		t.Errorf("expected ErrOutOfStock, got: %v", failures[0])
	}
}

type captureNotifier struct {
	got chan *entity.Receipt
	err error
}

func (n *captureNotifier) Send(receipt *entity.Receipt) error {
	n.got <- receipt
	return n.err
}

func TestAllocate_NotifiesAfterSuccess(t *testing.T) {
	store := database.NewMemory()
	seed(t, store, "C1")
	engine := New(store, testRegistry(), testPolicy(5), 10, discardLogger())
	notifier := &captureNotifier{got: make(chan *entity.Receipt, 1)}
	engine.SetNotifier(notifier)

	receipt, err := engine.Allocate(context.Background(), testService, "x@example.com", 1)
	if err != nil {
		t.Fatalf("allocate failed: %v", err)
	}

	select {
	case notified := <-notifier.got:
		if notified.TxnId != receipt.TxnId {
			t.Errorf("notifier got txn %s, want %s", notified.TxnId, receipt.TxnId)
		}
	case <-time.After(time.Second):
		t.Fatal("notifier was never invoked")
	}
}

func TestAllocate_NotifierFailureDoesNotAffectResult(t *testing.T) {
	store := database.NewMemory()
	seed(t, store, "C1")
	engine := New(store, testRegistry(), testPolicy(5), 10, discardLogger())
	notifier := &captureNotifier{got: make(chan *entity.Receipt, 1), err: errors.New("smtp down")}
	engine.SetNotifier(notifier)

	receipt, err := engine.Allocate(context.Background(), testService, "x@example.com", 1)
	if err != nil {
		t.Fatalf("allocation must succeed regardless of the notifier: %v", err)
	}
	if len(receipt.Codes) != 1 || receipt.Codes[0] != "C1" {
		t.Errorf("unexpected receipt codes: %v", receipt.Codes)
	}
	<-notifier.got
}
