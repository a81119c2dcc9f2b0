package entity

import (
	"reflect"
	"testing"
	"time"
)

func TestCodeRecord_MarkUsedAndReset(t *testing.T) {
	rec := CodeRecord{Code: "ABC"}
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rec.MarkUsed("x@example.com", "txn-1", at)
	if !rec.Used || rec.UsedBy != "x@example.com" || rec.TxnId != "txn-1" || !rec.UsedAt.Equal(at) {
		t.Errorf("mark left record incomplete: %+v", rec)
	}

	rec.Reset()
	if !reflect.DeepEqual(rec, CodeRecord{Code: "ABC"}) {
		t.Errorf("reset must clear everything but the code, got %+v", rec)
	}
}

func TestCodeRecord_Key(t *testing.T) {
	rec := CodeRecord{Code: "AbC-123"}
	if rec.Key() != "abc-123" {
		t.Errorf("unexpected key %q", rec.Key())
	}
}

func TestInventoryDocument_Unused(t *testing.T) {
	doc := InventoryDocument{Codes: []CodeRecord{
		{Code: "A", Used: true},
		{Code: "B"},
		{Code: "C", Used: true},
		{Code: "D"},
	}}
	if got := doc.Unused(); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Errorf("expected unused indexes [1 3], got %v", got)
	}
}
