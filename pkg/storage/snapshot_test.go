package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ecamli/borsa/pkg/book"
)

func sampleOrders() []book.Order {
	ts := time.Date(2026, 8, 31, 10, 30, 0, 0, time.Local)
	return []book.Order{
		{ID: "ORD000002", ClientID: 1, Symbol: "GARAN", Side: book.Buy, Price: 11240, Quantity: 100, Remaining: 40, Status: book.StatusPending, Time: ts},
		{ID: "ORD000005", ClientID: 3, Symbol: "GARAN", Side: book.Buy, Price: 11200, Quantity: 50, Remaining: 50, Status: book.StatusPending, Time: ts},
		{ID: "ORD000001", ClientID: 2, Symbol: "GARAN", Side: book.Sell, Price: 11300, Quantity: 80, Remaining: 80, Status: book.StatusPending, Time: ts},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := NewSnapshot(t.TempDir())

	want := sampleOrders()
	if err := s.Write(want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("loaded %d orders, want %d", len(got), len(want))
	}
	// File line order is the recovery order: price-then-arrival within the
	// dump must reproduce exactly.
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSnapshotRewriteReplacesFile(t *testing.T) {
	dir := t.TempDir()
	s := NewSnapshot(dir)

	if err := s.Write(sampleOrders()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Write(nil); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, SnapshotFile))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("empty registry must produce an empty snapshot, got %q", data)
	}
}

func TestSnapshotLoadMissingFile(t *testing.T) {
	s := NewSnapshot(t.TempDir())
	orders, err := s.Load()
	if err != nil || orders != nil {
		t.Errorf("missing snapshot is a fresh start, got %v, %v", orders, err)
	}
}

func TestSnapshotLoadSkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	lines := strings.Join([]string{
		"BUY|ORD000001|1|THYAO|285.50|100|100|PENDING|2026-08-31 10:30:00",
		"garbage line from a torn write",
		"SELL|ORD000002|2|THYAO|286.00|50|0|PENDING|2026-08-31 10:31:00", // remaining 0
		"SELL|ORD000003|2|THYAO|286.25|50|50|PENDING|2026-08-31 10:32:00",
	}, "\n")
	if err := os.WriteFile(filepath.Join(dir, SnapshotFile), []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewSnapshot(dir)
	orders, err := s.Load()
	if err == nil {
		t.Errorf("corrupt lines should surface an error")
	}
	if len(orders) != 2 {
		t.Fatalf("loaded %d orders, want 2 good ones", len(orders))
	}
	if orders[0].ID != "ORD000001" || orders[1].ID != "ORD000003" {
		t.Errorf("wrong survivors: %s, %s", orders[0].ID, orders[1].ID)
	}
}
