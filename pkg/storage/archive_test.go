package storage

import (
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ecamli/borsa/pkg/book"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := OpenArchive(t.TempDir(), zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("OpenArchive: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestArchiveRecentOrders(t *testing.T) {
	a := openTestArchive(t)

	base := time.Date(2026, 8, 31, 9, 0, 0, 0, time.Local)
	for i := 0; i < 5; i++ {
		a.SaveOrder(OrderRecord{
			OrderID:  fmt.Sprintf("ORD%06d", i+1),
			ClientID: int64(i),
			Symbol:   "THYAO",
			Side:     book.Buy,
			Price:    28550,
			Quantity: 10,
			Time:     base.Add(time.Duration(i) * time.Minute),
		})
	}

	recs, err := a.RecentOrders(3)
	if err != nil {
		t.Fatalf("RecentOrders: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("recs = %d, want 3", len(recs))
	}
	// Newest first.
	for i, want := range []string{"ORD000005", "ORD000004", "ORD000003"} {
		if recs[i].OrderID != want {
			t.Errorf("recs[%d] = %s, want %s", i, recs[i].OrderID, want)
		}
	}
}

func TestArchiveTimeWindows(t *testing.T) {
	a := openTestArchive(t)

	day1 := time.Date(2026, 8, 30, 14, 0, 0, 0, time.Local)
	day2 := time.Date(2026, 8, 31, 14, 0, 0, 0, time.Local)

	a.TradeExecuted(book.Trade{ID: "TRD000001", Symbol: "GARAN", Price: 11240, Quantity: 5, BuyerID: 1, SellerID: 2, Time: day1})
	a.TradeExecuted(book.Trade{ID: "TRD000002", Symbol: "GARAN", Price: 11250, Quantity: 7, BuyerID: 2, SellerID: 1, Time: day2})
	a.TradeExecuted(book.Trade{ID: "TRD000003", Symbol: "GARAN", Price: 11260, Quantity: 9, BuyerID: 1, SellerID: 2, Time: day2.Add(time.Hour)})

	from := time.Date(2026, 8, 31, 0, 0, 0, 0, time.Local)
	trades, err := a.TradesBetween(from, from.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("TradesBetween: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("trades = %d, want 2", len(trades))
	}
	if trades[0].ID != "TRD000002" || trades[1].ID != "TRD000003" {
		t.Errorf("window contents = %s, %s", trades[0].ID, trades[1].ID)
	}

	orders, err := a.OrdersBetween(from, from.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("OrdersBetween: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("no orders archived, got %d", len(orders))
	}
}
