package book

import (
	"testing"
	"time"
)

func newOrder(id string, client int64, side Side, price, qty int64) *Order {
	return &Order{
		ID:        id,
		ClientID:  client,
		Symbol:    "ABC",
		Side:      side,
		Price:     price,
		Quantity:  qty,
		Remaining: qty,
		Status:    StatusPending,
		Time:      time.Now(),
	}
}

func TestPartialFillAtRestingPrice(t *testing.T) {
	b := New()
	b.Insert(newOrder("ORD000001", 1, Sell, 1000, 100))

	buy := newOrder("ORD000002", 2, Buy, 1000, 60)
	fills := b.Match(buy)

	if len(fills) != 1 {
		t.Fatalf("fills = %d, want 1", len(fills))
	}
	f := fills[0]
	if f.Price != 1000 || f.Qty != 60 {
		t.Errorf("fill = %d @ %d, want 60 @ 1000", f.Qty, f.Price)
	}
	if buy.Remaining != 0 {
		t.Errorf("taker remaining = %d, want 0", buy.Remaining)
	}
	if len(b.Asks) != 1 || b.Asks[0].Remaining != 40 {
		t.Errorf("resting sell should remain with 40")
	}
}

func TestNoCrossRests(t *testing.T) {
	b := New()
	b.Insert(newOrder("ORD000001", 1, Sell, 1000, 100))

	buy := newOrder("ORD000002", 2, Buy, 950, 50)
	fills := b.Match(buy)
	if len(fills) != 0 {
		t.Fatalf("fills = %d, want 0", len(fills))
	}
	if buy.Remaining != 50 {
		t.Errorf("taker remaining = %d, want 50", buy.Remaining)
	}
	// The caller is responsible for resting it.
	b.Insert(buy)
	if p, ok := b.BestBid(); !ok || p != 950 {
		t.Errorf("best bid = %d, want 950", p)
	}
}

func TestEqualPriceCrossesInclusive(t *testing.T) {
	b := New()
	b.Insert(newOrder("ORD000001", 1, Buy, 1000, 10))

	sell := newOrder("ORD000002", 2, Sell, 1000, 10)
	fills := b.Match(sell)
	if len(fills) != 1 {
		t.Fatalf("boundary price must cross")
	}
	if fills[0].Price != 1000 {
		t.Errorf("execution price = %d, want resting 1000", fills[0].Price)
	}
}

func TestExecutionPriceIsRestingPrice(t *testing.T) {
	b := New()
	b.Insert(newOrder("ORD000001", 1, Sell, 980, 10))

	// Aggressive buy above the ask: price improvement goes to the taker
	// only in the sense that the resting price wins.
	buy := newOrder("ORD000002", 2, Buy, 1020, 10)
	fills := b.Match(buy)
	if len(fills) != 1 || fills[0].Price != 980 {
		t.Fatalf("execution price must be the resting order's price")
	}

	// Same convention for an incoming sell against a higher resting bid.
	b.Insert(newOrder("ORD000003", 1, Buy, 1050, 10))
	sell := newOrder("ORD000004", 2, Sell, 1000, 10)
	fills = b.Match(sell)
	if len(fills) != 1 || fills[0].Price != 1050 {
		t.Fatalf("execution price must be the resting bid's price, got %v", fills)
	}
}

func TestFIFOWithinPriceLevel(t *testing.T) {
	b := New()
	a := newOrder("ORD000001", 1, Sell, 1000, 30)
	c := newOrder("ORD000002", 2, Sell, 1000, 30)
	b.Insert(a)
	b.Insert(c)

	buy := newOrder("ORD000003", 3, Buy, 1000, 60)
	fills := b.Match(buy)
	if len(fills) != 2 {
		t.Fatalf("fills = %d, want 2", len(fills))
	}
	if fills[0].Maker.ID != "ORD000001" || fills[1].Maker.ID != "ORD000002" {
		t.Errorf("earliest arrival must fill first: %s then %s", fills[0].Maker.ID, fills[1].Maker.ID)
	}
}

func TestBetterPriceBeatsArrival(t *testing.T) {
	b := New()
	b.Insert(newOrder("ORD000001", 1, Sell, 1010, 10))
	b.Insert(newOrder("ORD000002", 2, Sell, 1000, 10)) // better, later

	buy := newOrder("ORD000003", 3, Buy, 1010, 10)
	fills := b.Match(buy)
	if len(fills) != 1 || fills[0].Maker.ID != "ORD000002" {
		t.Fatalf("lowest ask must match first")
	}
}

func TestInsertOrdering(t *testing.T) {
	b := New()
	b.Insert(newOrder("ORD000001", 1, Buy, 1000, 1))
	b.Insert(newOrder("ORD000002", 1, Buy, 1020, 1))
	b.Insert(newOrder("ORD000003", 1, Buy, 1000, 1))
	b.Insert(newOrder("ORD000004", 1, Buy, 1010, 1))

	want := []string{"ORD000002", "ORD000004", "ORD000001", "ORD000003"}
	for i, id := range want {
		if b.Bids[i].ID != id {
			t.Fatalf("bids[%d] = %s, want %s", i, b.Bids[i].ID, id)
		}
	}

	b.Insert(newOrder("ORD000005", 1, Sell, 1050, 1))
	b.Insert(newOrder("ORD000006", 1, Sell, 1030, 1))
	b.Insert(newOrder("ORD000007", 1, Sell, 1050, 1))

	wantAsks := []string{"ORD000006", "ORD000005", "ORD000007"}
	for i, id := range wantAsks {
		if b.Asks[i].ID != id {
			t.Fatalf("asks[%d] = %s, want %s", i, b.Asks[i].ID, id)
		}
	}
}

func TestConservationAcrossLevels(t *testing.T) {
	b := New()
	b.Insert(newOrder("ORD000001", 1, Sell, 1000, 25))
	b.Insert(newOrder("ORD000002", 2, Sell, 1005, 25))
	b.Insert(newOrder("ORD000003", 3, Sell, 1010, 25))

	buy := newOrder("ORD000004", 4, Buy, 1005, 60)
	fills := b.Match(buy)

	var executed int64
	for _, f := range fills {
		executed += f.Qty
	}
	if executed+buy.Remaining != buy.Quantity {
		t.Errorf("conservation violated: executed %d + remaining %d != %d",
			executed, buy.Remaining, buy.Quantity)
	}
	if executed != 50 {
		t.Errorf("executed = %d, want 50 (1010 does not cross)", executed)
	}

	// No resting order may be left with non-positive remaining quantity.
	for _, o := range b.Asks {
		if o.Remaining <= 0 {
			t.Errorf("order %s rests with remaining %d", o.ID, o.Remaining)
		}
	}
	if len(b.Asks) != 1 || b.Asks[0].ID != "ORD000003" {
		t.Errorf("only the non-crossing ask should remain")
	}
}
