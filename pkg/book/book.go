package book

import "sort"

// OrderBook holds the resting orders for one symbol.
//
// Bids are kept in descending price order, asks in ascending price order;
// within a price both sides are FIFO (earliest arrival first). The book does
// no locking itself: all access is serialized by the engine's registry lock,
// because lazy book creation mutates the registry map as well.
type OrderBook struct {
	Bids []*Order
	Asks []*Order
}

func New() *OrderBook {
	return &OrderBook{}
}

// Match walks the opposite side of the book with the incoming order,
// consuming resting orders in price-time priority until the order is filled
// or the best opposing price no longer crosses. Both the taker's and each
// maker's Remaining are decremented in place; fully filled makers are popped
// from the head of their sequence. The residual taker is NOT inserted here.
//
// Execution price is always the resting order's price.
func (b *OrderBook) Match(taker *Order) []Fill {
	var fills []Fill

	if taker.Side == Buy {
		for taker.Remaining > 0 && len(b.Asks) > 0 {
			maker := b.Asks[0]
			if maker.Price > taker.Price {
				break
			}
			qty := min(taker.Remaining, maker.Remaining)
			taker.Remaining -= qty
			maker.Remaining -= qty
			fills = append(fills, Fill{Maker: maker, Price: maker.Price, Qty: qty})
			if maker.Remaining == 0 {
				b.Asks = b.Asks[1:]
			}
		}
	} else {
		for taker.Remaining > 0 && len(b.Bids) > 0 {
			maker := b.Bids[0]
			if maker.Price < taker.Price {
				break
			}
			qty := min(taker.Remaining, maker.Remaining)
			taker.Remaining -= qty
			maker.Remaining -= qty
			fills = append(fills, Fill{Maker: maker, Price: maker.Price, Qty: qty})
			if maker.Remaining == 0 {
				b.Bids = b.Bids[1:]
			}
		}
	}

	return fills
}

// Insert places a resting order at the position preserving its side's
// ordering. Equal prices append after existing entries, so arrival order is
// preserved within a level.
func (b *OrderBook) Insert(o *Order) {
	if o.Side == Buy {
		idx := sort.Search(len(b.Bids), func(i int) bool {
			return b.Bids[i].Price < o.Price
		})
		b.Bids = append(b.Bids, nil)
		copy(b.Bids[idx+1:], b.Bids[idx:])
		b.Bids[idx] = o
	} else {
		idx := sort.Search(len(b.Asks), func(i int) bool {
			return b.Asks[i].Price > o.Price
		})
		b.Asks = append(b.Asks, nil)
		copy(b.Asks[idx+1:], b.Asks[idx:])
		b.Asks[idx] = o
	}
}

// BestBid returns the highest bid price, or false if there are no bids.
func (b *OrderBook) BestBid() (int64, bool) {
	if len(b.Bids) == 0 {
		return 0, false
	}
	return b.Bids[0].Price, true
}

// BestAsk returns the lowest ask price, or false if there are no asks.
func (b *OrderBook) BestAsk() (int64, bool) {
	if len(b.Asks) == 0 {
		return 0, false
	}
	return b.Asks[0].Price, true
}

func (b *OrderBook) Empty() bool {
	return len(b.Bids) == 0 && len(b.Asks) == 0
}
