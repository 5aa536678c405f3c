// Package engine owns all mutable exchange state: the symbol → order book
// registry, the identifier generators and the submission pipeline. It is the
// only write entry point into the books.
package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ecamli/borsa/pkg/book"
)

// TradeSink consumes executed trades (audit log, archive, live sessions,
// websocket feed). Implementations must not block and must not return
// control-flow errors: a sink that cannot deliver logs and moves on, the
// trade itself has already happened.
type TradeSink interface {
	TradeExecuted(t book.Trade)
}

// SnapshotSink persists a full dump of every resting order. Write errors are
// non-fatal: order processing completes in memory regardless.
type SnapshotSink interface {
	Write(orders []book.Order) error
}

type Engine struct {
	mu    sync.Mutex
	books map[string]*book.OrderBook

	orderIDs *Sequence
	tradeIDs *Sequence

	snap  SnapshotSink
	sinks []TradeSink

	log *zap.SugaredLogger
	now func() time.Time
}

func New(log *zap.SugaredLogger, snap SnapshotSink, sinks ...TradeSink) *Engine {
	return &Engine{
		books:    make(map[string]*book.OrderBook),
		orderIDs: NewSequence("ORD"),
		tradeIDs: NewSequence("TRD"),
		snap:     snap,
		sinks:    sinks,
		log:      log,
		now:      time.Now,
	}
}

// bookFor lazily creates the book for a symbol. Caller must hold mu: the
// registry map itself is mutated here.
func (e *Engine) bookFor(symbol string) *book.OrderBook {
	b, ok := e.books[symbol]
	if !ok {
		b = book.New()
		e.books[symbol] = b
	}
	return b
}

// Submit runs one order through the matching engine: match against the
// opposite side, rest any remainder, snapshot the registry, then fan out the
// resulting trades. The registry lock spans the whole match-and-insert
// sequence so partial matches are atomic with respect to book state.
//
// The caller must have validated the input; Submit has no error outcomes on
// a well-formed order. Quantity <= 0 is a caller bug.
func (e *Engine) Submit(clientID int64, symbol string, side book.Side, price, qty int64) (*book.Order, []book.Trade) {
	o := &book.Order{
		ID:        e.orderIDs.Next(),
		ClientID:  clientID,
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Quantity:  qty,
		Remaining: qty,
		Status:    book.StatusPending,
		Time:      e.now(),
	}

	e.mu.Lock()
	b := e.bookFor(symbol)
	fills := b.Match(o)

	trades := make([]book.Trade, 0, len(fills))
	for _, f := range fills {
		trades = append(trades, e.tradeFrom(o, f))
	}

	// A fully filled order never enters the book.
	if o.Remaining > 0 {
		b.Insert(o)
	}
	// The snapshot is written before the lock is released. Were the write
	// deferred, two racing submissions could persist their dumps in inverted
	// order and an older dump would overwrite a newer one, dropping an order
	// that was already acknowledged.
	e.persist(e.dumpLocked())
	e.mu.Unlock()

	for _, t := range trades {
		e.log.Infow("trade_executed",
			"trade_id", t.ID, "symbol", t.Symbol, "price", t.Price,
			"qty", t.Quantity, "buyer", t.BuyerID, "seller", t.SellerID)
		for _, s := range e.sinks {
			s.TradeExecuted(t)
		}
	}

	return o, trades
}

// tradeFrom builds the immutable trade record for one fill. The buyer/seller
// legs are assigned from the taker's side.
func (e *Engine) tradeFrom(taker *book.Order, f book.Fill) book.Trade {
	t := book.Trade{
		ID:       e.tradeIDs.Next(),
		Symbol:   taker.Symbol,
		Price:    f.Price,
		Quantity: f.Qty,
		Time:     e.now(),
	}
	if taker.Side == book.Buy {
		t.BuyOrderID, t.SellOrderID = taker.ID, f.Maker.ID
		t.BuyerID, t.SellerID = taker.ClientID, f.Maker.ClientID
	} else {
		t.BuyOrderID, t.SellOrderID = f.Maker.ID, taker.ID
		t.BuyerID, t.SellerID = f.Maker.ClientID, taker.ClientID
	}
	return t
}

// Dump returns a consistent copy of every resting order, bids before asks
// per symbol, symbols in lexical order. Used by the snapshot writer, the
// console and the API; the copy is taken under the registry lock so readers
// never observe a half-applied match.
func (e *Engine) Dump() []book.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dumpLocked()
}

func (e *Engine) dumpLocked() []book.Order {
	symbols := make([]string, 0, len(e.books))
	for sym, b := range e.books {
		if !b.Empty() {
			symbols = append(symbols, sym)
		}
	}
	sort.Strings(symbols)

	var out []book.Order
	for _, sym := range symbols {
		b := e.books[sym]
		for _, o := range b.Bids {
			out = append(out, *o)
		}
		for _, o := range b.Asks {
			out = append(out, *o)
		}
	}
	return out
}

// Restore rebuilds the registry from recovered orders, re-inserting each one
// with the live insertion rule so file line order reproduces price-then-
// arrival priority. The order id generator resumes strictly above the
// highest recovered identifier. Must run before traffic is accepted.
func (e *Engine) Restore(orders []book.Order) {
	e.mu.Lock()
	var maxSeq uint64
	for i := range orders {
		o := orders[i] // copy; the book owns its own instance
		if o.Remaining <= 0 {
			continue
		}
		e.bookFor(o.Symbol).Insert(&o)
		if n, ok := e.orderIDs.Suffix(o.ID); ok && n > maxSeq {
			maxSeq = n
		}
	}
	e.mu.Unlock()

	e.orderIDs.Resume(maxSeq)
	if len(orders) > 0 {
		e.log.Infow("book_restored", "orders", len(orders), "next_order_seq", maxSeq+1)
	}
}

// Level is one aggregated price level of a book side.
type Level struct {
	Price  int64 `json:"price"`
	Qty    int64 `json:"qty"`
	Orders int   `json:"orders"`
}

// Depth aggregates a symbol's book into per-price levels, best first.
func (e *Engine) Depth(symbol string) (bids, asks []Level) {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, ok := e.books[symbol]
	if !ok {
		return nil, nil
	}
	return aggregate(b.Bids), aggregate(b.Asks)
}

func aggregate(side []*book.Order) []Level {
	var levels []Level
	for _, o := range side {
		if n := len(levels); n > 0 && levels[n-1].Price == o.Price {
			levels[n-1].Qty += o.Remaining
			levels[n-1].Orders++
			continue
		}
		levels = append(levels, Level{Price: o.Price, Qty: o.Remaining, Orders: 1})
	}
	return levels
}

// Symbols returns every symbol that currently has resting orders.
func (e *Engine) Symbols() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, 0, len(e.books))
	for sym, b := range e.books {
		if !b.Empty() {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}

func (e *Engine) persist(dump []book.Order) {
	if e.snap == nil {
		return
	}
	if err := e.snap.Write(dump); err != nil {
		e.log.Warnw("snapshot_write_failed", "err", err)
	}
}

// Flush writes one snapshot of the current state. Called on shutdown and by
// the periodic persistence task. The write happens under the registry lock
// for the same ordering guarantee Submit relies on.
func (e *Engine) Flush() {
	e.mu.Lock()
	e.persist(e.dumpLocked())
	e.mu.Unlock()
}

// SnapshotLoop persists the registry at a fixed interval until ctx is
// cancelled, then performs one final synchronous write so the last state is
// never lost on graceful shutdown.
func (e *Engine) SnapshotLoop(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			e.Flush()
			return
		case <-t.C:
			e.Flush()
		}
	}
}
