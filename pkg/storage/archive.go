package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"github.com/ecamli/borsa/pkg/book"
)

// Archive is the pebble-backed history of accepted orders and executed
// trades. It serves the operator console and the HTTP API; the matching path
// never reads it. Keys are time-ordered so range scans map directly onto
// "recent" and "today" queries:
//
//	o:<8-byte big-endian unix nanos><order id>
//	t:<8-byte big-endian unix nanos><trade id>
type Archive struct {
	db  *pebble.DB
	log *zap.SugaredLogger
}

// OrderRecord is the archived form of an accepted order submission.
type OrderRecord struct {
	OrderID  string    `json:"order_id"`
	ClientID int64     `json:"client_id"`
	Symbol   string    `json:"symbol"`
	Side     book.Side `json:"side"`
	Price    int64     `json:"price"`
	Quantity int64     `json:"quantity"`
	Time     time.Time `json:"time"`
}

func OpenArchive(path string, log *zap.SugaredLogger) (*Archive, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return &Archive{db: db, log: log}, nil
}

func (a *Archive) Close() error { return a.db.Close() }

func archiveKey(prefix byte, ts time.Time, id string) []byte {
	key := make([]byte, 0, 2+8+len(id))
	key = append(key, prefix, ':')
	key = binary.BigEndian.AppendUint64(key, uint64(ts.UnixNano()))
	return append(key, id...)
}

// SaveOrder archives an accepted order. Failures degrade history queries
// only, so they are logged and swallowed like every other persistence error.
func (a *Archive) SaveOrder(rec OrderRecord) {
	val, err := json.Marshal(rec)
	if err != nil {
		a.log.Warnw("archive_order_encode_failed", "order_id", rec.OrderID, "err", err)
		return
	}
	if err := a.db.Set(archiveKey('o', rec.Time, rec.OrderID), val, pebble.Sync); err != nil {
		a.log.Warnw("archive_order_write_failed", "order_id", rec.OrderID, "err", err)
	}
}

// TradeExecuted archives one trade; implements the engine's trade sink.
func (a *Archive) TradeExecuted(t book.Trade) {
	val, err := json.Marshal(t)
	if err != nil {
		a.log.Warnw("archive_trade_encode_failed", "trade_id", t.ID, "err", err)
		return
	}
	if err := a.db.Set(archiveKey('t', t.Time, t.ID), val, pebble.Sync); err != nil {
		a.log.Warnw("archive_trade_write_failed", "trade_id", t.ID, "err", err)
	}
}

// RecentOrders returns up to n most recently archived orders, newest first.
func (a *Archive) RecentOrders(n int) ([]OrderRecord, error) {
	iter, err := a.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("o:"),
		UpperBound: []byte("o;"), // ';' is ':'+1
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []OrderRecord
	for ok := iter.Last(); ok && len(out) < n; ok = iter.Prev() {
		var rec OrderRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, iter.Error()
}

// OrdersBetween returns archived orders with from <= time < to, oldest first.
func (a *Archive) OrdersBetween(from, to time.Time) ([]OrderRecord, error) {
	iter, err := a.db.NewIter(&pebble.IterOptions{
		LowerBound: archiveKey('o', from, ""),
		UpperBound: archiveKey('o', to, ""),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []OrderRecord
	for ok := iter.First(); ok; ok = iter.Next() {
		var rec OrderRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, iter.Error()
}

// TradesBetween returns archived trades with from <= time < to, oldest first.
func (a *Archive) TradesBetween(from, to time.Time) ([]book.Trade, error) {
	iter, err := a.db.NewIter(&pebble.IterOptions{
		LowerBound: archiveKey('t', from, ""),
		UpperBound: archiveKey('t', to, ""),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []book.Trade
	for ok := iter.First(); ok; ok = iter.Next() {
		var t book.Trade
		if err := json.Unmarshal(iter.Value(), &t); err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, iter.Error()
}
