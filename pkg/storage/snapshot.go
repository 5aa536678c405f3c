// Package storage holds everything that touches the local disk: the resting
// order snapshot, the plaintext audit logs and the pebble archive serving
// operator and API queries.
package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ecamli/borsa/pkg/book"
	"github.com/ecamli/borsa/pkg/proto"
)

const (
	// SnapshotFile is the on-disk book dump, one line per resting order:
	// SIDE|ORDER_ID|CLIENT_ID|SYMBOL|PRICE|QUANTITY|REMAINING|STATUS|TIMESTAMP
	SnapshotFile = "pending_orders.dat"

	timeLayout = "2006-01-02 15:04:05"
)

// Snapshot writes and loads the full resting-order dump. Every write
// truncates and rewrites the whole file; the mutex only keeps two writers
// (submission path and the periodic task) from interleaving file I/O, the
// order dump itself is already consistent when it arrives here.
type Snapshot struct {
	mu   sync.Mutex
	path string
}

func NewSnapshot(dir string) *Snapshot {
	return &Snapshot{path: filepath.Join(dir, SnapshotFile)}
}

func (s *Snapshot) Write(orders []book.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}

	w := bufio.NewWriter(f)
	for i := range orders {
		o := &orders[i]
		fmt.Fprintf(w, "%s|%s|%d|%s|%s|%d|%d|%s|%s\n",
			o.Side, o.ID, o.ClientID, o.Symbol,
			proto.FormatPrice(o.Price), o.Quantity, o.Remaining,
			o.Status, o.Time.Format(timeLayout))
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot back in file order. A missing file is a fresh
// start, not an error. Lines that do not parse are skipped with an error
// returned alongside the orders that did load; recovery is best effort on a
// file that a crash may have truncated mid-write.
func (s *Snapshot) Load() ([]book.Order, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var (
		orders  []book.Order
		badLine error
	)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		o, err := parseSnapshotLine(line)
		if err != nil {
			badLine = err
			continue
		}
		orders = append(orders, o)
	}
	if err := sc.Err(); err != nil {
		return orders, fmt.Errorf("read snapshot: %w", err)
	}
	return orders, badLine
}

func parseSnapshotLine(line string) (book.Order, error) {
	parts := strings.Split(line, "|")
	if len(parts) != 9 {
		return book.Order{}, fmt.Errorf("snapshot line has %d fields: %q", len(parts), line)
	}

	var side book.Side
	switch parts[0] {
	case "BUY":
		side = book.Buy
	case "SELL":
		side = book.Sell
	default:
		return book.Order{}, fmt.Errorf("snapshot side %q", parts[0])
	}

	clientID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return book.Order{}, fmt.Errorf("snapshot client id %q", parts[2])
	}
	price, err := proto.ParsePrice(parts[4])
	if err != nil {
		return book.Order{}, fmt.Errorf("snapshot price %q", parts[4])
	}
	qty, err := strconv.ParseInt(parts[5], 10, 64)
	if err != nil {
		return book.Order{}, fmt.Errorf("snapshot quantity %q", parts[5])
	}
	remaining, err := strconv.ParseInt(parts[6], 10, 64)
	if err != nil || remaining <= 0 || remaining > qty {
		return book.Order{}, fmt.Errorf("snapshot remaining %q", parts[6])
	}

	// Timestamp is display metadata; a bad one does not reject the order.
	ts, _ := time.ParseInLocation(timeLayout, parts[8], time.Local)

	return book.Order{
		ID:        parts[1],
		ClientID:  clientID,
		Symbol:    parts[3],
		Side:      side,
		Price:     price,
		Quantity:  qty,
		Remaining: remaining,
		Status:    parts[7],
		Time:      ts,
	}, nil
}
