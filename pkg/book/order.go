package book

import "time"

type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side { return -s }

// Order is a limit order resting in (or entering) a book.
// Prices are integer kurus (2 implied decimals), quantities integer lots.
type Order struct {
	ID        string // server-assigned, "ORD" + zero-padded sequence
	ClientID  int64
	Symbol    string
	Side      Side
	Price     int64
	Quantity  int64
	Remaining int64
	Status    string
	Time      time.Time
}

const StatusPending = "PENDING"

// Trade records one execution between two orders. Immutable once created.
type Trade struct {
	ID          string // "TRD" + zero-padded sequence, not recovered across restarts
	BuyOrderID  string
	SellOrderID string
	BuyerID     int64
	SellerID    int64
	Symbol      string
	Price       int64
	Quantity    int64
	Time        time.Time
}

// Fill is one match produced while an incoming order walks the opposite side.
// Maker points at the resting order; the taker is the incoming order itself.
type Fill struct {
	Maker *Order
	Price int64
	Qty   int64
}
