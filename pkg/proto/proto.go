// Package proto implements the plaintext wire protocol: pipe-delimited,
// line-oriented messages over a TCP stream. The field tokens (EMIR, AL/SAT,
// ALIM/SATIM) are fixed external contract and must not be renamed.
package proto

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ecamli/borsa/pkg/book"
)

const (
	CmdOrder = "EMIR"
	CmdQuit  = "quit"

	wireBuy  = "AL"
	wireSell = "SAT"

	tagBought = "ALIM"  // receiver was the buyer
	tagSold   = "SATIM" // receiver was the seller

	MsgOK       = "OK"
	MsgFarewell = "Görüşmek üzere!"
)

var (
	ErrNotOrder    = errors.New("not an order message")
	ErrFieldCount  = errors.New("order message must have 5 fields")
	ErrBadSide     = errors.New("side must be AL or SAT")
	ErrBadPrice    = errors.New("price must be a non-negative amount with at most 2 decimals")
	ErrBadQuantity = errors.New("quantity must be a positive integer")
	ErrEmptySymbol = errors.New("symbol must not be empty")
)

// OrderRequest is a validated order submission.
type OrderRequest struct {
	Symbol   string
	Side     book.Side
	Price    int64 // kurus
	Quantity int64
}

// ParseOrder parses and validates an EMIR line. Unlike the usual
// parse-to-zero fallback, every field error is rejected outright: a garbage
// price or quantity must never reach the matching engine.
func ParseOrder(line string) (OrderRequest, error) {
	parts := strings.Split(line, "|")
	if parts[0] != CmdOrder {
		return OrderRequest{}, ErrNotOrder
	}
	if len(parts) != 5 {
		return OrderRequest{}, ErrFieldCount
	}

	req := OrderRequest{Symbol: strings.TrimSpace(parts[1])}
	if req.Symbol == "" {
		return OrderRequest{}, ErrEmptySymbol
	}

	switch parts[2] {
	case wireBuy:
		req.Side = book.Buy
	case wireSell:
		req.Side = book.Sell
	default:
		return OrderRequest{}, ErrBadSide
	}

	price, err := ParsePrice(parts[3])
	if err != nil {
		return OrderRequest{}, ErrBadPrice
	}
	req.Price = price

	qty, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil || qty <= 0 {
		return OrderRequest{}, ErrBadQuantity
	}
	req.Quantity = qty

	return req, nil
}

// ParsePrice converts a decimal price string to integer kurus. Values with
// more than 2 decimals cannot be represented on the tick grid and are
// rejected rather than rounded.
func ParsePrice(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative price %s", s)
	}
	k := d.Shift(2)
	if !k.IsInteger() {
		return 0, fmt.Errorf("price %s has sub-kurus precision", s)
	}
	return k.IntPart(), nil
}

// FormatPrice renders integer kurus with the fixed 2-decimal display
// precision used everywhere on the wire and in files.
func FormatPrice(p int64) string {
	return decimal.New(p, -2).StringFixed(2)
}

// FormatSide renders a side with its wire token (AL/SAT).
func FormatSide(s book.Side) string {
	if s == book.Buy {
		return wireBuy
	}
	return wireSell
}

// Order builds an EMIR submission line (used by the client).
func Order(symbol string, side book.Side, price, qty int64) string {
	return fmt.Sprintf("%s|%s|%s|%s|%d", CmdOrder, symbol, FormatSide(side), FormatPrice(price), qty)
}

// Accepted builds the acknowledgment sent once a submission has been fully
// processed and persisted.
func Accepted(orderID string) string {
	return "ORDER_ACCEPTED|" + orderID
}

// Rejected builds the reply for a malformed order message.
func Rejected(err error) string {
	return "ERROR|" + err.Error()
}

// Welcome is the line sent immediately after accept.
func Welcome(clientID int64) string {
	return fmt.Sprintf("Server'a hoş geldiniz (Client #%d)", clientID)
}

// TradeNotice builds the trade notification for one leg of a trade. The
// direction tag tells the receiver which leg was theirs and the trailing
// field carries the counterparty's order identifier. Legs are addressed by
// side rather than client id so a self-trade still produces both notices.
func TradeNotice(t book.Trade, leg book.Side) string {
	tag := tagBought
	counterpart := t.SellOrderID
	if leg == book.Sell {
		tag = tagSold
		counterpart = t.BuyOrderID
	}
	return fmt.Sprintf("TRADE|%s|%s|%s|%s|%d|%s",
		t.ID, tag, t.Symbol, FormatPrice(t.Price), t.Quantity, counterpart)
}
