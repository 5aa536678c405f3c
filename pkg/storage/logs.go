package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ecamli/borsa/pkg/book"
	"github.com/ecamli/borsa/pkg/proto"
)

const (
	TradeLogFile = "trades.log"
	OrderLogFile = "server_orders.log"
)

// appendLog is a mutex-guarded line appender over a single open file.
type appendLog struct {
	mu sync.Mutex
	f  *os.File
}

func openAppendLog(path string) (*appendLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &appendLog{f: f}, nil
}

func (l *appendLog) appendLine(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := fmt.Fprintln(l.f, line)
	return err
}

func (l *appendLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// TradeLog is the append-only human-audit trail of executions:
// DATE TIME|TRADE_ID|SYMBOL|PRICE|QUANTITY|CLIENT#<buyer>|CLIENT#<seller>
// Entries are immutable and never rewritten.
type TradeLog struct {
	*appendLog
	log *zap.SugaredLogger
}

func OpenTradeLog(dir string, log *zap.SugaredLogger) (*TradeLog, error) {
	al, err := openAppendLog(filepath.Join(dir, TradeLogFile))
	if err != nil {
		return nil, fmt.Errorf("open trade log: %w", err)
	}
	return &TradeLog{appendLog: al, log: log}, nil
}

// TradeExecuted appends one trade. A write failure degrades the audit trail
// but never the trade itself, so it is logged rather than propagated.
func (l *TradeLog) TradeExecuted(t book.Trade) {
	line := fmt.Sprintf("%s|%s|%s|%s|%d|CLIENT#%d|CLIENT#%d",
		t.Time.Format(timeLayout), t.ID, t.Symbol,
		proto.FormatPrice(t.Price), t.Quantity, t.BuyerID, t.SellerID)
	if err := l.appendLine(line); err != nil {
		l.log.Warnw("trade_log_append_failed", "trade_id", t.ID, "err", err)
	}
}

// OrderLog records every accepted raw order message:
// DATE TIME|Client#<id>|<raw message>
type OrderLog struct {
	*appendLog
	log *zap.SugaredLogger
}

func OpenOrderLog(dir string, log *zap.SugaredLogger) (*OrderLog, error) {
	al, err := openAppendLog(filepath.Join(dir, OrderLogFile))
	if err != nil {
		return nil, fmt.Errorf("open order log: %w", err)
	}
	return &OrderLog{appendLog: al, log: log}, nil
}

func (l *OrderLog) Append(clientID int64, raw string) {
	line := fmt.Sprintf("%s|Client#%d|%s", time.Now().Format(timeLayout), clientID, raw)
	if err := l.appendLine(line); err != nil {
		l.log.Warnw("order_log_append_failed", "client", clientID, "err", err)
	}
}
