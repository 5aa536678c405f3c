package server

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ecamli/borsa/pkg/book"
	"github.com/ecamli/borsa/pkg/proto"
)

// Registry maps client ids to live sessions. It exists for exactly one
// decision: can a trade notification be delivered right now. A missing entry
// means the counterparty disconnected and forfeits the notification; the
// trade itself has already been recorded.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]*session
	log      *zap.SugaredLogger
}

func NewRegistry(log *zap.SugaredLogger) *Registry {
	return &Registry{sessions: make(map[int64]*session), log: log}
}

func (r *Registry) add(s *session) {
	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
}

func (r *Registry) remove(id int64) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// closeAll closes every live connection. Used on server shutdown: the read
// loops unwind on the closed socket and each session deregisters itself.
func (r *Registry) closeAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		s.conn.Close()
	}
}

// Count returns the number of connected sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Send queues a message for a client if it is connected. Returns false when
// the client is gone; callers treat that as normal, not as an error.
func (r *Registry) Send(clientID int64, msg string) bool {
	r.mu.RLock()
	s, ok := r.sessions[clientID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	s.send(msg)
	return true
}

// TradeExecuted delivers both legs of a trade to whichever parties are still
// connected. Implements the engine's trade sink.
func (r *Registry) TradeExecuted(t book.Trade) {
	r.Send(t.BuyerID, proto.TradeNotice(t, book.Buy))
	r.Send(t.SellerID, proto.TradeNotice(t, book.Sell))
}
