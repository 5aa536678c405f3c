// Package server accepts TCP connections and runs one session goroutine per
// client. Sessions parse the wire protocol, call into the engine and relay
// trade notifications owned by the session registry.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/ecamli/borsa/pkg/engine"
	"github.com/ecamli/borsa/pkg/storage"
)

type Server struct {
	engine   *engine.Engine
	registry *Registry
	orderLog *storage.OrderLog
	archive  *storage.Archive
	log      *zap.SugaredLogger

	maxClients int
	listener   net.Listener
	nextClient int64
	wg         sync.WaitGroup
}

func New(eng *engine.Engine, reg *Registry, orderLog *storage.OrderLog, archive *storage.Archive, maxClients int, log *zap.SugaredLogger) *Server {
	return &Server{
		engine:     eng,
		registry:   reg,
		orderLog:   orderLog,
		archive:    archive,
		maxClients: maxClients,
		log:        log,
	}
}

// Listen binds the order-entry port. A bind failure is fatal at startup; the
// caller aborts with the diagnostic.
func (s *Server) Listen(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", port, err)
	}
	s.listener = ln
	s.log.Infow("server_listening", "port", port, "max_clients", s.maxClients)
	return nil
}

// Serve accepts connections until ctx is cancelled, then waits for the
// remaining sessions to wind down.
func (s *Server) Serve(ctx context.Context) {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			s.log.Warnw("accept_failed", "err", err)
			continue
		}

		if s.maxClients > 0 && s.registry.Count() >= s.maxClients {
			s.log.Warnw("connection_refused_full", "remote", conn.RemoteAddr().String())
			fmt.Fprintln(conn, "Sunucu dolu, daha sonra tekrar deneyin.")
			conn.Close()
			continue
		}

		s.nextClient++
		sess := newSession(s.nextClient, conn, s)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			sess.run()
		}()
	}

	// Closing the listener stops new connections only; live sessions would
	// otherwise keep Wait blocked until every client left on its own.
	s.registry.closeAll()
	s.wg.Wait()
	s.log.Infow("server_stopped")
}
