package server

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/ecamli/borsa/pkg/proto"
	"github.com/ecamli/borsa/pkg/storage"
)

// outboundBuffer bounds the per-session send queue. A session that cannot
// drain its socket loses notifications rather than stalling the engine.
const outboundBuffer = 64

type session struct {
	id   int64
	conn net.Conn
	srv  *Server

	out  chan string
	done chan struct{}
}

func newSession(id int64, conn net.Conn, srv *Server) *session {
	return &session{
		id:   id,
		conn: conn,
		srv:  srv,
		out:  make(chan string, outboundBuffer),
		done: make(chan struct{}),
	}
}

// send queues a line for the writer goroutine without ever blocking the
// caller; the engine and other sessions must not wait on a slow socket.
func (s *session) send(msg string) {
	select {
	case s.out <- msg:
	default:
		s.srv.log.Warnw("session_send_dropped", "client", s.id)
	}
}

// writeLoop is the only goroutine that writes to the socket. On shutdown it
// drains whatever is already queued (the farewell line in particular) before
// returning.
func (s *session) writeLoop(wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case msg := <-s.out:
			fmt.Fprintln(s.conn, msg)
		case <-s.done:
			for {
				select {
				case msg := <-s.out:
					fmt.Fprintln(s.conn, msg)
				default:
					return
				}
			}
		}
	}
}

// run is the session state machine: register, welcome, then one message per
// loop iteration until quit or the peer goes away. Transport errors end this
// session only.
func (s *session) run() {
	s.srv.registry.add(s)
	s.srv.log.Infow("client_connected", "client", s.id, "active", s.srv.registry.Count())

	var writers sync.WaitGroup
	writers.Add(1)
	go s.writeLoop(&writers)

	defer func() {
		s.srv.registry.remove(s.id)
		close(s.done)
		writers.Wait()
		s.conn.Close()
		s.srv.log.Infow("client_disconnected", "client", s.id, "active", s.srv.registry.Count())
	}()

	s.send(proto.Welcome(s.id))

	sc := bufio.NewScanner(s.conn)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case line == proto.CmdQuit:
			s.send(proto.MsgFarewell)
			return
		case strings.HasPrefix(line, proto.CmdOrder+"|"):
			s.handleOrder(line)
		default:
			s.send(proto.MsgOK)
		}
	}
	// Zero-length read or transport error: peer is gone either way.
}

func (s *session) handleOrder(line string) {
	req, err := proto.ParseOrder(line)
	if err != nil {
		s.srv.log.Warnw("order_rejected", "client", s.id, "err", err)
		s.send(proto.Rejected(err))
		return
	}

	s.srv.orderLog.Append(s.id, line)

	o, trades := s.srv.engine.Submit(s.id, req.Symbol, req.Side, req.Price, req.Quantity)

	if s.srv.archive != nil {
		s.srv.archive.SaveOrder(storage.OrderRecord{
			OrderID:  o.ID,
			ClientID: o.ClientID,
			Symbol:   o.Symbol,
			Side:     o.Side,
			Price:    o.Price,
			Quantity: o.Quantity,
			Time:     o.Time,
		})
	}

	s.srv.log.Infow("order_processed",
		"client", s.id, "order_id", o.ID, "symbol", o.Symbol,
		"side", o.Side.String(), "price", o.Price, "qty", o.Quantity,
		"trades", len(trades), "rested", o.Remaining > 0)

	// Trade notices (if any) were fanned out by the engine before Submit
	// returned; the acceptance follows them on this session's queue.
	s.send(proto.Accepted(o.ID))
}
