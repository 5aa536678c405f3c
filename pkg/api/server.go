// Package api exposes read-only market data over HTTP and a WebSocket trade
// feed. Order entry stays on the TCP protocol; nothing here mutates books.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/ecamli/borsa/pkg/engine"
	"github.com/ecamli/borsa/pkg/proto"
	"github.com/ecamli/borsa/pkg/storage"
)

type Server struct {
	engine  *engine.Engine
	archive *storage.Archive
	router  *mux.Router
	hub     *Hub
}

func NewServer(eng *engine.Engine, archive *storage.Archive, hub *Hub) *Server {
	s := &Server{
		engine:  eng,
		archive: archive,
		router:  mux.NewRouter(),
		hub:     hub,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/books", s.handleListBooks).Methods("GET")
	api.HandleFunc("/books/{symbol}", s.handleGetBook).Methods("GET")
	api.HandleFunc("/trades", s.handleGetTrades).Methods("GET")

	s.router.HandleFunc("/ws", s.hub.ServeWS)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the hub and serves until the listener fails.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	log.Printf("[api] server starting on %s", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

type bookResponse struct {
	Symbol string         `json:"symbol"`
	Bids   []engine.Level `json:"bids"`
	Asks   []engine.Level `json:"asks"`
}

type tradeResponse struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
	Buyer    int64  `json:"buyer"`
	Seller   int64  `json:"seller"`
	Time     string `json:"time"`
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.engine.Symbols())
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	bids, asks := s.engine.Depth(symbol)
	respondJSON(w, bookResponse{Symbol: symbol, Bids: bids, Asks: asks})
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		respondError(w, http.StatusServiceUnavailable, "trade archive disabled")
		return
	}

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	trades, err := s.archive.TradesBetween(from, from.AddDate(0, 0, 1))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]tradeResponse, 0, len(trades))
	for _, t := range trades {
		out = append(out, tradeResponse{
			ID:       t.ID,
			Symbol:   t.Symbol,
			Price:    proto.FormatPrice(t.Price),
			Quantity: t.Quantity,
			Buyer:    t.BuyerID,
			Seller:   t.SellerID,
			Time:     t.Time.Format(time.RFC3339),
		})
	}
	respondJSON(w, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode error: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
