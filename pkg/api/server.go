package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/thp-tushar/carbonmatch/pkg/order"
	"github.com/thp-tushar/carbonmatch/pkg/trade"
)

type OrderGetter interface {
	GetOrder(ctx context.Context, id uint64) (order.Order, bool)
}

type BuyOrderProcessor interface {
	ProcessBuyOrder(ctx context.Context, buyOrderID uint64) trade.Outcome
}

type OutcomeStore interface {
	Outcomes(buyOrderID uint64, limit int) ([]trade.Outcome, error)
}

// Server handles REST API and WebSocket connections
type Server struct {
	orders    OrderGetter
	finder    trade.Finder
	processor BuyOrderProcessor
	outcomes  OutcomeStore
	metrics   http.Handler

	router  *mux.Router
	hub     *Hub
	origins []string
	logger  *zap.SugaredLogger
}

type Options struct {
	Orders    OrderGetter
	Finder    trade.Finder
	Processor BuyOrderProcessor
	Outcomes  OutcomeStore
	Metrics   http.Handler // optional
	Hub       *Hub
	Origins   []string
	Logger    *zap.SugaredLogger
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	hub := opts.Hub
	if hub == nil {
		hub = NewHub(opts.Logger)
	}
	s := &Server{
		orders:    opts.Orders,
		finder:    opts.Finder,
		processor: opts.Processor,
		outcomes:  opts.Outcomes,
		metrics:   opts.Metrics,
		router:    mux.NewRouter(),
		hub:       hub,
		origins:   opts.Origins,
		logger:    opts.Logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// API v1 routes
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/orders/{id}", s.handleGetOrder).Methods("GET")
	api.HandleFunc("/orders/{id}/matches", s.handleGetMatches).Methods("GET")
	api.HandleFunc("/orders/{id}/match", s.handleProcessOrder).Methods("POST")
	api.HandleFunc("/outcomes/{id}", s.handleGetOutcomes).Methods("GET")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods("GET")
	}

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the router wrapped with CORS.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(s.router)
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	go s.hub.Run(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Infow("api_listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	o, found := s.orders.GetOrder(r.Context(), id)
	if !found {
		respondError(w, http.StatusNotFound, "order not found", strconv.FormatUint(id, 10))
		return
	}
	respondJSON(w, newOrderInfo(o))
}

func (s *Server) handleGetMatches(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	sells, err := s.finder.FindMatchingOrders(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusBadGateway, "order book unavailable", err.Error())
		return
	}
	respondJSON(w, MatchesResponse{BuyOrderID: id, SellOrderIDs: sells})
}

func (s *Server) handleProcessOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	s.logger.Infow("api_process_order", "buy_order_id", id, "remote", r.RemoteAddr)
	respondJSON(w, s.processor.ProcessBuyOrder(r.Context(), id))
}

func (s *Server) handleGetOutcomes(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit", raw)
			return
		}
		limit = n
	}
	outcomes, err := s.outcomes.Outcomes(id, limit)
	if err != nil {
		s.logger.Errorw("outcomes_read_failed", "buy_order_id", id, "err", err)
		respondError(w, http.StatusInternalServerError, "journal read failed", err.Error())
		return
	}
	respondJSON(w, OutcomesResponse{BuyOrderID: id, Outcomes: outcomes})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ==============================
// Helper Functions
// ==============================

func orderID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondError(w, http.StatusBadRequest, "invalid order id", raw)
		return 0, false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
