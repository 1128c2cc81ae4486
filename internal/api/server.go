// Package api serves the arcade over a loopback JSON API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/survival-arcade/internal/games"
	"github.com/MJE43/survival-arcade/internal/session"
	"github.com/MJE43/survival-arcade/internal/shop"
	"github.com/MJE43/survival-arcade/internal/wallet"
)

// Version is reported by /health and in the X-Arcade-Version header.
const Version = "1.0.0"

// Service is the arcade surface the API drives.
type Service interface {
	State() (session.State, error)
	Games() []games.Spec
	SelectGame(id games.ID) (session.State, error)
	StartBet(id games.ID, amount int) (session.State, error)
	StartGame() (session.State, error)
	Tick(in games.Input, dt time.Duration) (session.State, error)
	Act(a games.Action) (session.State, error)
	Skip() (session.State, error)
	AdvanceChallenge() (session.State, error)
	BackToLobby() (session.State, error)

	Wallet() wallet.Snapshot
	TugStats() games.TugStats
	Catalog() *shop.Catalog
	Purchase(kind wallet.PowerupKind) (shop.Item, error)
	SpinSlots() (shop.SpinResult, error)
	FlipCoin(side shop.Side, stake int) (shop.FlipResult, error)
	CurrentCard() shop.Card
	PlayHighLow(guess shop.Guess, stake int) (shop.HighLowResult, error)
}

// Server handles HTTP requests.
type Server struct {
	svc        Service
	logger     *log.Logger
	addr       string
	httpServer *http.Server
	startTime  time.Time
}

// NewServer creates a server bound to loopback at port.
func NewServer(svc Service, port int) *Server {
	if port <= 0 {
		port = 17890
	}
	return &Server{
		svc:       svc,
		logger:    log.New(os.Stdout, "[API] ", log.LstdFlags),
		addr:      fmt.Sprintf("127.0.0.1:%d", port),
		startTime: time.Now(),
	}
}

// Addr is the listen address.
func (s *Server) Addr() string { return s.addr }

// Routes sets up the HTTP routes with middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequest)
	r.Use(s.recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/games", s.handleGames)
		r.Get("/wallet", s.handleWallet)
		r.Get("/stats/tug-of-war", s.handleTugStats)

		r.Post("/select", s.handleSelect)
		r.Post("/bet", s.handleBet)
		r.Post("/start", s.handleStart)
		r.Post("/tick", s.handleTick)
		r.Post("/act", s.handleAct)
		r.Post("/skip", s.handleSkip)
		r.Post("/advance", s.handleAdvance)
		r.Post("/lobby", s.handleLobby)

		r.Route("/shop", func(r chi.Router) {
			r.Get("/catalog", s.handleCatalog)
			r.Post("/purchase", s.handlePurchase)
			r.Post("/slots", s.handleSlots)
			r.Post("/flip", s.handleFlip)
			r.Get("/highlow", s.handleCurrentCard)
			r.Post("/highlow", s.handleHighLow)
		})
	})
	return r
}

// Start begins listening in a goroutine. It returns when the socket is bound.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("api: listen %s: %w", s.addr, err)
	}
	s.logger.Printf("listening on http://%s", s.addr)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("serve: %v", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// --------- Middleware ---------

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Printf("request_id=%s %s %s status=%d dur=%s",
			middleware.GetReqID(r.Context()), r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				requestID := middleware.GetReqID(r.Context())
				s.logger.Printf("panic_recovered request_id=%s path=%s method=%s panic=%v",
					requestID, r.URL.Path, r.Method, rvr)
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{
					Type:      ErrTypeInternal,
					Message:   "Internal server error",
					RequestID: requestID,
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// --------- Helpers ---------

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Arcade-Version", Version)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// decode reads a JSON body strictly. An empty body leaves dst untouched.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
