package api

import (
	"net/http"
	"time"

	"github.com/MJE43/survival-arcade/internal/games"
	"github.com/MJE43/survival-arcade/internal/session"
	"github.com/MJE43/survival-arcade/internal/shop"
	"github.com/MJE43/survival-arcade/internal/wallet"
)

// --------- Request and response types ---------

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Games   int    `json:"games"`
}

type SelectRequest struct {
	Game games.ID `json:"game"`
}

type BetRequest struct {
	Game   games.ID `json:"game"`
	Amount int      `json:"amount"`
}

type TickRequest struct {
	Input games.Input `json:"input"`
	DtMs  int         `json:"dtMs"`
}

type PurchaseRequest struct {
	Kind string `json:"kind"`
}

type PurchaseResponse struct {
	Item   shop.Item       `json:"item"`
	Wallet wallet.Snapshot `json:"wallet"`
}

type FlipRequest struct {
	Side  shop.Side `json:"side"`
	Stake int       `json:"stake"`
}

type HighLowRequest struct {
	Guess shop.Guess `json:"guess"`
	Stake int        `json:"stake"`
}

// ShopResult wraps a shop game outcome with the wallet after it.
type ShopResult struct {
	Result any             `json:"result"`
	Wallet wallet.Snapshot `json:"wallet"`
}

// --------- Read handlers ---------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if _, err := s.svc.State(); err != nil {
		status = "unavailable"
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  status,
		Version: Version,
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
		Games:   len(s.svc.Games()),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.respondState(w, r)(s.svc.State())
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Games())
}

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Wallet())
}

func (s *Server) handleTugStats(w http.ResponseWriter, r *http.Request) {
	st := s.svc.TugStats()
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":      st,
		"difficulty": games.Difficulty(st),
	})
}

// --------- Session handlers ---------

func (s *Server) respondState(w http.ResponseWriter, r *http.Request) func(session.State, error) {
	return func(st session.State, err error) {
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := decode(r, &req); err != nil {
		s.handleValidation(w, r, "", err.Error())
		return
	}
	if req.Game == "" {
		s.handleValidation(w, r, "game", "game is required")
		return
	}
	s.respondState(w, r)(s.svc.SelectGame(req.Game))
}

func (s *Server) handleBet(w http.ResponseWriter, r *http.Request) {
	var req BetRequest
	if err := decode(r, &req); err != nil {
		s.handleValidation(w, r, "", err.Error())
		return
	}
	s.respondState(w, r)(s.svc.StartBet(req.Game, req.Amount))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.respondState(w, r)(s.svc.StartGame())
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	var req TickRequest
	if err := decode(r, &req); err != nil {
		s.handleValidation(w, r, "", err.Error())
		return
	}
	if req.DtMs < 0 {
		s.handleValidation(w, r, "dtMs", "dtMs must be >= 0")
		return
	}
	s.respondState(w, r)(s.svc.Tick(req.Input, time.Duration(req.DtMs)*time.Millisecond))
}

func (s *Server) handleAct(w http.ResponseWriter, r *http.Request) {
	var req games.Action
	if err := decode(r, &req); err != nil {
		s.handleValidation(w, r, "", err.Error())
		return
	}
	if req.Kind == "" {
		s.handleValidation(w, r, "kind", "kind is required")
		return
	}
	s.respondState(w, r)(s.svc.Act(req))
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	s.respondState(w, r)(s.svc.Skip())
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	s.respondState(w, r)(s.svc.AdvanceChallenge())
}

func (s *Server) handleLobby(w http.ResponseWriter, r *http.Request) {
	s.respondState(w, r)(s.svc.BackToLobby())
}

// --------- Shop handlers ---------

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Catalog())
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := decode(r, &req); err != nil {
		s.handleValidation(w, r, "", err.Error())
		return
	}
	kind, err := wallet.ParseKind(req.Kind)
	if err != nil {
		s.handleValidation(w, r, "kind", err.Error())
		return
	}
	item, err := s.svc.Purchase(kind)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PurchaseResponse{Item: item, Wallet: s.svc.Wallet()})
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.SpinSlots()
	s.respondShop(w, r, res, err)
}

func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	var req FlipRequest
	if err := decode(r, &req); err != nil {
		s.handleValidation(w, r, "", err.Error())
		return
	}
	res, err := s.svc.FlipCoin(req.Side, req.Stake)
	s.respondShop(w, r, res, err)
}

func (s *Server) handleCurrentCard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.CurrentCard())
}

func (s *Server) handleHighLow(w http.ResponseWriter, r *http.Request) {
	var req HighLowRequest
	if err := decode(r, &req); err != nil {
		s.handleValidation(w, r, "", err.Error())
		return
	}
	res, err := s.svc.PlayHighLow(req.Guess, req.Stake)
	s.respondShop(w, r, res, err)
}

func (s *Server) respondShop(w http.ResponseWriter, r *http.Request, res any, err error) {
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ShopResult{Result: res, Wallet: s.svc.Wallet()})
}
