// Package server exposes the agent-facing trading tools over HTTP. Every
// route delegates to the tools layer, so mandate gating and audit
// logging apply identically to CLI and HTTP callers.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jcgs2503/vestbridge/internal/tools"
	"github.com/jcgs2503/vestbridge/pkg/errclass"
	"github.com/jcgs2503/vestbridge/pkg/model"
	"github.com/jcgs2503/vestbridge/pkg/webhook"
)

// Server routes HTTP requests to one agent's tool service.
type Server struct {
	svc      *tools.Service
	logger   *zap.Logger
	notifier *webhook.Notifier
	router   chi.Router
}

// New builds the router. notifier may be nil when no webhooks are
// configured.
func New(svc *tools.Service, logger *zap.Logger, notifier *webhook.Notifier) *Server {
	s := &Server{svc: svc, logger: logger, notifier: notifier}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/quote/{symbol}", s.handleQuote)
		r.Get("/positions", s.handlePositions)
		r.Get("/account", s.handleAccount)
		r.Post("/orders", s.handlePlaceOrder)
		r.Delete("/orders/{orderID}", s.handleCancelOrder)
		r.Get("/actions", s.handleActions)
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"agent_id": s.svc.AgentID,
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	quote, err := s.svc.GetQuote(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.svc.GetPositions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if positions == nil {
		positions = []model.Position{}
	}
	writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.svc.GetAccount(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

type orderRequest struct {
	Symbol     string  `json:"symbol"`
	Qty        float64 `json:"qty"`
	Side       string  `json:"side"`
	OrderType  string  `json:"order_type"`
	LimitPrice float64 `json:"limit_price"`
	AssetType  string  `json:"asset_type"`
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed request body"})
		return
	}
	if req.Symbol == "" || req.Qty <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "symbol and positive qty are required"})
		return
	}
	if req.OrderType == "" {
		req.OrderType = string(model.OrderTypeMarket)
	}
	if req.AssetType == "" {
		req.AssetType = string(model.AssetEquity)
	}

	side, err := model.ParseSide(req.Side)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	orderType, err := model.ParseOrderType(req.OrderType)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	assetType, err := model.ParseAssetType(req.AssetType)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	outcome, err := s.svc.PlaceOrder(r.Context(), model.OrderRequest{
		Symbol:     req.Symbol,
		Qty:        req.Qty,
		Side:       side,
		OrderType:  orderType,
		LimitPrice: req.LimitPrice,
		AssetType:  assetType,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	if outcome.Blocked {
		if s.notifier != nil {
			s.notifier.Notify(webhook.EventOrderBlocked, map[string]any{
				"agent_id": s.svc.AgentID,
				"symbol":   req.Symbol,
				"qty":      req.Qty,
				"side":     string(side),
				"reason":   outcome.Reason,
			})
		}
		writeJSON(w, http.StatusForbidden, map[string]any{
			"status":  "blocked",
			"reason":  outcome.Reason,
			"message": outcome.Message,
			"checks":  outcome.Checks,
		})
		return
	}
	writeJSON(w, http.StatusOK, outcome.Result)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.CancelOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "n must be a positive integer"})
			return
		}
		n = parsed
	}

	actions, err := s.svc.RecentActions(n)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if actions == nil {
		actions = []tools.ActionSummary{}
	}
	writeJSON(w, http.StatusOK, actions)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var vestErr *errclass.VestError
	if errors.As(err, &vestErr) {
		switch {
		case errors.Is(err, errclass.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, errclass.ErrMandateInvalid):
			status = http.StatusBadRequest
		case errors.Is(err, errclass.ErrBrokerUnsupported):
			status = http.StatusNotImplemented
		}
	}
	s.logger.Error("request failed", zap.Error(err))
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
