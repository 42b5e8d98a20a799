package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cuemby/branchd/pkg/controller"
)

type ingestMetricRequest struct {
	RepoURL       string   `json:"repo_url"`
	BranchName    string   `json:"branch_name"`
	Decision      string   `json:"decision"`
	Price         *float64 `json:"price,omitempty"`
	TradeExecuted bool     `json:"trade_executed,omitempty"`
	TradeTxHash   string   `json:"trade_tx_hash,omitempty"`
	TradeAmount   *float64 `json:"trade_amount,omitempty"`
}

func (s *Server) handleIngestMetric(w http.ResponseWriter, r *http.Request) {
	var req ingestMetricRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err := s.ctrl.IngestMetric(r.Context(), controller.MetricInput{
		RepoURL:       req.RepoURL,
		BranchName:    req.BranchName,
		Decision:      req.Decision,
		Price:         req.Price,
		TradeExecuted: req.TradeExecuted,
		TradeTxHash:   req.TradeTxHash,
		TradeAmount:   req.TradeAmount,
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "ingested"})
}

func (s *Server) handleRecentMetrics(w http.ResponseWriter, r *http.Request) {
	branchHash := chi.URLParam(r, "branch_hash")
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}

	metrics, err := s.ctrl.RecentMetrics(branchHash, limit)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	branchHash := chi.URLParam(r, "branch_hash")
	stats, err := s.ctrl.Stats(branchHash)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	branchHash := chi.URLParam(r, "branch_hash")
	trades, err := s.ctrl.Trades(branchHash)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}
