package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	repoURL := r.URL.Query().Get("repo_url")
	agents, err := s.ctrl.ListAgents(repoURL)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	agent, err := s.ctrl.GetAgent(id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (s *Server) handleRestartAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.ctrl.RestartAgent(r.Context(), id); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "restarted"})
}

func (s *Server) handleRestartByBranchHash(w http.ResponseWriter, r *http.Request) {
	branchHash := chi.URLParam(r, "branch_hash")
	if err := s.ctrl.RestartByBranchHash(r.Context(), branchHash); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "restarted"})
}

type restartAllResponse struct {
	Status string   `json:"status"`
	Errors []string `json:"errors,omitempty"`
}

func (s *Server) handleRestartAll(w http.ResponseWriter, r *http.Request) {
	errs := s.ctrl.RestartAll(r.Context())
	resp := restartAllResponse{Status: "completed"}
	for _, e := range errs {
		resp.Errors = append(resp.Errors, e.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCheckRecovery(w http.ResponseWriter, r *http.Request) {
	errs := s.ctrl.CheckRecovery(r.Context())
	resp := restartAllResponse{Status: "completed"}
	for _, e := range errs {
		resp.Errors = append(resp.Errors, e.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

type manualTriggerRequest struct {
	RepoURL    string `json:"repo_url"`
	BranchName string `json:"branch_name"`
}

func (s *Server) handleManualTrigger(w http.ResponseWriter, r *http.Request) {
	var req manualTriggerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.ctrl.ManualTrigger(r.Context(), req.RepoURL, req.BranchName); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "triggered"})
}
