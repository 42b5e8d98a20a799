package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type putSecretRequest struct {
	RepoURL    string `json:"repo_url"`
	BranchName string `json:"branch_name"`
	Key        string `json:"key"`
	Value      string `json:"value"`
}

func (s *Server) handlePutSecret(w http.ResponseWriter, r *http.Request) {
	var req putSecretRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.ctrl.PutSecret(req.RepoURL, req.BranchName, req.Key, req.Value); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "stored"})
}

func (s *Server) handleCheckSecrets(w http.ResponseWriter, r *http.Request) {
	branchHash := chi.URLParam(r, "branch_hash")

	var required []string
	if q := r.URL.Query().Get("keys"); q != "" {
		required = strings.Split(q, ",")
	}

	status, err := s.ctrl.CheckSecrets(branchHash, required)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
