package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cuemby/branchd/pkg/log"
)

var errMissingPushFields = errors.New("payload missing repository.clone_url or ref")

// pushBackgroundTimeout bounds the detached goroutine a webhook spawns.
// Kept at the same 25s as controller.PushTimeout since ProcessPush
// enforces its own internal timeout of the same length; this context
// exists only so a caller-supplied context.Background() can still be
// cancelled if the process is shutting down.
const pushBackgroundTimeout = 25 * time.Second

// webhookEventHeader is the header the handler keys off to decide
// whether a payload is a push. Named for GitHub's convention since
// that is what every provider in practice imitates, but no
// provider-specific validation happens here: the handler only reads
// the fields it needs.
const webhookEventHeader = "X-GitHub-Event"

type pushPayload struct {
	Repository struct {
		CloneURL string `json:"clone_url"`
	} `json:"repository"`
	Ref string `json:"ref"`
}

type ackResponse struct {
	Status string `json:"status"`
}

// handleWebhookPush handles a provider push event posted directly to
// the push-specific path.
func (s *Server) handleWebhookPush(w http.ResponseWriter, r *http.Request) {
	s.processPushWebhook(w, r)
}

// handleWebhookGeneric handles the provider-agnostic path, routing by
// the configured event header. Non-push events (including ping) are
// acknowledged without processing.
func (s *Server) handleWebhookGeneric(w http.ResponseWriter, r *http.Request) {
	event := r.Header.Get(webhookEventHeader)
	switch strings.ToLower(event) {
	case "push":
		s.processPushWebhook(w, r)
	case "ping", "":
		writeJSON(w, http.StatusOK, ackResponse{Status: "acknowledged"})
	default:
		writeJSON(w, http.StatusOK, ackResponse{Status: "ignored"})
	}
}

func (s *Server) processPushWebhook(w http.ResponseWriter, r *http.Request) {
	var payload pushPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	repoURL := payload.Repository.CloneURL
	branchName := lastPathSegment(payload.Ref)
	if repoURL == "" || branchName == "" {
		writeError(w, http.StatusBadRequest, errMissingPushFields)
		return
	}

	// The push handler responds within the webhook's timeout window
	// regardless of how long convergence takes: processing continues
	// in the background on its own bounded timeout (controller.PushTimeout).
	// recover()-guarded like every other supervisor/push-handler
	// goroutine so a defect in one branch's convergence can never take
	// the process down.
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithComponent("api").Error().Interface("panic", rec).
					Str("repo_url", repoURL).Str("branch_name", branchName).
					Msg("recovered from panic in async push processing")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), pushBackgroundTimeout)
		defer cancel()
		if err := s.ctrl.ProcessPush(ctx, repoURL, branchName); err != nil {
			log.WithComponent("api").Error().Err(err).
				Str("repo_url", repoURL).Str("branch_name", branchName).
				Msg("async push processing failed")
		}
	}()

	writeJSON(w, http.StatusOK, ackResponse{Status: "accepted"})
}

func lastPathSegment(ref string) string {
	parts := strings.Split(ref, "/")
	return parts[len(parts)-1]
}
