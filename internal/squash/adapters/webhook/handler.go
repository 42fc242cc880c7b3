// Package webhook receives GitHub webhook deliveries over HTTP.
package webhook

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	gogithub "github.com/google/go-github/v68/github"

	"github.com/nathantilsley/squash-commit-app/internal/squash/domain"
	"github.com/nathantilsley/squash-commit-app/internal/squash/ports"
)

var errIncompletePayload = errors.New("payload is missing repository owner, name or pull request number")

// Handler validates and decodes pull_request deliveries and passes
// actionable ones to the event handler.
type Handler struct {
	events ports.EventHandlerPort
	secret []byte
	logger *slog.Logger
	now    func() time.Time
}

// New creates a webhook handler. Deliveries whose X-Hub-Signature-256 does
// not match secret are rejected.
func New(events ports.EventHandlerPort, secret string, logger *slog.Logger) *Handler {
	return &Handler{
		events: events,
		secret: []byte(secret),
		logger: logger,
		now:    time.Now,
	}
}

// Routes returns a mux serving POST /webhook and GET /healthz.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", h.handleWebhook)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	return mux
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	eventType := gogithub.WebHookType(r)
	deliveryID := gogithub.DeliveryID(r)
	logger := h.logger.With("event", eventType, "delivery", deliveryID)

	payload, err := gogithub.ValidatePayload(r, h.secret)
	if err != nil {
		logger.Warn("rejecting webhook with invalid signature", "error", err)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	if eventType != "pull_request" {
		logger.Debug("ignoring event type")
		writeStatus(w, http.StatusAccepted, "ignored")
		return
	}

	parsed, err := gogithub.ParseWebHook(eventType, payload)
	if err != nil {
		logger.Warn("parsing webhook payload", "error", err)
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}
	prEvent, ok := parsed.(*gogithub.PullRequestEvent)
	if !ok {
		http.Error(w, "unexpected payload", http.StatusBadRequest)
		return
	}

	ev, err := toDomainEvent(prEvent, deliveryID)
	if err != nil {
		logger.Warn("incomplete pull request payload", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !ev.Kind.Actionable() {
		logger.Debug("ignoring pull request action", "action", string(ev.Kind))
		writeStatus(w, http.StatusAccepted, "ignored")
		return
	}

	if err := h.events.HandleEvent(r.Context(), ev); err != nil {
		code, status := statusFor(err)
		writeStatus(w, code, status)
		return
	}
	writeStatus(w, http.StatusOK, "processed")
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best effort response body
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"time":   h.now().UTC().Format(time.RFC3339Nano),
	})
}

func toDomainEvent(e *gogithub.PullRequestEvent, deliveryID string) (domain.PullRequestEvent, error) {
	number := e.GetNumber()
	if number == 0 {
		number = e.GetPullRequest().GetNumber()
	}
	ev := domain.PullRequestEvent{
		Kind: domain.EventKind(e.GetAction()),
		PullRequest: domain.PullRequestRef{
			Repo: domain.Repository{
				Owner: e.GetRepo().GetOwner().GetLogin(),
				Name:  e.GetRepo().GetName(),
			},
			Number: number,
		},
		InstallationID: e.GetInstallation().GetID(),
		DeliveryID:     deliveryID,
	}
	if ev.PullRequest.Repo.Owner == "" || ev.PullRequest.Repo.Name == "" || ev.PullRequest.Number == 0 {
		return ev, errIncompletePayload
	}
	return ev, nil
}

// statusFor maps workflow errors to a response code and a fixed status text.
// GitHub shows non-2xx deliveries as failed, which is where redelivery is
// triggered. Error details stay in the server log.
func statusFor(err error) (int, string) {
	switch {
	case domain.IsConflict(err):
		return http.StatusConflict, "conflict"
	case domain.IsNotFound(err):
		return http.StatusNotFound, "not found"
	case domain.IsTransient(err):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "failed"
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	//nolint:errcheck // Best effort response body
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
