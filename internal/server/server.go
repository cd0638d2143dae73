package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"flowise-telegram-bridge/internal/usecase/relay"
)

// Relay handles one extracted update end to end.
type Relay interface {
	Handle(ctx context.Context, upd relay.Update) relay.Result
}

// Server exposes the webhook plus the two static status endpoints. It holds
// no mutable state of its own.
type Server struct {
	relay             Relay
	logger            *slog.Logger
	backendConfigured bool
}

func New(r Relay, backendConfigured bool, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		relay:             r,
		logger:            logger,
		backendConfigured: backendConfigured,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/telegram/webhook", s.handleWebhook)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleRoot)
	return mux
}

// ackResponse is the webhook acknowledgment envelope. It always goes out with
// HTTP 200: returning an error status would make Telegram redeliver the
// update indefinitely.
type ackResponse struct {
	OK          bool `json:"ok"`
	Ignored     bool `json:"ignored,omitempty"`
	RateLimited bool `json:"rate_limited,omitempty"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	logger := s.logger.With("request_id", uuid.NewString())

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		logger.Warn("webhook_decode_failed", "error", err)
		writeJSON(w, ackResponse{OK: true, Ignored: true})
		return
	}

	msg := update.Message
	if msg == nil {
		msg = update.EditedMessage
	}
	if msg == nil || msg.Chat == nil || msg.From == nil {
		// Status callbacks and other non-message updates are no-op events.
		writeJSON(w, ackResponse{OK: true, Ignored: true})
		return
	}

	// Once acknowledged the platform is out of the picture; the backend
	// call must not die with the inbound connection.
	ctx := context.WithoutCancel(r.Context())
	res := s.relay.Handle(ctx, relay.Update{
		ChatID: msg.Chat.ID,
		UserID: msg.From.ID,
		Text:   msg.Text,
	})
	logger.Info("webhook_handled",
		"update_id", update.UpdateID,
		"chat_id", msg.Chat.ID,
		"ignored", res.Ignored,
		"rate_limited", res.RateLimited,
		"failed", res.Failed,
	)

	writeJSON(w, ackResponse{
		OK:          !res.Failed,
		Ignored:     res.Ignored,
		RateLimited: res.RateLimited,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{
		"ok":                 true,
		"backend_configured": s.backendConfigured,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]any{"message": "Bridge ativo."})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
