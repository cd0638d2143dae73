package relay

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"flowise-telegram-bridge/internal/config"
	"flowise-telegram-bridge/internal/domain"
)

// Fixed user-facing replies. Raw backend errors are never forwarded to the
// chat; failures always surface as the apology line.
const (
	greeting          = "Olá! Sou seu assistente IA integrado ao Flowise."
	resetConfirmation = "Contexto resetado."
	statusReply       = "✅ Online."
	backendApology    = "⚠️ Erro ao falar com o motor Flowise."
)

const (
	defaultHistoryCap  = 16
	defaultContextSize = 8
)

// Backend produces an answer for a question given the chat's recent history.
type Backend interface {
	Ask(ctx context.Context, chatID int64, question string, history []string) (string, error)
}

// Sender delivers messages back to the chat. Send failures are terminal and
// never escalate past logging.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendChatAction(ctx context.Context, chatID int64, action string) error
}

// Update is one inbound message event, already extracted from the webhook
// payload.
type Update struct {
	ChatID int64
	UserID int64
	Text   string
}

// Result describes how an update was handled, for the webhook acknowledgment
// envelope.
type Result struct {
	// Ignored is set for unauthorized senders; deliberately identical to
	// the no-payload acknowledgment so the gate's existence never leaks.
	Ignored bool
	// RateLimited flags a throttled sender, visible only in the ack body.
	RateLimited bool
	// Failed flags a backend failure. The webhook still acknowledges with
	// HTTP 200 so the platform does not retry the update.
	Failed bool
}

// Service drives the whole pipeline for one update: access gate, rate gate,
// command dispatch, backend call, history update, outbound reply.
type Service struct {
	history     domain.HistoryStore
	rate        domain.RateGate
	backend     Backend
	sender      Sender
	gate        *AccessGate
	historyCap  int
	contextSize int
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(history domain.HistoryStore, rate domain.RateGate, backend Backend, sender Sender, cfg config.Config, logger *slog.Logger) *Service {
	historyCap := cfg.HistoryCap
	if historyCap <= 0 {
		historyCap = defaultHistoryCap
	}
	contextSize := cfg.ContextSize
	if contextSize <= 0 {
		contextSize = defaultContextSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		history:     history,
		rate:        rate,
		backend:     backend,
		sender:      sender,
		gate:        NewAccessGate(cfg.AllowedUserIDs),
		historyCap:  historyCap,
		contextSize: contextSize,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Service) Handle(ctx context.Context, upd Update) Result {
	if !s.gate.Allowed(upd.UserID) {
		s.logger.Debug("access_denied", "user_id", upd.UserID)
		return Result{Ignored: true}
	}

	if s.rate.Limited(upd.UserID, s.now()) {
		s.logger.Debug("rate_limited", "user_id", upd.UserID)
		return Result{RateLimited: true}
	}

	if strings.HasPrefix(upd.Text, "/") && s.dispatchCommand(ctx, upd) {
		return Result{}
	}

	history := s.history.Recent(upd.ChatID, s.contextSize)

	if err := s.sender.SendChatAction(ctx, upd.ChatID, "typing"); err != nil {
		s.logger.Debug("chat_action_failed", "chat_id", upd.ChatID, "error", err)
	}

	answer, err := s.backend.Ask(ctx, upd.ChatID, upd.Text, history)
	if err != nil {
		s.logger.Error("backend_ask_failed", "chat_id", upd.ChatID, "error", err)
		s.send(ctx, upd.ChatID, backendApology)
		return Result{Failed: true}
	}

	s.history.Append(upd.ChatID, s.historyCap,
		domain.UserTurn(upd.Text),
		domain.AssistantTurn(answer),
	)
	s.send(ctx, upd.ChatID, answer)
	return Result{}
}

// dispatchCommand handles the recognized slash commands and reports whether
// the update was consumed. Unrecognized slash text falls through to the
// backend like any other message.
func (s *Service) dispatchCommand(ctx context.Context, upd Update) bool {
	switch {
	case strings.HasPrefix(upd.Text, "/start"):
		s.send(ctx, upd.ChatID, greeting)
	case strings.HasPrefix(upd.Text, "/novo"):
		s.history.Reset(upd.ChatID)
		s.send(ctx, upd.ChatID, resetConfirmation)
	case strings.HasPrefix(upd.Text, "/status"):
		s.send(ctx, upd.ChatID, statusReply)
	default:
		return false
	}
	return true
}

func (s *Service) send(ctx context.Context, chatID int64, text string) {
	if err := s.sender.SendMessage(ctx, chatID, text); err != nil {
		s.logger.Error("send_failed", "chat_id", chatID, "error", err)
	}
}
