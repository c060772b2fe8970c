package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/alexvidal/safewalk/internal/core/domain"
	"github.com/alexvidal/safewalk/internal/core/ports"
	"github.com/alexvidal/safewalk/internal/pkg/metrics"
)

// ChatService maintains one conversational session with the inference
// service, created lazily on the first turn and reused afterwards so the
// service keeps its own cross-turn context. Chat failures degrade to a
// canned reply immediately; no backoff is applied because chat is
// interactive and must not block on retry delays.
type ChatService struct {
	state     *AssessmentState
	inference ports.InferenceService

	mu      sync.Mutex
	session ports.ChatSession
	log     *slog.Logger
}

// NewChatService creates the chat service.
func NewChatService(state *AssessmentState, inference ports.InferenceService, log *slog.Logger) *ChatService {
	if log == nil {
		log = slog.Default()
	}
	return &ChatService{state: state, inference: inference, log: log.With("component", "chat")}
}

// SendTurn appends the user turn to the transcript, sends it over the
// session, and appends the assistant reply. On any failure the reply is the
// local fallback message; the returned error is nil in that case because
// degradation is the contract, not an exception.
func (s *ChatService) SendTurn(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("chat message must not be empty")
	}

	s.state.AppendMessage(domain.ChatMessage{Role: domain.RoleUser, Text: text})

	reply, err := s.send(ctx, text)
	if err != nil {
		s.log.Warn("chat turn failed, substituting fallback", "error", err)
		metrics.ChatTurns.WithLabelValues("fallback").Inc()
		reply = domain.FallbackChatReply
	} else {
		metrics.ChatTurns.WithLabelValues("ok").Inc()
	}

	s.state.AppendMessage(domain.ChatMessage{Role: domain.RoleAssistant, Text: reply})
	return reply, nil
}

func (s *ChatService) send(ctx context.Context, text string) (string, error) {
	session, err := s.ensureSession(ctx)
	if err != nil {
		return "", err
	}
	return session.Send(ctx, text)
}

// ensureSession opens the session exactly once. A failed open leaves the
// field nil so the next turn tries again.
func (s *ChatService) ensureSession(ctx context.Context) (ports.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		return s.session, nil
	}
	session, err := s.inference.OpenChat(ctx)
	if err != nil {
		return nil, fmt.Errorf("open chat session: %w", err)
	}
	s.session = session
	return session, nil
}
