package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/alexvidal/safewalk/internal/core/domain"
	"github.com/alexvidal/safewalk/internal/core/ports"
)

func TestChatService_SessionCreatedOnceAndReused(t *testing.T) {
	state := NewAssessmentState(testLoc, nil)
	session := &mockChatSession{}
	opens := 0
	inf := &mockInference{
		openChatFn: func(ctx context.Context) (ports.ChatSession, error) {
			opens++
			return session, nil
		},
	}
	svc := NewChatService(state, inf, nil)

	for _, msg := range []string{"is this area safe?", "what about after dark?", "thanks"} {
		if _, err := svc.SendTurn(context.Background(), msg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if opens != 1 {
		t.Errorf("expected exactly one session open, got %d", opens)
	}
	if session.turns != 3 {
		t.Errorf("expected all turns through the same session, got %d", session.turns)
	}

	transcript := state.Transcript()
	if len(transcript) != 6 {
		t.Fatalf("expected 6 transcript entries, got %d", len(transcript))
	}
	if transcript[0].Role != domain.RoleUser || transcript[1].Role != domain.RoleAssistant {
		t.Errorf("transcript turns out of order: %+v", transcript[:2])
	}
}

func TestChatService_FailureDegradesToFallback(t *testing.T) {
	state := NewAssessmentState(testLoc, nil)
	inf := &mockInference{
		openChatFn: func(ctx context.Context) (ports.ChatSession, error) {
			return &mockChatSession{
				sendFn: func(ctx context.Context, text string) (string, error) {
					return "", errors.New("upstream closed")
				},
			}, nil
		},
	}
	svc := NewChatService(state, inf, nil)

	reply, err := svc.SendTurn(context.Background(), "hello?")
	if err != nil {
		t.Fatalf("degraded turn must not surface an error, got %v", err)
	}
	if reply != domain.FallbackChatReply {
		t.Errorf("expected fallback reply, got %q", reply)
	}

	transcript := state.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("expected user turn + fallback in transcript, got %d entries", len(transcript))
	}
	if transcript[1].Text != domain.FallbackChatReply {
		t.Errorf("fallback not recorded: %q", transcript[1].Text)
	}
}

func TestChatService_FailedOpenRetriesNextTurn(t *testing.T) {
	state := NewAssessmentState(testLoc, nil)
	opens := 0
	inf := &mockInference{
		openChatFn: func(ctx context.Context) (ports.ChatSession, error) {
			opens++
			if opens == 1 {
				return nil, errors.New("connect refused")
			}
			return &mockChatSession{}, nil
		},
	}
	svc := NewChatService(state, inf, nil)

	reply, _ := svc.SendTurn(context.Background(), "first")
	if reply != domain.FallbackChatReply {
		t.Errorf("first turn should degrade, got %q", reply)
	}

	reply, _ = svc.SendTurn(context.Background(), "second")
	if reply == domain.FallbackChatReply {
		t.Error("second turn should reach the recovered session")
	}
	if opens != 2 {
		t.Errorf("expected a fresh open attempt after failure, got %d", opens)
	}
}

func TestChatService_RejectsEmptyMessage(t *testing.T) {
	svc := NewChatService(NewAssessmentState(testLoc, nil), &mockInference{}, nil)
	if _, err := svc.SendTurn(context.Background(), "   "); err == nil {
		t.Error("expected error for empty message")
	}
}
