package openaiadapter

import (
	"context"
	"fmt"
	"sync"

	"github.com/sashabaranov/go-openai"

	"github.com/alexvidal/safewalk/internal/core/ports"
)

const chatSystemPrompt = "You are a calm, practical personal-safety assistant on a map " +
	"dashboard. Give short, concrete advice about walking safety, routes and the " +
	"user's surroundings. If the user may be in danger, tell them to contact local " +
	"emergency services first."

// OpenChat starts a conversational session. The full message history is
// retained and resent each turn, which is how the service preserves
// cross-turn context.
func (c *Client) OpenChat(ctx context.Context) (ports.ChatSession, error) {
	return &chatSession{
		client: c,
		history: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt},
		},
	}, nil
}

type chatSession struct {
	client *Client

	mu      sync.Mutex
	history []openai.ChatCompletionMessage
}

// Send submits one user turn over the session. A failed turn is not added
// to the history, so the conversation stays consistent with what the
// service actually saw.
func (s *chatSession) Send(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := append(s.history, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	})

	resp, err := s.client.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    s.client.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat turn: %w", classify(err))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat turn returned no choices")
	}

	reply := resp.Choices[0].Message.Content
	s.history = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: reply,
	})
	return reply, nil
}
