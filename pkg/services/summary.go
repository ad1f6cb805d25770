package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	maxSummaryRunes = 50
	keptSummaryRune = 47
	// DefaultSummary is used when there is nothing to summarise from.
	DefaultSummary = "Chat with AI Assistant"
)

const summaryPrompt = `Please create a very brief summary (under 50 characters) that captures what the user wanted to achieve in this conversation. Focus only on the user's main goal or request. The summary should start with a verb and be action-oriented.

Example good summaries:
- "Create factorial function with recursion"
- "Debug Python memory leak"
- "Setup Docker environment"

Conversation:
%s

Summary:`

// Completer runs one non-streaming chat completion.
type Completer interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// Summarizer asks the model for a short, action-oriented title of a conversation.
type Summarizer struct {
	client  Completer
	model   string
	timeout time.Duration
	log     *zap.Logger
}

func NewSummarizer(client Completer, model string, timeout time.Duration, log *zap.Logger) *Summarizer {
	return &Summarizer{client: client, model: model, timeout: timeout, log: log.Named("summary")}
}

// Summarize never fails: when the model call does, it falls back to the
// first user message.
func (s *Summarizer) Summarize(ctx context.Context, msgs []ChatMessage) string {
	summary, err := s.generate(ctx, msgs)
	if err != nil {
		s.log.Warn("error generating summary, using fallback", zap.Error(err))
		return FallbackSummary(msgs)
	}
	return summary
}

func (s *Summarizer) generate(ctx context.Context, msgs []ChatMessage) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	reply, err := s.client.Chat(ctx, ChatRequest{
		Model:    s.model,
		Messages: []ChatMessage{{Role: "user", Content: BuildSummaryPrompt(msgs)}},
	})
	if err != nil {
		return "", fmt.Errorf("summary completion: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return TruncateSummary(reply), nil
}

// BuildSummaryPrompt renders the user and assistant turns into the prompt template.
func BuildSummaryPrompt(msgs []ChatMessage) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Role != "user" && m.Role != "assistant" {
			continue
		}
		lines = append(lines, m.Role+": "+m.Content)
	}
	return fmt.Sprintf(summaryPrompt, strings.Join(lines, "\n"))
}

// TruncateSummary cuts s to 47 characters plus "..." when it is longer than 50.
func TruncateSummary(s string) string {
	r := []rune(s)
	if len(r) <= maxSummaryRunes {
		return s
	}
	return string(r[:keptSummaryRune]) + "..."
}

// FallbackSummary is the first user message, truncated, or DefaultSummary.
func FallbackSummary(msgs []ChatMessage) string {
	for _, m := range msgs {
		if m.Role == "user" {
			return TruncateSummary(m.Content)
		}
	}
	return DefaultSummary
}
