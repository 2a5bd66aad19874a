package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"groscales/config"
	"groscales/models"
	"groscales/repository"
)

const (
	FallbackDraft       = "Thanks for reaching out! We'll get back to you shortly."
	draftHistoryLimit   = 20
	draftSystemPrompt   = "You draft short, friendly SMS replies for a sales team. Reply with the message text only, under 320 characters."
	defaultDraftTimeout = 8 * time.Second
)

type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Draft struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

// DraftService suggests a reply for a thread. Any completion problem
// degrades to FallbackDraft.
type DraftService struct {
	client   completionClient
	model    string
	timeout  time.Duration
	threads  repository.ThreadRepository
	messages repository.MessageRepository
	logger   logrus.FieldLogger
}

func NewDraftService(
	cfg config.OpenAIConfig,
	threads repository.ThreadRepository,
	messages repository.MessageRepository,
	logger logrus.FieldLogger,
) *DraftService {
	var client completionClient
	if cfg.APIKey != "" {
		client = openai.NewClient(cfg.APIKey)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultDraftTimeout
	}
	return &DraftService{
		client:   client,
		model:    cfg.Model,
		timeout:  timeout,
		threads:  threads,
		messages: messages,
		logger:   logger.WithField("component", "draft"),
	}
}

func (s *DraftService) Generate(ctx context.Context, ownerID, threadID uint) (*Draft, error) {
	thread, err := s.threads.GetForOwner(ctx, ownerID, threadID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load thread: %w", err)
	}
	if s.client == nil {
		return &Draft{Text: FallbackDraft, Fallback: true}, nil
	}

	history, err := s.messages.ListByThread(ctx, thread.ID, draftHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load thread history: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:     s.model,
		Messages:  buildDraftPrompt(thread, history),
		MaxTokens: 200,
	})
	if err != nil {
		s.logger.WithError(err).WithField("thread_id", thread.ID).Warn("Draft completion failed, using fallback")
		return &Draft{Text: FallbackDraft, Fallback: true}, nil
	}
	if len(resp.Choices) == 0 {
		return &Draft{Text: FallbackDraft, Fallback: true}, nil
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return &Draft{Text: FallbackDraft, Fallback: true}, nil
	}
	return &Draft{Text: text}, nil
}

func buildDraftPrompt(thread *models.MessageThread, history []models.Message) []openai.ChatCompletionMessage {
	system := draftSystemPrompt
	if thread.Lead != nil && thread.Lead.Name != "" {
		system += " The contact's name is " + thread.Lead.Name + "."
	}

	out := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	out = append(out, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Direction == models.DirectionOutbound {
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Body})
	}
	return out
}
