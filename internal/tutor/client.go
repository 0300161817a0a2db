package tutor

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/edumitra/entitlements/internal/config"
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/logger"
)

// Message is one turn of tutoring conversation history
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is the consumed AI tutoring collaborator. Entitlement logic only
// cares that access to it is gated; the completion itself is opaque.
type Client interface {
	SendMessage(ctx context.Context, text string, history []Message, imageURL string) (string, error)
}

type openAIClient struct {
	client *openai.Client
	model  string
	logger *logger.Logger
}

// NewClient builds a tutor client against any OpenAI-compatible endpoint
func NewClient(cfg *config.Configuration, log *logger.Logger) Client {
	clientCfg := openai.DefaultConfig(cfg.Tutor.APIKey)
	if cfg.Tutor.BaseURL != "" {
		clientCfg.BaseURL = cfg.Tutor.BaseURL
	}

	return &openAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Tutor.Model,
		logger: log,
	}
}

func (c *openAIClient) SendMessage(ctx context.Context, text string, history []Message, imageURL string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	if imageURL != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: text},
				{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
				},
			},
		})
	} else {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: text,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Tutor is unavailable, please try again").
			Mark(ierr.ErrHTTPClient)
	}

	if len(resp.Choices) == 0 {
		return "", ierr.NewError("empty completion response").
			WithHint("Tutor is unavailable, please try again").
			Mark(ierr.ErrHTTPClient)
	}

	return resp.Choices[0].Message.Content, nil
}
