package service

import (
	"context"
	"fmt"
	"log/slog"

	"bloomy-gift-service/internal/client"
	"bloomy-gift-service/internal/config"
)

const (
	DefaultTheme     = "romantic"
	defaultRecipient = "dear"
	defaultBuyer     = "someone who loves you"

	SourceTemplate = "template"

	promptMaxTokens = 150
)

const systemPrompt = "You write romantic, heartfelt daily gift messages. Every message is warm, personal and different from the day before."

var messageTemplates = []string{
	"Dear %[1]s, today is a special day for you. I am %[2]s, and with this beautiful flower I want to tell you how much I love you. 💕",
	"My dear %[1]s, I am sending you this message in the spirit of %[3]s. I think of you every day and being with you makes me happy. 🌸",
	"Dear %[1]s, on day %[4]d my love for you keeps growing. Sharing these beautiful moments with you is wonderful. 💖",
	"My dear %[1]s, I am writing to you in the spirit of %[3]s. You are the most beautiful flower in my life. 🌺",
	"Dear %[1]s, I love you more every day. On this special day I want to say it with this flower. 💐",
}

type GenerateInput struct {
	DayIndex      int
	Theme         string
	BuyerName     string
	RecipientName string
}

func (in GenerateInput) withDefaults() GenerateInput {
	if in.Theme == "" {
		in.Theme = DefaultTheme
	}
	if in.RecipientName == "" {
		in.RecipientName = defaultRecipient
	}
	if in.BuyerName == "" {
		in.BuyerName = defaultBuyer
	}
	return in
}

// MessageGenerator writes the text of one day's message. It never fails:
// provider errors fall back to the local templates.
type MessageGenerator interface {
	// Generate returns the content and the strategy that produced it.
	Generate(ctx context.Context, in GenerateInput) (string, string)
}

type messageGeneratorImpl struct {
	llm client.LLMClient // nil means templates only
	log *slog.Logger
}

func NewMessageGenerator(llm client.LLMClient, log *slog.Logger) MessageGenerator {
	return &messageGeneratorImpl{
		llm: llm,
		log: log,
	}
}

// NewMessageGeneratorFromConfig picks the provider named by cfg.Provider.
func NewMessageGeneratorFromConfig(cfg *config.AI, log *slog.Logger) MessageGenerator {
	var llm client.LLMClient
	switch cfg.Provider {
	case "openai":
		llm = client.NewOpenAIClient(&cfg.OpenAI, cfg.Timeout)
	case "anthropic":
		llm = client.NewAnthropicClient(&cfg.Anthropic, cfg.Timeout)
	}
	return NewMessageGenerator(llm, log)
}

func (g *messageGeneratorImpl) Generate(ctx context.Context, in GenerateInput) (string, string) {
	in = in.withDefaults()
	if g.llm == nil {
		return TemplateMessage(in), SourceTemplate
	}

	text, err := g.llm.Complete(ctx, buildPrompt(in))
	if err != nil {
		g.log.WarnContext(ctx, "llm generation failed, using template",
			"provider", g.llm.Name(),
			"day_index", in.DayIndex,
			"error", err,
		)
		return TemplateMessage(in), SourceTemplate
	}

	return text, g.llm.Name()
}

// TemplateMessage is the deterministic message for in, keyed by day index.
func TemplateMessage(in GenerateInput) string {
	in = in.withDefaults()
	i := in.DayIndex % len(messageTemplates)
	if i < 0 {
		i += len(messageTemplates)
	}
	return fmt.Sprintf(messageTemplates[i], in.RecipientName, in.BuyerName, in.Theme, in.DayIndex)
}

func buildPrompt(in GenerateInput) *client.Prompt {
	user := fmt.Sprintf(`You are writing a romantic, emotional gift message.

Day: %d
Theme: %s
From: %s
To: %s

Write a different, sincere and personal message for this day. Keep it to 2-3 sentences.`,
		in.DayIndex, in.Theme, in.BuyerName, in.RecipientName)

	return &client.Prompt{
		System:    systemPrompt,
		User:      user,
		MaxTokens: promptMaxTokens,
	}
}
