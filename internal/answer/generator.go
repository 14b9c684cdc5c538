package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"

	"github.com/avoronov/kbase/internal/retrieval"
)

// Generator turns a question plus retrieved context into a structured
// Answer. Failures never escape: every error path yields a sentinel
// Answer with all checklist gates false.
type Generator struct {
	client    *openai.Client
	model     string
	assembler *retrieval.Assembler
	logger    *slog.Logger
}

// NewGenerator creates a generator over the given chat-completion client
// and retrieval assembler.
func NewGenerator(client *openai.Client, model string, assembler *retrieval.Assembler, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		client:    client,
		model:     model,
		assembler: assembler,
		logger:    logger,
	}
}

// Ask retrieves context for the question, calls the model, and parses the
// response into an Answer. The returned Answer is always structurally
// valid.
func (g *Generator) Ask(ctx context.Context, question string) *Answer {
	passages, consolidated, err := g.assembler.Retrieve(ctx, question)
	if err != nil {
		g.logger.Error("retrieval failed", "error", err)
		return ErrorAnswer(err.Error())
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt()),
		openai.UserMessage(userMessage(question, passages)),
	}
	if consolidated != "" {
		messages = append(messages, openai.AssistantMessage(consolidated))
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:            openai.ChatModel(g.model),
		Messages:         messages,
		Temperature:      openai.Float(0.3),
		MaxTokens:        openai.Int(2048),
		TopP:             openai.Float(0.9),
		PresencePenalty:  openai.Float(0.3),
		FrequencyPenalty: openai.Float(0.6),
	})
	if err != nil {
		g.logger.Error("completion failed", "error", err)
		return ErrorAnswer(err.Error())
	}
	if len(resp.Choices) == 0 {
		return ErrorAnswer("model returned no choices")
	}

	a, err := Parse(resp.Choices[0].Message.Content)
	if err != nil {
		g.logger.Error("failed to parse model response", "error", err)
		return ErrorAnswer(err.Error())
	}
	return a
}

// userMessage packs the question and the retrieved passages into one user
// turn, each passage tagged with its document title and section.
func userMessage(question string, passages []retrieval.Passage) string {
	if len(passages) == 0 {
		return question
	}

	var b strings.Builder
	b.WriteString(question)
	b.WriteString("\n\nContext:\n")
	for _, p := range passages {
		section := p.Meta.Section
		if section == "" {
			section = "-"
		}
		fmt.Fprintf(&b, "[%s | section %s] %s\n", p.Meta.Title, section, p.Content)
	}
	return b.String()
}
