// Package notes writes speaker notes for slides that carry none.
package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/gnemet/html2deck/internal/config"
)

var ErrEmptyResponse = errors.New("model returned no text")

// Generator produces speaker notes from a slide's visible text.
type Generator interface {
	Generate(ctx context.Context, slideText string) (string, error)
	Close() error
}

// New returns the generator named by cfg.Driver.
func New(ctx context.Context, cfg config.NotesConfig, logger *zap.Logger) (Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Driver {
	case config.DriverGemini:
		return NewGemini(ctx, cfg, logger)
	case config.DriverMock:
		return Mock{}, nil
	default:
		return nil, fmt.Errorf("unknown notes driver %q", cfg.Driver)
	}
}

const prompt = `You are preparing a speaker for a technical talk.
Write short speaker notes (three to five sentences, plain text, no markdown)
for a slide with the following content:

%s`

type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *zap.Logger
}

func NewGemini(ctx context.Context, cfg config.NotesConfig, logger *zap.Logger) (*Gemini, error) {
	if cfg.Key == "" {
		return nil, errors.New("gemini notes need GEMINI_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Key))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(float32(cfg.Temperature))
	if cfg.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(cfg.MaxTokens))
	}
	return &Gemini{client: client, model: model, logger: logger}, nil
}

func (g *Gemini) Generate(ctx context.Context, slideText string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(fmt.Sprintf(prompt, slideText)))
	if err != nil {
		return "", fmt.Errorf("generate notes: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	if u := resp.UsageMetadata; u != nil {
		g.logger.Debug("notes generated",
			zap.Int32("prompt_tokens", u.PromptTokenCount),
			zap.Int32("output_tokens", u.CandidatesTokenCount))
	}
	return text, nil
}

func (g *Gemini) Close() error { return g.client.Close() }

// Mock writes deterministic notes without calling a model.
type Mock struct{}

func (Mock) Generate(_ context.Context, slideText string) (string, error) {
	first, _, _ := strings.Cut(strings.TrimSpace(slideText), "\n")
	if first == "" {
		return "", ErrEmptyResponse
	}
	return "Talking points for " + first + ".", nil
}

func (Mock) Close() error { return nil }
