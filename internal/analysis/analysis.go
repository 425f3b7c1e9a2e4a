// Package analysis provides the LLM-backed spec analysis using the OpenAI API.
//
// It is the upstream producer of AnalysisResult values for question
// generation, and also answers interview questions on behalf of stakeholder
// roles in unattended runs.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/nia-vf/pocket-stakeholder/internal/models"
)

// DefaultModel is the chat model used unless overridden.
var DefaultModel = openai.ChatModelGPT4oMini

// ClientInterface defines the operations other modules need from the
// analysis client, so tests and flows can substitute a fake.
type ClientInterface interface {
	AnalyzeSpec(ctx context.Context, specMarkdown string) (*models.AnalysisResult, error)
	GenerateAnswer(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Opts holds client configuration.
type Opts struct {
	APIKey string
	Model  openai.ChatModel
}

// Option configures the analysis client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key, overriding $OPENAI_API_KEY.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the chat model.
func WithModel(model openai.ChatModel) Option {
	return func(o *Opts) { o.Model = model }
}

// Client wraps the OpenAI chat completion API.
type Client struct {
	client openai.Client
	model  openai.ChatModel
}

// NewClient creates an analysis client. The API key comes from options or the
// OPENAI_API_KEY environment variable.
func NewClient(options ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range options {
		opt(&cfg)
	}
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	slog.Debug("Analysis client created", "model", model)
	return &Client{client: openai.NewClient(option.WithAPIKey(key)), model: model}, nil
}

const analyzeSystemPrompt = `You analyze software specifications for an architecture interview tool.
Extract the design decisions the spec implies and the ambiguities it leaves open.
Respond with strict JSON only, no prose, no code fences, matching this schema:
{
  "decisions": [
    {
      "title": "short decision name",
      "category": "architecture|library|pattern|integration|data-model|api-design|security|performance|general",
      "description": "one sentence",
      "clarity_score": 0.0,
      "ambiguity": "clear|moderate|unclear",
      "options": ["candidate choice", "..."]
    }
  ],
  "ambiguities": [
    {
      "description": "what is unclear",
      "suggested_questions": ["a question that would resolve it"]
    }
  ]
}
clarity_score is 0-1: 1 means the spec fully pins the decision down.`

// AnalyzeSpec runs one analysis pass over a markdown spec and returns the
// scored decisions and ambiguities.
func (c *Client) AnalyzeSpec(ctx context.Context, specMarkdown string) (*models.AnalysisResult, error) {
	if strings.TrimSpace(specMarkdown) == "" {
		return nil, fmt.Errorf("spec is empty")
	}
	slog.Debug("AnalyzeSpec invoked", "specLength", len(specMarkdown))

	content, err := c.complete(ctx, analyzeSystemPrompt, specMarkdown)
	if err != nil {
		return nil, fmt.Errorf("spec analysis request failed: %w", err)
	}

	result, err := parseAnalysisResult(content)
	if err != nil {
		return nil, fmt.Errorf("spec analysis returned unparseable output: %w", err)
	}
	slog.Info("Spec analysis completed", "decisions", len(result.Decisions), "ambiguities", len(result.Ambiguities))
	return result, nil
}

// GenerateAnswer produces a free-text response for the given prompts. Used by
// the unattended interview provider.
func (c *Client) GenerateAnswer(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.complete(ctx, systemPrompt, userPrompt)
}

func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// parseAnalysisResult unmarshals the model output, tolerating markdown code
// fences, and normalizes scores and ambiguity levels.
func parseAnalysisResult(content string) (*models.AnalysisResult, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(trimmed), &result); err != nil {
		return nil, err
	}

	for i := range result.Decisions {
		d := &result.Decisions[i]
		d.ClarityScore = clamp01(d.ClarityScore)
		if !models.IsValidAmbiguityLevel(d.Ambiguity) {
			d.Ambiguity = models.DeriveAmbiguity(d.ClarityScore)
		}
		if !models.IsValidQuestionCategory(d.Category) {
			d.Category = models.CategoryGeneral
		}
	}
	return &result, nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}
