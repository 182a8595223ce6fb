package ai

import (
	"context"
	"fmt"
	"iter"
	"os"

	"google.golang.org/genai"

	"portfolio/models"
)

// Client wraps the Gemini API for the portfolio assistant: JSON-mode prompts
// for the classifiers and evaluator, and streaming generation with the
// contact-form tool. The two call paths are function fields so tests can
// substitute canned responses without a network.
type Client struct {
	genai  *genai.Client
	model  string
	prompt PromptFunc
	stream StreamFunc
}

// PromptFunc is the single-shot JSON-mode call path.
type PromptFunc func(ctx context.Context, system, user string) (string, error)

// StreamFunc is the streaming generation call path.
type StreamFunc func(ctx context.Context, system string, contents []*genai.Content, tools []*genai.Tool) iter.Seq2[*genai.GenerateContentResponse, error]

// NewClientFromFuncs assembles a client from explicit call paths instead of
// the Gemini API. Handler tests use it to run turns against canned responses.
func NewClientFromFuncs(prompt PromptFunc, stream StreamFunc) *Client {
	return &Client{model: "stub", prompt: prompt, stream: stream}
}

// NewClient creates a Gemini-backed client. Model defaults to the one the
// assistant was tuned against; override with GEMINI_MODEL.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.5-flash"
	}

	c := &Client{genai: gc, model: model}
	c.prompt = c.promptJSON
	c.stream = c.streamGenerate
	return c, nil
}

// promptJSON issues a single JSON-mode completion and returns the raw text.
func (c *Client) promptJSON(ctx context.Context, system, user string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0.1),
	}
	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(user), cfg)
	if err != nil {
		return "", fmt.Errorf("genai completion failed: %w", err)
	}
	return resp.Text(), nil
}

func (c *Client) streamGenerate(ctx context.Context, system string, contents []*genai.Content, tools []*genai.Tool) iter.Seq2[*genai.GenerateContentResponse, error] {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Tools:             tools,
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
		},
	}
	return c.genai.Models.GenerateContentStream(ctx, c.model, contents, cfg)
}

// HistoryContents converts stored session turns into genai contents.
// Human operator turns are included as model turns so the assistant sees the
// full conversation the visitor saw.
func HistoryContents(messages []models.ChatMessage) []*genai.Content {
	out := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == models.RoleModel {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(m.Content, role))
	}
	return out
}
