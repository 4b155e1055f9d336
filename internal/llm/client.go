package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// PartKind discriminates the content block types a request may carry.
type PartKind string

// PartKind constants define the closed set of content block types.
const (
	PartText     PartKind = "text"
	PartDocument PartKind = "document"
	PartImage    PartKind = "image"
)

// Part is one content block in a multimodal request. Data is the raw bytes
// for document and image parts; Text is used for text parts.
type Part struct {
	Kind     PartKind
	Text     string
	MIMEType string
	Data     []byte
}

// TextPart builds a text content block.
func TextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

// DocumentPart builds a document content block from raw bytes.
func DocumentPart(mimeType string, data []byte) Part {
	return Part{Kind: PartDocument, MIMEType: mimeType, Data: data}
}

// ImagePart builds an image content block from raw bytes.
func ImagePart(mimeType string, data []byte) Part {
	return Part{Kind: PartImage, MIMEType: mimeType, Data: data}
}

// Request is one multimodal inference call: an ordered list of content
// blocks, an optional system instruction, and an output bound.
type Request struct {
	Parts             []Part
	SystemInstruction string
	MaxOutputTokens   int32
	Tier              ModelTier
}

// Client is an abstraction over LLM providers
type Client interface {
	// GenerateContent generates text from a single text prompt
	GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// Generate runs a multimodal request and returns the response text
	Generate(ctx context.Context, req *Request) (string, error)
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return NewGeminiClient(ctx, config, apiKey)
	}
}

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// GenerateContent generates text from a single text prompt
func (c *GeminiClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.Generate(ctx, &Request{
		Parts: []Part{TextPart(prompt)},
		Tier:  tier,
	})
}

// Generate runs a multimodal request and returns the response text
func (c *GeminiClient) Generate(ctx context.Context, req *Request) (string, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", req.Tier)
	}
	if len(req.Parts) == 0 {
		return "", fmt.Errorf("request has no content parts")
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(0.1) // Low temperature for consistent output
	maxTokens := req.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxOutputTokens
	}
	model.SetMaxOutputTokens(maxTokens)
	if req.SystemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemInstruction)},
		}
	}

	parts := make([]genai.Part, 0, len(req.Parts))
	for _, p := range req.Parts {
		switch p.Kind {
		case PartText:
			parts = append(parts, genai.Text(p.Text))
		case PartDocument, PartImage:
			parts = append(parts, genai.Blob{MIMEType: p.MIMEType, Data: p.Data})
		default:
			return "", fmt.Errorf("unsupported part kind %q", p.Kind)
		}
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", classifyError(modelName, err)
	}

	return extractTextFromResponse(resp)
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}
