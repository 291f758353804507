package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/garyjia/receipt-ledger/internal/application/port"
	"github.com/garyjia/receipt-ledger/internal/domain/entity"
	"github.com/garyjia/receipt-ledger/internal/infrastructure/external/extraction"
)

const provider = "gemini"

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Config holds Gemini extractor settings
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
}

// contentGenerator is the part of *genai.Models the extractor uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Extractor implements port.ReceiptExtractor with Gemini structured output.
type Extractor struct {
	models      contentGenerator
	model       string
	temperature float32
	clock       func() time.Time
	logger      *zap.Logger
}

// NewExtractor creates a Gemini extractor. An empty API key is not an
// error here: every Extract call then fails with a ConfigurationError.
func NewExtractor(ctx context.Context, cfg Config, logger *zap.Logger) (*Extractor, error) {
	e := &Extractor{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		clock:       time.Now,
		logger:      logger,
	}
	if e.model == "" {
		e.model = DefaultModel
	}
	if cfg.APIKey == "" {
		return e, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	e.models = client.Models
	return e, nil
}

// Model returns the configured model name.
func (e *Extractor) Model() string {
	return e.model
}

// Extract sends the image and instructions in a single request and
// validates the JSON answer against the receipt schema.
func (e *Extractor) Extract(ctx context.Context, image []byte, mimeType string) (entity.ReceiptData, error) {
	if e.models == nil {
		return entity.ReceiptData{}, &port.ConfigurationError{Provider: provider, Setting: "extraction.api_key"}
	}
	if err := extraction.CheckInput(provider, image, mimeType); err != nil {
		return entity.ReceiptData{}, err
	}

	e.logger.Info("Extracting receipt with Gemini",
		zap.String("model", e.model),
		zap.String("mime_type", mimeType),
		zap.Int("size", len(image)))

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
			{Text: extraction.Instructions(e.clock())},
		},
	}}

	resp, err := e.models.GenerateContent(ctx, e.model, contents, e.requestConfig())
	if err != nil {
		e.logger.Error("Gemini call failed", zap.Error(err))
		return entity.ReceiptData{}, extraction.ClassifyTransport(ctx, provider, err)
	}

	text := responseText(resp)
	data, err := extraction.Decode(provider, text)
	if err != nil {
		e.logger.Error("Failed to parse Gemini response", zap.Error(err), zap.String("content", text))
		return entity.ReceiptData{}, err
	}

	e.logger.Info("Receipt extracted",
		zap.String("store", data.StoreName),
		zap.String("date", data.Date),
		zap.Float64("amount", data.Amount))
	return data, nil
}

func (e *Extractor) requestConfig() *genai.GenerateContentConfig {
	temperature := e.temperature
	return &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   ResponseSchema(),
	}
}

// ResponseSchema is the structured-output schema: an object with three
// required fields.
func ResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			extraction.FieldStoreName: {Type: genai.TypeString, Description: extraction.DescStoreName},
			extraction.FieldDate:      {Type: genai.TypeString, Description: extraction.DescDate},
			extraction.FieldAmount:    {Type: genai.TypeNumber, Description: extraction.DescAmount},
		},
		Required: extraction.RequiredFields,
	}
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
