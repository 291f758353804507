package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/garyjia/receipt-ledger/internal/application/port"
	"github.com/garyjia/receipt-ledger/internal/domain/entity"
	"github.com/garyjia/receipt-ledger/internal/infrastructure/external/extraction"
)

const provider = "openai"

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o"

// Config holds OpenAI extractor settings
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	MaxTokens   int
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Extractor implements port.ReceiptExtractor using a vision chat model
// constrained by a strict JSON schema.
type Extractor struct {
	client      chatCompleter
	model       string
	temperature float32
	maxTokens   int
	clock       func() time.Time
	logger      *zap.Logger
}

// NewExtractor creates an OpenAI extractor. Without an API key every
// Extract call fails with a ConfigurationError.
func NewExtractor(cfg Config, logger *zap.Logger) *Extractor {
	e := &Extractor{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		clock:       time.Now,
		logger:      logger,
	}
	if e.model == "" {
		e.model = DefaultModel
	}
	if e.maxTokens <= 0 {
		e.maxTokens = 512
	}
	if cfg.APIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		e.client = openai.NewClientWithConfig(clientCfg)
	}
	return e
}

// Extract sends one vision request and validates the JSON answer.
func (e *Extractor) Extract(ctx context.Context, image []byte, mimeType string) (entity.ReceiptData, error) {
	if e.client == nil {
		return entity.ReceiptData{}, &port.ConfigurationError{Provider: provider, Setting: "openai.api_key"}
	}
	if err := extraction.CheckInput(provider, image, mimeType); err != nil {
		return entity.ReceiptData{}, err
	}

	e.logger.Info("Extracting receipt with Vision API",
		zap.String("model", e.model),
		zap.String("mime_type", mimeType),
		zap.Int("image_size", len(image)))

	resp, err := e.client.CreateChatCompletion(ctx, e.buildRequest(image, mimeType))
	if err != nil {
		e.logger.Error("Vision API call failed", zap.Error(err))
		return entity.ReceiptData{}, classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return entity.ReceiptData{}, port.NewExtractionError(provider, port.ExtractionEmpty,
			errors.New("no choices in response"))
	}

	content := resp.Choices[0].Message.Content
	data, err := extraction.Decode(provider, content)
	if err != nil {
		e.logger.Error("Failed to parse Vision API response", zap.Error(err), zap.String("content", content))
		return entity.ReceiptData{}, err
	}

	e.logger.Info("Receipt extracted",
		zap.String("store", data.StoreName),
		zap.String("date", data.Date),
		zap.Float64("amount", data.Amount))
	return data, nil
}

func (e *Extractor) buildRequest(image []byte, mimeType string) openai.ChatCompletionRequest {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	return openai.ChatCompletionRequest{
		Model:       e.model,
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: extraction.SystemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: extraction.Instructions(e.clock()),
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "receipt",
				Schema: ResponseSchema(),
				Strict: true,
			},
		},
	}
}

// ResponseSchema is the strict JSON schema for the receipt object.
func ResponseSchema() *jsonschema.Definition {
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			extraction.FieldStoreName: {Type: jsonschema.String, Description: extraction.DescStoreName},
			extraction.FieldDate:      {Type: jsonschema.String, Description: extraction.DescDate},
			extraction.FieldAmount:    {Type: jsonschema.Number, Description: extraction.DescAmount},
		},
		Required:             extraction.RequiredFields,
		AdditionalProperties: false,
	}
}

// classify maps go-openai errors onto extraction kinds. A rejected key is
// a configuration problem, any other HTTP status is a service failure.
func classify(ctx context.Context, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403 {
			return &port.ConfigurationError{Provider: provider, Setting: "openai.api_key"}
		}
		return port.NewExtractionError(provider, port.ExtractionService, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return port.NewExtractionError(provider, port.ExtractionService, err)
	}
	return extraction.ClassifyTransport(ctx, provider, err)
}
