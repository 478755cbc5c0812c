package providers

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/shopmind-poc/server/internal/agent/model"
	logx "github.com/shopmind-poc/server/pkg/logger"
)

const thinkingBudgetTokens = 2000

// ChatModelConfig holds everything needed to build the two chat models.
type ChatModelConfig struct {
	APIKey  string
	BaseURL string
	Writer  model.WriterModelConfig
	Utility model.UtilityModelConfig
}

// ChatModels bundles the writer and utility providers built on one shared
// genai client.
type ChatModels struct {
	Writer  *GeminiProvider
	Utility *GeminiProvider
}

// NewGenaiClient creates the shared Gemini API client.
func NewGenaiClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

// NewChatModels creates the writer and utility chat models with the given
// configuration.
func NewChatModels(ctx context.Context, client *genai.Client, cfg ChatModelConfig) (*ChatModels, error) {
	writer, err := NewGeminiProvider(ctx, client, cfg.Writer.Model, cfg.Writer.Temperature, cfg.Writer.MaxTokens)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating writer model")
		return nil, fmt.Errorf("error creating writer model: %w", err)
	}

	utility, err := NewGeminiProvider(ctx, client, cfg.Utility.Model, cfg.Utility.Temperature, cfg.Utility.MaxTokens)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating utility model")
		return nil, fmt.Errorf("error creating utility model: %w", err)
	}

	return &ChatModels{Writer: writer, Utility: utility}, nil
}

// GeminiProvider adapts one Gemini chat model to the graph's LLM contract.
type GeminiProvider struct {
	cm        *gemini.ChatModel
	modelName string
}

func NewGeminiProvider(ctx context.Context, client *genai.Client, modelName string, temperature float32, maxTokens int) (*GeminiProvider, error) {
	cm, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       modelName,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  genai.Ptr(int32(thinkingBudgetTokens)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model %s: %w", modelName, err)
	}
	return &GeminiProvider{cm: cm, modelName: modelName}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, messages []*schema.Message) (*model.GenerateResult, error) {
	out, err := p.cm.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("generate with %s: %w", p.modelName, err)
	}

	res := &model.GenerateResult{
		Text: out.Content,
		Raw:  out,
	}
	if out.ResponseMeta != nil {
		res.Usage = out.ResponseMeta.Usage
	}
	return res, nil
}

func (p *GeminiProvider) ModelName() string {
	return p.modelName
}

var _ model.LLMProvider = (*GeminiProvider)(nil)
