package llm

import (
	"context"
	stderrors "errors"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/XiaoConstantine/ace-go/pkg/errors"
	"github.com/XiaoConstantine/ace-go/pkg/logging"
)

const defaultMaxTokens = 4096

// AnthropicClient implements Client on top of the official Anthropic SDK.
type AnthropicClient struct {
	client   *anthropic.Client
	defaults GenerateOptions
}

// AnthropicConfig configures an AnthropicClient. APIKey falls back to
// the ANTHROPIC_API_KEY environment variable.
type AnthropicConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
}

// NewAnthropicClient creates a client for Anthropic's messages API.
func NewAnthropicClient(config AnthropicConfig) (*AnthropicClient, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New(errors.InvalidInput, "API key is required")
	}
	if config.Model == "" {
		return nil, errors.New(errors.InvalidInput, "model is required")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if config.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(config.BaseURL))
	}
	client := anthropic.NewClient(clientOpts...)

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &AnthropicClient{
		client: &client,
		defaults: GenerateOptions{
			Model:       config.Model,
			MaxTokens:   maxTokens,
			Temperature: config.Temperature,
		},
	}, nil
}

// Generate implements Client.
func (a *AnthropicClient) Generate(ctx context.Context, prompt string, opts ...GenerateOption) (string, error) {
	logger := logging.GetLogger()
	options := ApplyOptions(a.defaults, opts...)

	params := anthropic.MessageNewParams{
		Model: anthropic.Model(options.Model),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
		MaxTokens:   int64(options.MaxTokens),
		Temperature: anthropic.Float(options.Temperature),
	}
	if options.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: options.SystemPrompt}}
	}

	message, err := a.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if stderrors.As(err, &apiErr) {
			logger.Error(ctx, "Anthropic API error: status code %d", apiErr.StatusCode)
		}
		return "", errors.WithFields(
			errors.Wrap(err, errors.LLMGenerationFailed, "failed to generate response"),
			errors.Fields{
				"model":      options.Model,
				"max_tokens": options.MaxTokens,
			})
	}

	if message == nil || len(message.Content) == 0 {
		return "", errors.New(errors.LLMGenerationFailed, "received empty content from Anthropic API")
	}

	var responseText string
	if block := message.Content[0]; block.Type == "text" {
		responseText = block.Text
	}

	logger.Debug(ctx, "Anthropic response: %d prompt tokens, %d completion tokens",
		message.Usage.InputTokens, message.Usage.OutputTokens)
	return responseText, nil
}

// GenerateJSON implements Client.
func (a *AnthropicClient) GenerateJSON(ctx context.Context, prompt string, out interface{}, opts ...GenerateOption) error {
	response, err := a.Generate(ctx, prompt+jsonInstruction, opts...)
	if err != nil {
		return err
	}
	return ParseJSONResponse(response, out)
}
