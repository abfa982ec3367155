package recipes

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/tmc/langchaingo/llms"
)

const systemPrompt = "You are a helpful cooking assistant. You answer with JSON only."

// ErrEmptyResponse is returned when a model produces no text
var ErrEmptyResponse = errors.New("empty response from model")

// Completer turns a prompt into model output text
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// LLMCompleter completes prompts with a langchaingo model
type LLMCompleter struct {
	model       llms.Model
	temperature float64
	maxTokens   int
}

// NewLLMCompleter wraps a langchaingo model
func NewLLMCompleter(model llms.Model, temperature float64, maxTokens int) *LLMCompleter {
	return &LLMCompleter{model: model, temperature: temperature, maxTokens: maxTokens}
}

// Complete implements Completer
func (c *LLMCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	opts := []llms.CallOption{llms.WithTemperature(c.temperature)}
	if c.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.maxTokens))
	}

	response, err := c.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	if response == nil || len(response.Choices) == 0 || response.Choices[0].Content == "" {
		return "", ErrEmptyResponse
	}
	return response.Choices[0].Content, nil
}

// AzureCompleter completes prompts with an Azure OpenAI deployment
type AzureCompleter struct {
	client         *azopenai.Client
	deploymentName string
	temperature    float32
	maxTokens      int32
}

// NewAzureCompleter creates a completer for an Azure OpenAI deployment
func NewAzureCompleter(endpoint, apiKey, deploymentName string, temperature float64, maxTokens int) (*AzureCompleter, error) {
	if endpoint == "" || apiKey == "" || deploymentName == "" {
		return nil, fmt.Errorf("Azure OpenAI configuration missing: endpoint, api key and deployment are required")
	}

	keyCredential := azcore.NewKeyCredential(apiKey)
	client, err := azopenai.NewClientWithKeyCredential(endpoint, keyCredential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure OpenAI client: %w", err)
	}

	return &AzureCompleter{
		client:         client,
		deploymentName: deploymentName,
		temperature:    float32(temperature),
		maxTokens:      int32(maxTokens),
	}, nil
}

// Complete implements Completer
func (c *AzureCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	opts := azopenai.ChatCompletionsOptions{
		Messages: []azopenai.ChatRequestMessageClassification{
			&azopenai.ChatRequestSystemMessage{
				Content: azopenai.NewChatRequestSystemMessageContent(systemPrompt),
			},
			&azopenai.ChatRequestUserMessage{
				Content: azopenai.NewChatRequestUserMessageContent(prompt),
			},
		},
		Temperature:    to.Ptr(c.temperature),
		DeploymentName: to.Ptr(c.deploymentName),
	}
	if c.maxTokens > 0 {
		opts.MaxTokens = to.Ptr(c.maxTokens)
	}

	resp, err := c.client.GetChatCompletions(ctx, opts, nil)
	if err != nil {
		return "", fmt.Errorf("Azure OpenAI completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil || resp.Choices[0].Message.Content == nil {
		return "", ErrEmptyResponse
	}
	return *resp.Choices[0].Message.Content, nil
}
