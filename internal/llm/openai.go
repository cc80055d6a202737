package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const defaultOpenAIModel = "gpt-3.5-turbo"

// OpenAIConfig configures the chat-completions backed classifier and summarizer.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Vocabulary []string
	HTTPClient *http.Client
}

type chatCompletions interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAI implements Classifier and Summarizer over the chat completions API.
// Retries and timeouts are the caller's concern; the SDK's own retries are disabled.
type OpenAI struct {
	completions chatCompletions
	model       string
	vocabulary  []string
}

// NewOpenAI constructs the client.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai: api key required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	client := openai.NewClient(opts...)
	return newOpenAI(&client.Chat.Completions, cfg.Model, cfg.Vocabulary), nil
}

func newOpenAI(completions chatCompletions, model string, vocabulary []string) *OpenAI {
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultOpenAIModel
	}
	if len(vocabulary) == 0 {
		vocabulary = DefaultTagVocabulary
	}
	return &OpenAI{completions: completions, model: model, vocabulary: vocabulary}
}

// Classify asks the model for one tag from the vocabulary and returns its raw answer.
func (o *OpenAI) Classify(ctx context.Context, issueText string) (string, error) {
	return o.complete(ctx, classifyPrompt(issueText, o.vocabulary))
}

// Summarize asks the model for the key complaint themes in issues.
func (o *OpenAI) Summarize(ctx context.Context, issues []string) (string, error) {
	return o.complete(ctx, summaryPrompt(issues))
}

func (o *OpenAI) complete(ctx context.Context, prompt string) (string, error) {
	completion, err := o.completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	if completion == nil || len(completion.Choices) == 0 {
		return "", errors.New("openai: empty completion")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

// Retryable reports whether err from an OpenAI call is worth another attempt.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}
