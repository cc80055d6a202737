package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompletions struct {
	reply  string
	err    error
	params []openai.ChatCompletionNewParams
}

func (f *fakeCompletions) New(_ context.Context, params openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.reply}}},
	}, nil
}

func TestNormalizeTag(t *testing.T) {
	cases := map[string]string{
		"login":            "login",
		"  Payment\n":      "payment",
		"\"crash\"":        "crash",
		"Tag: billing":     "tag",
		"speed.":           "speed",
		"ux - user issues": "ux",
		"":                 "",
		"   ":              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeTag(in), "input %q", in)
	}
}

func TestOpenAIClassify(t *testing.T) {
	fake := &fakeCompletions{reply: "  Login \n"}
	client := newOpenAI(fake, "", nil)

	got, err := client.Classify(context.Background(), "I cannot sign in")
	require.NoError(t, err)
	assert.Equal(t, "Login", got)
	require.Len(t, fake.params, 1)
	assert.Equal(t, shared.ChatModel(defaultOpenAIModel), fake.params[0].Model)
}

func TestOpenAISummarizeUsesConfiguredModel(t *testing.T) {
	fake := &fakeCompletions{reply: "themes"}
	client := newOpenAI(fake, "gpt-4o-mini", nil)

	got, err := client.Summarize(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "themes", got)
	assert.Equal(t, shared.ChatModel("gpt-4o-mini"), fake.params[0].Model)
}

func TestOpenAIPropagatesErrors(t *testing.T) {
	fake := &fakeCompletions{err: errors.New("boom")}
	_, err := newOpenAI(fake, "", nil).Classify(context.Background(), "x")
	assert.EqualError(t, err, "boom")
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	_, err := NewOpenAI(OpenAIConfig{APIKey: " "})
	assert.Error(t, err)
}

func TestPrompts(t *testing.T) {
	p := classifyPrompt("app froze", []string{"crash", "speed"})
	assert.Contains(t, p, "\"app froze\"")
	assert.Contains(t, p, "crash, speed")

	s := summaryPrompt([]string{"one", "two"})
	assert.True(t, strings.HasSuffix(s, "- one\n- two\n"))
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.False(t, Retryable(context.Canceled))
	assert.False(t, Retryable(fmt.Errorf("call: %w", context.DeadlineExceeded)))
	assert.True(t, Retryable(errors.New("connection reset")))
	assert.False(t, Retryable(&openai.Error{StatusCode: 401}))
	assert.True(t, Retryable(&openai.Error{StatusCode: 429}))
	assert.True(t, Retryable(&openai.Error{StatusCode: 503}))
}
