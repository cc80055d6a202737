package llm

import (
	"context"
	"strings"
)

// DefaultTagVocabulary is offered to the classifier as the allowed answers.
var DefaultTagVocabulary = []string{"login", "payment", "crash", "ux", "billing", "bug", "speed", "account", "ui", "feedback"}

// Classifier returns a raw single-word label for an issue description.
type Classifier interface {
	Classify(ctx context.Context, issueText string) (string, error)
}

// Summarizer condenses a batch of issue descriptions into a short report.
type Summarizer interface {
	Summarize(ctx context.Context, issues []string) (string, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, issueText string) (string, error)

func (f ClassifierFunc) Classify(ctx context.Context, issueText string) (string, error) {
	return f(ctx, issueText)
}

// SummarizerFunc adapts a function to Summarizer.
type SummarizerFunc func(ctx context.Context, issues []string) (string, error)

func (f SummarizerFunc) Summarize(ctx context.Context, issues []string) (string, error) {
	return f(ctx, issues)
}

// NormalizeTag reduces a free-form model answer to one lowercase word: the
// first whitespace-separated token with colons, quotes and trailing
// punctuation removed. It returns "" when nothing usable remains.
func NormalizeTag(raw string) string {
	fields := strings.Fields(strings.ToLower(raw))
	if len(fields) == 0 {
		return ""
	}
	tag := strings.NewReplacer(":", "", "\"", "", "'", "", "`", "").Replace(fields[0])
	return strings.TrimRight(tag, ".,;!?")
}

func classifyPrompt(issueText string, vocabulary []string) string {
	var b strings.Builder
	b.WriteString("Assign one lowercase category tag to this customer support issue:\n\"")
	b.WriteString(issueText)
	b.WriteString("\"\n\nOnly use ONE word from this list:\n")
	b.WriteString(strings.Join(vocabulary, ", "))
	b.WriteString(".\nOnly return the tag, nothing else.")
	return b.String()
}

func summaryPrompt(issues []string) string {
	var b strings.Builder
	b.WriteString("Summarize the following customer support issues into 3-5 key complaint themes:\n\n")
	for _, issue := range issues {
		b.WriteString("- ")
		b.WriteString(issue)
		b.WriteString("\n")
	}
	return b.String()
}
