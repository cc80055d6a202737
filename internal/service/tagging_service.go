package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/support-insights/internal/domain"
	"github.com/spec-kit/support-insights/internal/events"
	"github.com/spec-kit/support-insights/internal/llm"
	"github.com/spec-kit/support-insights/internal/observability"
	"github.com/spec-kit/support-insights/internal/repository"
	"github.com/spec-kit/support-insights/internal/store"
	apperrors "github.com/spec-kit/support-insights/pkg/util/errorutil"
)

const (
	defaultAutoTagBatch = 10
	defaultSummaryBatch = 25
	minSummaryBatch     = 5
	maxSummaryBatch     = 50
	classifyParallelism = 4
	noIssuesSummaryText = "No issues to summarize."
	tagSourceManual     = "manual"
	tagSourceClassifier = "classifier"
)

// TaggingService drives the external classifier and summarizer and applies
// their results to the dashboard's table.
type TaggingService struct {
	dashboard    *DashboardService
	classifier   llm.Classifier
	summarizer   llm.Summarizer
	journal      repository.SummaryJournal
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	logger       *zap.Logger
	timeout      time.Duration
	maxRetries   int
	batchSize    int
	summaryBatch int
	retryable    func(error) bool
	backoff      func(attempt int) time.Duration
}

// TaggingDependencies bundles collaborators for the tagging service.
// Classifier and Summarizer may be nil, which disables the matching feature.
type TaggingDependencies struct {
	Dashboard        *DashboardService
	Classifier       llm.Classifier
	Summarizer       llm.Summarizer
	Journal          repository.SummaryJournal
	Dispatcher       events.Dispatcher
	Metrics          *observability.Metrics
	Logger           *zap.Logger
	Timeout          time.Duration
	MaxRetries       int
	AutoTagBatchSize int
	SummaryBatchSize int
	Retryable        func(error) bool
}

// TagOutcome records one applied tag.
type TagOutcome struct {
	TicketID string
	Tag      domain.Tag
}

// TagFailure records a ticket the classifier could not tag.
type TagFailure struct {
	TicketID string
	Reason   string
}

// AutoTagResult reports a batch run. Skipped lists tickets that were tagged by
// someone else while the batch waited on the classifier; their tags are kept.
type AutoTagResult struct {
	Tagged  []TagOutcome
	Failed  []TagFailure
	Skipped []string
}

// NewTaggingService constructs the service.
func NewTaggingService(deps TaggingDependencies) *TaggingService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	retryable := deps.Retryable
	if retryable == nil {
		retryable = llm.Retryable
	}
	batch := deps.AutoTagBatchSize
	if batch <= 0 {
		batch = defaultAutoTagBatch
	}
	summaryBatch := deps.SummaryBatchSize
	if summaryBatch <= 0 {
		summaryBatch = defaultSummaryBatch
	}
	maxRetries := deps.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &TaggingService{
		dashboard:    deps.Dashboard,
		classifier:   deps.Classifier,
		summarizer:   deps.Summarizer,
		journal:      deps.Journal,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		logger:       logger,
		timeout:      deps.Timeout,
		maxRetries:   maxRetries,
		batchSize:    batch,
		summaryBatch: summaryBatch,
		retryable:    retryable,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * 200 * time.Millisecond
		},
	}
}

// AssignTag sets a tag chosen by a person rather than the classifier.
func (s *TaggingService) AssignTag(ctx context.Context, ticketID string, tag domain.Tag) (domain.Ticket, error) {
	var previous *domain.Tag
	next, err := s.dashboard.Update(func(t *store.Table) (*store.Table, error) {
		if current, ok := t.Get(ticketID); ok {
			previous = current.Tag
		}
		return t.AssignTag(ticketID, tag)
	})
	if err != nil {
		return domain.Ticket{}, err
	}
	ticket, _ := next.Get(ticketID)
	s.metrics.RecordEvent("tags_assigned", 1)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketTagged,
		TicketID: ticketID,
		Payload:  events.TicketTaggedPayload{Tag: *ticket.Tag, Previous: previous, Source: tagSourceManual},
	})
	return ticket, nil
}

// AutoTag classifies the batchSize most recent untagged tickets and applies
// the tags in one new table version. A ticket whose classification fails is
// reported in the result and left untagged. batchSize <= 0 uses the configured size.
func (s *TaggingService) AutoTag(ctx context.Context, batchSize int) (*AutoTagResult, error) {
	if s.classifier == nil {
		return nil, apperrors.NewDisabledError("classifier")
	}
	if batchSize <= 0 {
		batchSize = s.batchSize
	}
	candidates := s.dashboard.Table().RecentUntagged(batchSize)
	result := &AutoTagResult{}
	if len(candidates) == 0 {
		return result, nil
	}

	tags := make([]domain.Tag, len(candidates))
	reasons := make([]string, len(candidates))
	var g errgroup.Group
	g.SetLimit(classifyParallelism)
	for i := range candidates {
		g.Go(func() error {
			var raw string
			err := s.callWithRetry(ctx, "classify", func(ctx context.Context) error {
				var err error
				raw, err = s.classifier.Classify(ctx, candidates[i].IssueText)
				return err
			})
			if err != nil {
				reasons[i] = err.Error()
				return nil
			}
			tag, ok := domain.ParseTag(llm.NormalizeTag(raw))
			if !ok {
				reasons[i] = fmt.Sprintf("unusable classifier answer %q", raw)
				return nil
			}
			tags[i] = tag
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var classified []TagOutcome
	for i, c := range candidates {
		if reasons[i] != "" {
			result.Failed = append(result.Failed, TagFailure{TicketID: c.ID, Reason: reasons[i]})
			continue
		}
		classified = append(classified, TagOutcome{TicketID: c.ID, Tag: tags[i]})
	}

	if len(classified) > 0 {
		// Decided against the version being updated, so a tag applied meanwhile wins.
		var applied []TagOutcome
		var skipped []string
		_, err := s.dashboard.Update(func(t *store.Table) (*store.Table, error) {
			applied, skipped = applied[:0], skipped[:0]
			for _, o := range classified {
				if cur, ok := t.Get(o.TicketID); ok && cur.Tagged() {
					skipped = append(skipped, o.TicketID)
					continue
				}
				var err error
				if t, err = t.AssignTag(o.TicketID, o.Tag); err != nil {
					return nil, err
				}
				applied = append(applied, o)
			}
			return t, nil
		})
		if err != nil {
			return nil, err
		}
		result.Tagged = applied
		result.Skipped = skipped
	}

	s.metrics.RecordEvent("tags_assigned", len(result.Tagged))
	s.metrics.RecordEvent("classify_failures", len(result.Failed))
	for _, id := range result.Skipped {
		s.logger.Info("auto-tag skipped ticket tagged concurrently", zap.String("ticket_id", id))
	}
	for _, f := range result.Failed {
		s.logger.Warn("classification failed", zap.String("ticket_id", f.TicketID), zap.String("reason", f.Reason))
	}
	for _, o := range result.Tagged {
		s.publish(ctx, events.Event{
			Type:     events.EventTicketTagged,
			TicketID: o.TicketID,
			Payload:  events.TicketTaggedPayload{Tag: o.Tag, Source: tagSourceClassifier},
		})
	}
	return result, nil
}

// Summarize condenses the count most recent issues of sel. count is clamped to
// [5, 50]; zero uses the configured batch. An empty selection returns a fixed
// message without calling the summarizer.
func (s *TaggingService) Summarize(ctx context.Context, sel Selection, count int) (*repository.Summary, error) {
	if s.summarizer == nil {
		return nil, apperrors.NewDisabledError("summarizer")
	}
	count = clampSummaryCount(count, s.summaryBatch)

	recent := s.dashboard.Table().Filter(sel.Categories, sel.Tags).Recent(count)
	summary := &repository.Summary{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		IssueCount: len(recent),
		Categories: sel.Categories,
	}
	if sel.Tags != nil {
		summary.Tags = append([]domain.Tag{}, sel.Tags.Tags...)
	}
	if len(recent) == 0 {
		summary.Text = noIssuesSummaryText
		return summary, nil
	}

	issues := make([]string, 0, len(recent))
	for _, t := range recent {
		issues = append(issues, t.IssueText)
	}
	err := s.callWithRetry(ctx, "summarize", func(ctx context.Context) error {
		text, err := s.summarizer.Summarize(ctx, issues)
		summary.Text = strings.TrimSpace(text)
		return err
	})
	if err != nil {
		return nil, apperrors.NewUpstreamError("summarize", err)
	}

	s.metrics.RecordEvent("summaries_generated", 1)
	s.publish(ctx, events.Event{
		Type: events.EventSummaryGenerated,
		Payload: events.SummaryGeneratedPayload{
			SummaryID:  summary.ID,
			Text:       summary.Text,
			IssueCount: summary.IssueCount,
			Categories: summary.Categories,
			Tags:       summary.Tags,
			CreatedAt:  summary.CreatedAt,
		},
	})
	return summary, nil
}

// Summaries lists journaled summaries, newest first.
func (s *TaggingService) Summaries(ctx context.Context, limit int) ([]repository.Summary, error) {
	if s.journal == nil {
		return []repository.Summary{}, nil
	}
	return s.journal.List(ctx, limit)
}

func clampSummaryCount(count, fallback int) int {
	if count == 0 {
		count = fallback
	}
	if count < minSummaryBatch {
		return minSummaryBatch
	}
	if count > maxSummaryBatch {
		return maxSummaryBatch
	}
	return count
}

// callWithRetry bounds each attempt by the configured timeout and retries
// transient failures with quadratic backoff. An attempt that hit its own
// timeout is transient; cancellation of ctx is not.
func (s *TaggingService) callWithRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := 0
	for {
		err := s.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		timedOut := errors.Is(err, context.DeadlineExceeded)
		if !(timedOut || s.retryable(err)) || attempts >= s.maxRetries {
			return fmt.Errorf("%s: %w", op, err)
		}
		attempts++
		s.logger.Debug("retrying upstream call", zap.String("op", op), zap.Int("attempt", attempts), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.backoff(attempts)):
		}
	}
}

func (s *TaggingService) attempt(ctx context.Context, fn func(context.Context) error) error {
	if s.timeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return fn(callCtx)
}

func (s *TaggingService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
