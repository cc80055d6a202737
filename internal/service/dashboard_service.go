package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-insights/internal/analytics"
	"github.com/spec-kit/support-insights/internal/domain"
	"github.com/spec-kit/support-insights/internal/events"
	"github.com/spec-kit/support-insights/internal/observability"
	"github.com/spec-kit/support-insights/internal/store"
)

// Selection is the caller's current filter.
type Selection struct {
	Categories []domain.Category
	Tags       *store.TagFilter
}

// Dashboard is everything the presentation layer renders for one selection.
type Dashboard struct {
	Overview        analytics.Overview
	CategoryMatrix  analytics.CountMatrix
	Spikes          analytics.Anomalies
	Threshold       float64
	TagMatrix       analytics.CountMatrix
	TopTags         []analytics.TagCount
	MeanGap         *time.Duration
	TagDiversity    int
	KnownCategories []domain.Category
	KnownTags       []domain.Tag
	FilteredCount   int
}

// DashboardService owns the current table version. Readers take a snapshot;
// writers publish a new version with compare-and-swap, so filtering never
// observes a half-applied update.
type DashboardService struct {
	table      atomic.Pointer[store.Table]
	detector   analytics.Detector
	topTags    int
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger

	mu       sync.Mutex
	reported map[spikeKey]struct{}
}

type spikeKey struct {
	period domain.Period
	column string
}

// DashboardDependencies bundles collaborators for the dashboard service.
type DashboardDependencies struct {
	Table          *store.Table
	SpikeThreshold float64
	TopTags        int
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// NewDashboardService constructs the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	table := deps.Table
	if table == nil {
		table = store.Empty()
	}
	s := &DashboardService{
		detector:   analytics.NewDetector(deps.SpikeThreshold),
		topTags:    deps.TopTags,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		reported:   make(map[spikeKey]struct{}),
	}
	s.table.Store(table)
	return s
}

// Table returns the current table version.
func (s *DashboardService) Table() *store.Table {
	return s.table.Load()
}

// Update applies fn to the current version and publishes the result. fn may
// run more than once if another writer wins the race; it must not have side
// effects beyond building the new table.
func (s *DashboardService) Update(fn func(*store.Table) (*store.Table, error)) (*store.Table, error) {
	for {
		current := s.table.Load()
		next, err := fn(current)
		if err != nil {
			return nil, err
		}
		if s.table.CompareAndSwap(current, next) {
			return next, nil
		}
	}
}

// Threshold returns the configured spike threshold.
func (s *DashboardService) Threshold() float64 {
	return s.detector.Threshold
}

// Dashboard computes the dashboard for sel. threshold overrides the configured
// spike threshold when positive.
func (s *DashboardService) Dashboard(ctx context.Context, sel Selection, threshold float64) *Dashboard {
	table := s.Table()
	detector := s.detector
	if threshold > 0 {
		detector = analytics.NewDetector(threshold)
	}

	byCategory := table.Filter(sel.Categories, nil).Tickets()
	byTag := byCategory
	if sel.Tags != nil {
		byTag = table.Filter(sel.Categories, sel.Tags).Tickets()
	}

	catMatrix := analytics.BucketCounts(byCategory, analytics.GroupByCategory)
	d := &Dashboard{
		Overview:        analytics.Summarize(table.Tickets()),
		CategoryMatrix:  catMatrix,
		Spikes:          detector.Detect(catMatrix),
		Threshold:       detector.Threshold,
		TagMatrix:       analytics.BucketCounts(byTag, analytics.GroupByTag),
		TopTags:         analytics.TopTags(byTag, s.topTags),
		TagDiversity:    analytics.TagDiversity(byTag),
		KnownCategories: table.Categories(),
		KnownTags:       table.Tags(),
		FilteredCount:   len(byTag),
	}
	if gap, ok := analytics.MeanGap(byTag); ok {
		d.MeanGap = &gap
	}

	s.reportSpikes(ctx, d.Spikes)
	return d
}

// Tickets returns up to limit tickets of the selection, newest first.
func (s *DashboardService) Tickets(sel Selection, limit int) []domain.Ticket {
	view := s.Table().Filter(sel.Categories, sel.Tags)
	if limit <= 0 {
		limit = view.Len()
	}
	return view.Recent(limit)
}

// View returns the filtered table for export.
func (s *DashboardService) View(sel Selection) *store.Table {
	return s.Table().Filter(sel.Categories, sel.Tags)
}

// reportSpikes publishes each spike once per process.
func (s *DashboardService) reportSpikes(ctx context.Context, spikes analytics.Anomalies) {
	if s.dispatcher == nil || len(spikes) == 0 {
		return
	}
	var fresh analytics.Anomalies
	s.mu.Lock()
	for _, sp := range spikes {
		key := spikeKey{period: sp.Period, column: sp.Column}
		if _, seen := s.reported[key]; seen {
			continue
		}
		s.reported[key] = struct{}{}
		fresh = append(fresh, sp)
	}
	s.mu.Unlock()

	s.metrics.RecordEvent("spikes_detected", len(fresh))
	for _, sp := range fresh {
		err := s.dispatcher.Publish(ctx, events.Event{
			Type: events.EventSpikeDetected,
			Payload: events.SpikeDetectedPayload{
				Period: sp.Period,
				Column: sp.Column,
				Count:  sp.Count,
				Score:  sp.Score,
			},
		})
		if err != nil {
			s.logger.Warn("spike event handler failed", zap.Error(err))
		}
	}
}
