package dto

import (
	"time"

	"github.com/spec-kit/support-insights/internal/analytics"
	"github.com/spec-kit/support-insights/internal/domain"
	"github.com/spec-kit/support-insights/internal/service"
)

// MatrixResponse is a period x column count table.
type MatrixResponse struct {
	Periods []domain.Period `json:"periods"`
	Columns []string        `json:"columns"`
	Counts  [][]int         `json:"counts"`
}

// SpikeResponse is one flagged (period, column) cell.
type SpikeResponse struct {
	Period domain.Period `json:"period"`
	Column string        `json:"column"`
	Count  int           `json:"count"`
	Mean   float64       `json:"mean"`
	StdDev float64       `json:"std_dev"`
	Score  float64       `json:"score"`
}

// TagCountResponse is one entry of the top tags list.
type TagCountResponse struct {
	Tag   domain.Tag `json:"tag"`
	Count int        `json:"count"`
}

// OverviewResponse carries headline figures for the whole table.
type OverviewResponse struct {
	TotalTickets int        `json:"total_tickets"`
	TotalTagged  int        `json:"total_tagged"`
	FirstCreated *time.Time `json:"first_created,omitempty"`
	LastCreated  *time.Time `json:"last_created,omitempty"`
}

// DashboardResponse is the full dashboard for one selection.
type DashboardResponse struct {
	Overview          OverviewResponse   `json:"overview"`
	Threshold         float64            `json:"threshold"`
	CategoryMatrix    MatrixResponse     `json:"category_matrix"`
	Spikes            []SpikeResponse    `json:"spikes"`
	TagMatrix         MatrixResponse     `json:"tag_matrix"`
	TopTags           []TagCountResponse `json:"top_tags"`
	AvgMinutesBetween *float64           `json:"avg_minutes_between,omitempty"`
	TagDiversity      int                `json:"tag_diversity"`
	FilteredCount     int                `json:"filtered_count"`
	KnownCategories   []domain.Category  `json:"known_categories"`
	KnownTags         []domain.Tag       `json:"known_tags"`
}

// NewDashboardResponse maps a computed dashboard.
func NewDashboardResponse(d *service.Dashboard) DashboardResponse {
	resp := DashboardResponse{
		Overview: OverviewResponse{
			TotalTickets: d.Overview.TotalTickets,
			TotalTagged:  d.Overview.TotalTagged,
			FirstCreated: d.Overview.FirstCreated,
			LastCreated:  d.Overview.LastCreated,
		},
		Threshold:       d.Threshold,
		CategoryMatrix:  newMatrixResponse(d.CategoryMatrix),
		Spikes:          make([]SpikeResponse, 0, len(d.Spikes)),
		TagMatrix:       newMatrixResponse(d.TagMatrix),
		TopTags:         make([]TagCountResponse, 0, len(d.TopTags)),
		TagDiversity:    d.TagDiversity,
		FilteredCount:   d.FilteredCount,
		KnownCategories: nonNil(d.KnownCategories),
		KnownTags:       nonNil(d.KnownTags),
	}
	for _, s := range d.Spikes {
		resp.Spikes = append(resp.Spikes, SpikeResponse{
			Period: s.Period,
			Column: s.Column,
			Count:  s.Count,
			Mean:   s.Mean,
			StdDev: s.StdDev,
			Score:  s.Score,
		})
	}
	for _, tc := range d.TopTags {
		resp.TopTags = append(resp.TopTags, TagCountResponse{Tag: tc.Tag, Count: tc.Count})
	}
	if d.MeanGap != nil {
		minutes := d.MeanGap.Minutes()
		resp.AvgMinutesBetween = &minutes
	}
	return resp
}

func newMatrixResponse(m analytics.CountMatrix) MatrixResponse {
	return MatrixResponse{
		Periods: nonNil(m.Periods),
		Columns: nonNil(m.Columns),
		Counts:  nonNil(m.Counts),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
