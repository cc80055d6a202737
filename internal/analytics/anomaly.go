package analytics

import (
	"math"

	"github.com/spec-kit/support-insights/internal/domain"
)

// DefaultThreshold is the z-score at which a cell counts as a spike.
const DefaultThreshold = 2.0

// Anomaly is a flagged cell together with the column statistics that flagged it.
type Anomaly struct {
	Period domain.Period
	Column string
	Count  int
	Mean   float64
	StdDev float64
	Score  float64
}

// Anomalies is ordered chronologically, then by column.
type Anomalies []Anomaly

// Contains reports whether the cell (p, column) was flagged.
func (a Anomalies) Contains(p domain.Period, column string) bool {
	for _, an := range a {
		if an.Period == p && an.Column == column {
			return true
		}
	}
	return false
}

// Detector flags cells whose z-score against their column reaches Threshold.
type Detector struct {
	// Threshold is inclusive: a cell scoring exactly Threshold is flagged.
	Threshold float64
}

// NewDetector returns a detector, falling back to DefaultThreshold for
// non-positive or non-finite thresholds.
func NewDetector(threshold float64) Detector {
	if threshold <= 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		threshold = DefaultThreshold
	}
	return Detector{Threshold: threshold}
}

// DetectAnomalies runs a detector with DefaultThreshold.
func DetectAnomalies(m CountMatrix) Anomalies {
	return NewDetector(DefaultThreshold).Detect(m)
}

// Detect scores every cell against its column's mean and population standard
// deviation. A column whose counts are all equal (including a single-row
// column) has zero deviation and yields no flags.
//
// With n periods the largest attainable score is sqrt(n-1), so the comparison
// is inclusive: a lone spike over five months scores exactly 2.
func (d Detector) Detect(m CountMatrix) Anomalies {
	threshold := NewDetector(d.Threshold).Threshold
	n := int64(len(m.Periods))
	if n < 2 || len(m.Columns) == 0 {
		return nil
	}

	stats := make([]columnStats, len(m.Columns))
	for j := range m.Columns {
		stats[j] = statsFor(m, j)
	}

	var out Anomalies
	for i := range m.Periods {
		for j, col := range m.Columns {
			st := stats[j]
			if !st.varies() {
				continue
			}
			score, ok := st.score(int64(m.Counts[i][j]))
			if !ok || score < threshold {
				continue
			}
			out = append(out, Anomaly{
				Period: m.Periods[i],
				Column: col,
				Count:  m.Counts[i][j],
				Mean:   st.mean(),
				StdDev: st.stdDev(),
				Score:  score,
			})
		}
	}
	return out
}

// columnStats keeps integer sums so the zero-variance test is exact.
type columnStats struct {
	n     int64
	sum   int64
	sumSq int64
}

func statsFor(m CountMatrix, j int) columnStats {
	st := columnStats{n: int64(len(m.Periods))}
	for i := range m.Periods {
		c := int64(m.Counts[i][j])
		st.sum += c
		st.sumSq += c * c
	}
	return st
}

// spread is n^2 times the population variance.
func (s columnStats) spread() int64 {
	return s.n*s.sumSq - s.sum*s.sum
}

func (s columnStats) varies() bool {
	return s.n >= 2 && s.spread() > 0
}

func (s columnStats) mean() float64 {
	return float64(s.sum) / float64(s.n)
}

func (s columnStats) stdDev() float64 {
	return math.Sqrt(float64(s.spread())) / float64(s.n)
}

// score returns (c - mean) / stddev, computed as (n*c - sum) / sqrt(spread).
// ok is false when the score is undefined.
func (s columnStats) score(c int64) (float64, bool) {
	if !s.varies() {
		return 0, false
	}
	z := float64(s.n*c-s.sum) / math.Sqrt(float64(s.spread()))
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return 0, false
	}
	return z, true
}
