package search

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Level buckets score: >= High is high, >= Medium is medium, >= Low is low,
// anything else very_low.
func (t Thresholds) Level(score float64) ConfidenceLevel {
	switch {
	case score >= t.High:
		return ConfidenceHigh
	case score >= t.Medium:
		return ConfidenceMedium
	case score >= t.Low:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}

// Ordered reports whether low <= medium <= high.
func (t Thresholds) Ordered() bool {
	return t.Low <= t.Medium && t.Medium <= t.High
}

// Suggested returns the thresholds derived from the statistics.
func (s SimilarityStatistics) Suggested() Thresholds {
	return Thresholds{High: s.SuggestedHigh, Medium: s.SuggestedMedium, Low: s.SuggestedLow}
}

// computeStatistics returns false when there are no scores.
func computeStatistics(scores []float64) (SimilarityStatistics, bool) {
	if len(scores) == 0 {
		return SimilarityStatistics{}, false
	}
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)

	mean, std := stat.PopMeanStdDev(sorted, nil)
	stats := SimilarityStatistics{
		Count:  len(sorted),
		Max:    floats.Max(sorted),
		Min:    floats.Min(sorted),
		Mean:   mean,
		Median: percentile(sorted, 0.5),
		Std:    std,
		Q25:    percentile(sorted, 0.25),
		Q75:    percentile(sorted, 0.75),
	}
	stats.SuggestedHigh = stats.Q75
	stats.SuggestedMedium = stats.Median
	stats.SuggestedLow = stats.Q25
	return stats, true
}

// percentile interpolates linearly between the closest ranks at (n-1)*p.
// sorted must be ascending and non-empty.
func percentile(sorted []float64, p float64) float64 {
	pos := float64(len(sorted)-1) * p
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
