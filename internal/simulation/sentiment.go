package simulation

import (
	"math"
	"sort"
	"sync"

	"crisiswatch/internal/model"
)

// SentimentAggregator owns the per-location running counts of positive,
// negative and neutral events. Counts only ever grow; they are reset only
// at process start. Safe for concurrent use: the synthesizer records from
// the fast cadence while the slow cadence reads snapshots.
type SentimentAggregator struct {
	mu         sync.RWMutex
	byLocation map[string]*sentimentCounts
}

type sentimentCounts struct {
	positive int
	negative int
	neutral  int
}

// NewSentimentAggregator creates an empty aggregator.
func NewSentimentAggregator() *SentimentAggregator {
	return &SentimentAggregator{byLocation: make(map[string]*sentimentCounts)}
}

// Record increments the counter matching class for location, creating the
// location's entry with all-zero counts if absent.
func (a *SentimentAggregator) Record(location string, class model.Sentiment) {
	a.mu.Lock()
	defer a.mu.Unlock()

	counts, ok := a.byLocation[location]
	if !ok {
		counts = &sentimentCounts{}
		a.byLocation[location] = counts
	}

	switch class {
	case model.SentimentPositive:
		counts.positive++
	case model.SentimentNegative:
		counts.negative++
	default:
		counts.neutral++
	}
}

// Summarize returns the fraction of each sentiment class across all
// locations as rounded percentages, plus the grand total count.
func (a *SentimentAggregator) Summarize() model.SentimentSummary {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var positive, negative, neutral int
	for _, counts := range a.byLocation {
		positive += counts.positive
		negative += counts.negative
		neutral += counts.neutral
	}

	total := positive + negative + neutral
	if total == 0 {
		return model.SentimentSummary{}
	}

	return model.SentimentSummary{
		Positive: roundPercent(positive, total),
		Negative: roundPercent(negative, total),
		Neutral:  roundPercent(neutral, total),
		Total:    total,
	}
}

// SummarizeByLocation returns per-location counts and totals, ordered by
// location name for stable output.
func (a *SentimentAggregator) SummarizeByLocation() []model.LocationSentiment {
	a.mu.RLock()
	defer a.mu.RUnlock()

	result := make([]model.LocationSentiment, 0, len(a.byLocation))
	for location, counts := range a.byLocation {
		result = append(result, model.LocationSentiment{
			Location: location,
			Positive: counts.positive,
			Negative: counts.negative,
			Neutral:  counts.neutral,
			Total:    counts.positive + counts.negative + counts.neutral,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Location < result[j].Location })
	return result
}

// Locations returns the tracked location names in sorted order.
func (a *SentimentAggregator) Locations() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	locations := make([]string, 0, len(a.byLocation))
	for location := range a.byLocation {
		locations = append(locations, location)
	}
	sort.Strings(locations)
	return locations
}

// Counts returns the raw counters for one location. ok is false when the
// location has never been recorded.
func (a *SentimentAggregator) Counts(location string) (positive, negative, neutral int, ok bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	counts, ok := a.byLocation[location]
	if !ok {
		return 0, 0, 0, false
	}
	return counts.positive, counts.negative, counts.neutral, true
}

// SeedDemoData initializes every known simulation location with random
// counts in [20, 119] per class, matching the demo bootstrap.
func (a *SentimentAggregator) SeedDemoData(rng Rand) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, location := range simLocations {
		a.byLocation[location.City] = &sentimentCounts{
			positive: rng.Intn(100) + 20,
			negative: rng.Intn(100) + 20,
			neutral:  rng.Intn(100) + 20,
		}
	}
}

func roundPercent(part, total int) int {
	return int(math.Round(float64(part) / float64(total) * 100))
}
