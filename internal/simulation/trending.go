package simulation

import (
	"context"
	"strconv"

	"crisiswatch/internal/model"
	"crisiswatch/internal/storage"
)

// DriftEngine applies randomized percentage deltas to a disaster's tracked
// trending topics. Topics only ever grow per tick: a negative or zero draw
// leaves the topic unchanged that cycle, and percentage changes accumulate
// indefinitely.
type DriftEngine struct {
	store storage.Store
	rng   Rand
}

// NewDriftEngine creates a DriftEngine over the given store.
func NewDriftEngine(store storage.Store, rng Rand) *DriftEngine {
	return &DriftEngine{store: store, rng: rng}
}

// Drift draws a delta in [-10, +30] for every topic tracked for the
// disaster and applies the positive ones. It returns the full updated topic
// list for broadcast, or nil when no topic changed this cycle.
func (e *DriftEngine) Drift(ctx context.Context, disasterID int) ([]model.TrendingTopic, error) {
	topics, err := e.store.GetTrendingTopicsByDisasterID(ctx, disasterID)
	if err != nil {
		return nil, err
	}

	changed := false
	for _, topic := range topics {
		delta := e.rng.Intn(41) - 10
		if delta <= 0 {
			continue
		}

		newCount := topic.Count + topic.Count*delta/100
		previous, _ := strconv.Atoi(topic.PercentageChange)
		newPercentage := strconv.Itoa(previous + delta)

		if _, err := e.store.UpdateTrendingTopic(ctx, topic.ID, newCount, newPercentage); err != nil {
			return nil, err
		}
		changed = true
	}

	if !changed {
		return nil, nil
	}
	return e.store.GetTrendingTopicsByDisasterID(ctx, disasterID)
}
