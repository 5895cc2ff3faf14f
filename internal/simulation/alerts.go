package simulation

import (
	"fmt"
	"time"

	"crisiswatch/internal/model"
)

const (
	// negativeSpikeShare is the negative-sentiment percentage above which a
	// spike alert becomes possible.
	negativeSpikeShare = 45.0
	// negativeSpikeProbability gates the spike alert once the threshold is
	// crossed; detection is noisy rather than deterministic.
	negativeSpikeProbability = 0.2
	// ambientAlertProbability gates the catalog alert drawn independently
	// of sentiment state.
	ambientAlertProbability = 0.1
)

// AlertEngine inspects aggregate sentiment state and stochastically emits
// alerts when thresholds are crossed.
type AlertEngine struct {
	agg *SentimentAggregator
	rng Rand
}

// NewAlertEngine creates an AlertEngine over the given aggregator state.
func NewAlertEngine(agg *SentimentAggregator, rng Rand) *AlertEngine {
	return &AlertEngine{agg: agg, rng: rng}
}

// Evaluate runs the two independent alert checks and returns zero or more
// alerts. Emitting nothing is a valid outcome of any evaluation.
func (e *AlertEngine) Evaluate(disasterID int) []model.Alert {
	locations := e.agg.Locations()
	if len(locations) == 0 {
		return nil
	}

	location := locations[e.rng.Intn(len(locations))]
	positive, negative, neutral, ok := e.agg.Counts(location)
	if !ok {
		return nil
	}

	var alerts []model.Alert

	// Negative-sentiment spike: threshold AND coin flip must both pass.
	total := positive + negative + neutral
	if total > 0 {
		negativeShare := float64(negative) / float64(total) * 100
		if negativeShare > negativeSpikeShare && e.rng.Float64() < negativeSpikeProbability {
			alerts = append(alerts, model.Alert{
				DisasterID: disasterID,
				Message:    fmt.Sprintf("High negative sentiment detected in %s area (%.1f%%)", location, negativeShare),
				Level:      model.AlertLevelHigh,
				Timestamp:  time.Now(),
			})
		}
	}

	// Ambient alert drawn from the catalog, independent of sentiment state.
	if e.rng.Float64() < ambientAlertProbability {
		alerts = append(alerts, e.ambientAlert(disasterID, location, positive))
	}

	return alerts
}

func (e *AlertEngine) ambientAlert(disasterID int, location string, positive int) model.Alert {
	catalog := []struct {
		message string
		level   string
	}{
		{fmt.Sprintf("New evacuation hashtag trending: #%sEvac", neighborhoods[e.rng.Intn(len(neighborhoods))]), model.AlertLevelMedium},
		{fmt.Sprintf("Positive sentiment around rescue efforts increasing in %s", location), model.AlertLevelInfo},
		{fmt.Sprintf("Sudden spike in tweets about power outages in %s", location), model.AlertLevelMedium},
		{fmt.Sprintf("Emergency services response mentioned positively in %d tweets", positive/2), model.AlertLevelInfo},
	}

	selected := catalog[e.rng.Intn(len(catalog))]
	return model.Alert{
		DisasterID: disasterID,
		Message:    selected.message,
		Level:      selected.level,
		Timestamp:  time.Now(),
	}
}
