package simulation

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"crisiswatch/internal/model"
	"crisiswatch/internal/storage"
	"crisiswatch/internal/websocket"
	"crisiswatch/pkg/log"
)

const (
	// alertCheckProbability gates how often a fast tick runs the alert engine.
	alertCheckProbability = 0.15
	// driftCheckProbability gates how often a fast tick drifts trending topics.
	driftCheckProbability = 0.10
)

// Publisher delivers events to the subscribers of a disaster channel.
type Publisher interface {
	Publish(ctx context.Context, disasterID int, event websocket.Event)
}

// Scheduler drives the simulation for active disasters. Each started disaster
// gets two independent cadences: a fast tick that synthesizes tweets and
// occasionally fires alerts and topic drift, and a slow tick that publishes
// sentiment snapshots.
type Scheduler struct {
	store       storage.Store
	synthesizer *Synthesizer
	alerts      *AlertEngine
	drift       *DriftEngine
	aggregator  *SentimentAggregator
	publisher   Publisher
	rng         Rand
	clock       clockwork.Clock
	logger      log.Logger

	fastInterval time.Duration
	slowInterval time.Duration

	mu      sync.Mutex
	cancels map[int]context.CancelFunc
	wg      sync.WaitGroup
}

// SchedulerConfig carries the scheduler's tick intervals.
type SchedulerConfig struct {
	FastInterval time.Duration
	SlowInterval time.Duration
}

// NewScheduler creates a scheduler. The clock is injectable for tests; pass
// clockwork.NewRealClock() in production.
func NewScheduler(
	store storage.Store,
	synthesizer *Synthesizer,
	alerts *AlertEngine,
	drift *DriftEngine,
	aggregator *SentimentAggregator,
	publisher Publisher,
	rng Rand,
	clock clockwork.Clock,
	logger log.Logger,
	cfg SchedulerConfig,
) *Scheduler {
	return &Scheduler{
		store:        store,
		synthesizer:  synthesizer,
		alerts:       alerts,
		drift:        drift,
		aggregator:   aggregator,
		publisher:    publisher,
		rng:          rng,
		clock:        clock,
		logger:       logger,
		fastInterval: cfg.FastInterval,
		slowInterval: cfg.SlowInterval,
		cancels:      make(map[int]context.CancelFunc),
	}
}

// Start begins the simulation for a disaster. Starting an already running
// disaster is a no-op.
func (s *Scheduler) Start(ctx context.Context, disasterID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, running := s.cancels[disasterID]; running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancels[disasterID] = cancel

	s.wg.Add(2)
	go s.runFast(runCtx, disasterID)
	go s.runSlow(runCtx, disasterID)

	s.logger.Infof(ctx, "simulation started for disaster %d", disasterID)
}

// Stop halts the simulation for a disaster. Stopping a disaster that is not
// running is a no-op.
func (s *Scheduler) Stop(disasterID int) {
	s.mu.Lock()
	cancel, running := s.cancels[disasterID]
	if running {
		delete(s.cancels, disasterID)
	}
	s.mu.Unlock()

	if running {
		cancel()
	}
}

// Running reports whether the simulation is active for a disaster.
func (s *Scheduler) Running(disasterID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, running := s.cancels[disasterID]
	return running
}

// Shutdown stops all running simulations and waits for their goroutines to
// exit.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	for id, cancel := range s.cancels {
		cancel()
		delete(s.cancels, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) runFast(ctx context.Context, disasterID int) {
	defer s.wg.Done()

	ticker := s.clock.NewTicker(s.fastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.fastTick(ctx, disasterID)
		}
	}
}

func (s *Scheduler) runSlow(ctx context.Context, disasterID int) {
	defer s.wg.Done()

	ticker := s.clock.NewTicker(s.slowInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.slowTick(ctx, disasterID)
		}
	}
}

// fastTick synthesizes a tweet and occasionally evaluates alerts and trending
// topic drift. A failure in one stage is logged and does not abort the others,
// except tweet persistence, which gates the tweet broadcast.
func (s *Scheduler) fastTick(ctx context.Context, disasterID int) {
	tweet := s.synthesizer.Synthesize(disasterID)

	stored, err := s.store.CreateTweet(ctx, tweet)
	if err != nil {
		s.logger.Errorf(ctx, "internal.simulation.Scheduler.fastTick: persist tweet: %v", err)
	} else {
		s.publisher.Publish(ctx, disasterID, websocket.TweetEvent{Tweet: stored})
	}

	if s.rng.Float64() < alertCheckProbability {
		s.evaluateAlerts(ctx, disasterID)
	}

	if s.rng.Float64() < driftCheckProbability {
		s.driftTopics(ctx, disasterID)
	}
}

// slowTick publishes a sentiment snapshot assembled from the aggregator.
func (s *Scheduler) slowTick(ctx context.Context, disasterID int) {
	snapshot := model.SentimentSnapshot{
		Summary:    s.aggregator.Summarize(),
		ByLocation: s.aggregator.SummarizeByLocation(),
	}
	s.publisher.Publish(ctx, disasterID, websocket.SentimentEvent{Snapshot: snapshot})
}

func (s *Scheduler) evaluateAlerts(ctx context.Context, disasterID int) {
	for _, alert := range s.alerts.Evaluate(disasterID) {
		stored, err := s.store.CreateAlert(ctx, alert)
		if err != nil {
			s.logger.Errorf(ctx, "internal.simulation.Scheduler.evaluateAlerts: persist alert: %v", err)
			continue
		}
		s.publisher.Publish(ctx, disasterID, websocket.AlertEvent{Alert: stored})
	}
}

func (s *Scheduler) driftTopics(ctx context.Context, disasterID int) {
	topics, err := s.drift.Drift(ctx, disasterID)
	if err != nil {
		s.logger.Errorf(ctx, "internal.simulation.Scheduler.driftTopics: %v", err)
		return
	}
	if topics == nil {
		return
	}
	s.publisher.Publish(ctx, disasterID, websocket.TrendingTopicsEvent{Topics: topics})
}
