package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"crisiswatch/internal/model"
	"crisiswatch/internal/storage"
)

// Store is an in-memory implementation of storage.Store. It is the default
// backend when no database is configured and the backend used by tests.
type Store struct {
	mu sync.RWMutex

	disasters map[int]model.Disaster
	keywords  map[int]model.Keyword
	tweets    map[int]model.Tweet
	alerts    map[int]model.Alert
	topics    map[int]model.TrendingTopic

	nextDisasterID int
	nextKeywordID  int
	nextTweetID    int
	nextAlertID    int
	nextTopicID    int
}

var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		disasters:      make(map[int]model.Disaster),
		keywords:       make(map[int]model.Keyword),
		tweets:         make(map[int]model.Tweet),
		alerts:         make(map[int]model.Alert),
		topics:         make(map[int]model.TrendingTopic),
		nextDisasterID: 1,
		nextKeywordID:  1,
		nextTweetID:    1,
		nextAlertID:    1,
		nextTopicID:    1,
	}
}

func (s *Store) GetDisaster(_ context.Context, id int) (model.Disaster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	disaster, ok := s.disasters[id]
	if !ok {
		return model.Disaster{}, storage.ErrNotFound
	}
	return disaster, nil
}

func (s *Store) GetActiveDisasters(_ context.Context) ([]model.Disaster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []model.Disaster
	for _, d := range s.disasters {
		if d.Status == "active" {
			active = append(active, d)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })
	return active, nil
}

func (s *Store) CreateDisaster(_ context.Context, disaster model.Disaster) (model.Disaster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	disaster.ID = s.nextDisasterID
	s.nextDisasterID++
	s.disasters[disaster.ID] = disaster
	return disaster, nil
}

func (s *Store) UpdateDisaster(_ context.Context, disaster model.Disaster) (model.Disaster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.disasters[disaster.ID]; !ok {
		return model.Disaster{}, storage.ErrNotFound
	}
	s.disasters[disaster.ID] = disaster
	return disaster, nil
}

func (s *Store) GetKeywordsByDisasterID(_ context.Context, disasterID int) ([]model.Keyword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keywords []model.Keyword
	for _, k := range s.keywords {
		if k.DisasterID == disasterID {
			keywords = append(keywords, k)
		}
	}
	sort.Slice(keywords, func(i, j int) bool { return keywords[i].ID < keywords[j].ID })
	return keywords, nil
}

func (s *Store) CreateKeyword(_ context.Context, keyword model.Keyword) (model.Keyword, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keyword.ID = s.nextKeywordID
	s.nextKeywordID++
	s.keywords[keyword.ID] = keyword
	return keyword, nil
}

func (s *Store) UpdateKeyword(_ context.Context, id int, isActive bool) (model.Keyword, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keyword, ok := s.keywords[id]
	if !ok {
		return model.Keyword{}, storage.ErrNotFound
	}
	keyword.IsActive = isActive
	s.keywords[id] = keyword
	return keyword, nil
}

func (s *Store) DeleteKeyword(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keywords[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.keywords, id)
	return nil
}

func (s *Store) GetTweetsByDisasterID(_ context.Context, disasterID, limit int) ([]model.Tweet, error) {
	if limit <= 0 {
		limit = storage.DefaultTweetLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var tweets []model.Tweet
	for _, t := range s.tweets {
		if t.DisasterID == disasterID {
			tweets = append(tweets, t)
		}
	}
	sort.Slice(tweets, func(i, j int) bool { return tweets[i].Timestamp.After(tweets[j].Timestamp) })
	if len(tweets) > limit {
		tweets = tweets[:limit]
	}
	return tweets, nil
}

func (s *Store) CreateTweet(_ context.Context, tweet model.Tweet) (model.Tweet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tweet.ID = s.nextTweetID
	s.nextTweetID++
	s.tweets[tweet.ID] = tweet
	return tweet, nil
}

func (s *Store) GetTweetCount(_ context.Context, disasterID int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, t := range s.tweets {
		if t.DisasterID == disasterID {
			count++
		}
	}
	return count, nil
}

func (s *Store) GetAlertsByDisasterID(_ context.Context, disasterID int) ([]model.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var alerts []model.Alert
	for _, a := range s.alerts {
		if a.DisasterID == disasterID {
			alerts = append(alerts, a)
		}
	}
	sort.Slice(alerts, func(i, j int) bool { return alerts[i].Timestamp.After(alerts[j].Timestamp) })
	return alerts, nil
}

func (s *Store) CreateAlert(_ context.Context, alert model.Alert) (model.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert.ID = s.nextAlertID
	s.nextAlertID++
	s.alerts[alert.ID] = alert
	return alert, nil
}

func (s *Store) MarkAlertRead(_ context.Context, id int) (model.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.alerts[id]
	if !ok {
		return model.Alert{}, storage.ErrNotFound
	}
	alert.IsRead = true
	s.alerts[id] = alert
	return alert, nil
}

func (s *Store) GetTrendingTopicsByDisasterID(_ context.Context, disasterID int) ([]model.TrendingTopic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var topics []model.TrendingTopic
	for _, t := range s.topics {
		if t.DisasterID == disasterID {
			topics = append(topics, t)
		}
	}
	sort.Slice(topics, func(i, j int) bool {
		pi, _ := strconv.Atoi(topics[i].PercentageChange)
		pj, _ := strconv.Atoi(topics[j].PercentageChange)
		return pi > pj
	})
	return topics, nil
}

func (s *Store) CreateTrendingTopic(_ context.Context, topic model.TrendingTopic) (model.TrendingTopic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	topic.ID = s.nextTopicID
	s.nextTopicID++
	s.topics[topic.ID] = topic
	return topic, nil
}

func (s *Store) UpdateTrendingTopic(_ context.Context, id, count int, percentageChange string) (model.TrendingTopic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	topic, ok := s.topics[id]
	if !ok {
		return model.TrendingTopic{}, storage.ErrNotFound
	}
	topic.Count = count
	topic.PercentageChange = percentageChange
	s.topics[id] = topic
	return topic, nil
}

// SeedDemoData populates the store with a demo disaster and its keywords,
// trending topics and alerts. Returns the created disaster.
func (s *Store) SeedDemoData(ctx context.Context) (model.Disaster, error) {
	now := time.Now()

	disaster, err := s.CreateDisaster(ctx, model.Disaster{
		Name:           "Hurricane Florence",
		Type:           "hurricane",
		Status:         "active",
		GeographicArea: "North Carolina",
		StartDate:      now.Add(-48 * time.Hour),
	})
	if err != nil {
		return model.Disaster{}, err
	}

	keywords := []model.Keyword{
		{DisasterID: disaster.ID, Keyword: "hurricane", IsActive: true},
		{DisasterID: disaster.ID, Keyword: "flood", IsActive: true},
		{DisasterID: disaster.ID, Keyword: "evacuation", IsActive: true},
		{DisasterID: disaster.ID, Keyword: "damage", IsActive: true},
		{DisasterID: disaster.ID, Keyword: "rescue", IsActive: true},
		{DisasterID: disaster.ID, Keyword: "HurricaneFlorence", IsHashtag: true, IsActive: true},
		{DisasterID: disaster.ID, Keyword: "NCEvac", IsHashtag: true, IsActive: true},
		{DisasterID: disaster.ID, Keyword: "FloodWarning", IsHashtag: true, IsActive: true},
	}
	for _, k := range keywords {
		if _, err := s.CreateKeyword(ctx, k); err != nil {
			return model.Disaster{}, err
		}
	}

	topics := []model.TrendingTopic{
		{DisasterID: disaster.ID, Topic: "#NCEvac", Count: 1245, PercentageChange: "245", Timestamp: now},
		{DisasterID: disaster.ID, Topic: "#FloodWarning", Count: 980, PercentageChange: "180", Timestamp: now},
		{DisasterID: disaster.ID, Topic: "#RescueEfforts", Count: 785, PercentageChange: "120", Timestamp: now},
		{DisasterID: disaster.ID, Topic: "#PowerOutage", Count: 650, PercentageChange: "95", Timestamp: now},
		{DisasterID: disaster.ID, Topic: "#StaySafe", Count: 520, PercentageChange: "80", Timestamp: now},
	}
	for _, t := range topics {
		if _, err := s.CreateTrendingTopic(ctx, t); err != nil {
			return model.Disaster{}, err
		}
	}

	alerts := []model.Alert{
		{DisasterID: disaster.ID, Message: "Significant negative sentiment spike detected in Charlotte area", Level: model.AlertLevelHigh, Timestamp: now.Add(-10 * time.Minute)},
		{DisasterID: disaster.ID, Message: "New evacuation hashtag trending: #NCEvac", Level: model.AlertLevelMedium, Timestamp: now.Add(-25 * time.Minute)},
		{DisasterID: disaster.ID, Message: "Positive sentiment around rescue efforts increasing", Level: model.AlertLevelInfo, Timestamp: now.Add(-time.Hour)},
	}
	for _, a := range alerts {
		if _, err := s.CreateAlert(ctx, a); err != nil {
			return model.Disaster{}, err
		}
	}

	return disaster, nil
}
