package storage

import (
	"context"

	"crisiswatch/internal/model"
)

// DefaultTweetLimit is the number of tweets returned when no limit is given.
const DefaultTweetLimit = 50

// Store is the persistence collaborator for disasters and their derived
// records. Implementations must be safe for concurrent use.
type Store interface {
	// Disaster operations
	GetDisaster(ctx context.Context, id int) (model.Disaster, error)
	GetActiveDisasters(ctx context.Context) ([]model.Disaster, error)
	CreateDisaster(ctx context.Context, disaster model.Disaster) (model.Disaster, error)
	UpdateDisaster(ctx context.Context, disaster model.Disaster) (model.Disaster, error)

	// Keyword operations
	GetKeywordsByDisasterID(ctx context.Context, disasterID int) ([]model.Keyword, error)
	CreateKeyword(ctx context.Context, keyword model.Keyword) (model.Keyword, error)
	UpdateKeyword(ctx context.Context, id int, isActive bool) (model.Keyword, error)
	DeleteKeyword(ctx context.Context, id int) error

	// Tweet operations. GetTweetsByDisasterID returns newest-first; a
	// non-positive limit falls back to DefaultTweetLimit.
	GetTweetsByDisasterID(ctx context.Context, disasterID, limit int) ([]model.Tweet, error)
	CreateTweet(ctx context.Context, tweet model.Tweet) (model.Tweet, error)
	GetTweetCount(ctx context.Context, disasterID int) (int, error)

	// Alert operations. GetAlertsByDisasterID returns newest-first.
	GetAlertsByDisasterID(ctx context.Context, disasterID int) ([]model.Alert, error)
	CreateAlert(ctx context.Context, alert model.Alert) (model.Alert, error)
	MarkAlertRead(ctx context.Context, id int) (model.Alert, error)

	// Trending topic operations. GetTrendingTopicsByDisasterID returns
	// topics ordered by descending percentage change.
	GetTrendingTopicsByDisasterID(ctx context.Context, disasterID int) ([]model.TrendingTopic, error)
	CreateTrendingTopic(ctx context.Context, topic model.TrendingTopic) (model.TrendingTopic, error)
	UpdateTrendingTopic(ctx context.Context, id, count int, percentageChange string) (model.TrendingTopic, error)
}
