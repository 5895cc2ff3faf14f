package model

import "time"

// Sentiment is the classification of a tweet's sentiment score.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Alert severity levels.
const (
	AlertLevelHigh   = "high"
	AlertLevelMedium = "medium"
	AlertLevelInfo   = "info"
)

// Disaster is a tracked monitoring context (e.g. one hurricane) that scopes
// keywords, tweets, alerts and trending topics.
type Disaster struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	GeographicArea string     `json:"geographicArea"`
	StartDate      time.Time  `json:"startDate"`
	EndDate        *time.Time `json:"endDate"`
}

// Keyword is a tracked search term or hashtag for a disaster.
type Keyword struct {
	ID         int    `json:"id"`
	DisasterID int    `json:"disasterId"`
	Keyword    string `json:"keyword"`
	IsHashtag  bool   `json:"isHashtag"`
	IsActive   bool   `json:"isActive"`
}

// Tweet is a single (synthetic) social media post for a disaster.
type Tweet struct {
	ID              int       `json:"id"`
	TweetID         string    `json:"tweetId"`
	DisasterID      int       `json:"disasterId"`
	Username        string    `json:"username"`
	DisplayName     string    `json:"displayName"`
	Content         string    `json:"content"`
	Location        string    `json:"location"`
	Latitude        string    `json:"latitude"`
	Longitude       string    `json:"longitude"`
	Sentiment       Sentiment `json:"sentiment"`
	SentimentScore  string    `json:"sentimentScore"`
	Timestamp       time.Time `json:"timestamp"`
	MatchedKeywords []string  `json:"matchedKeywords"`
}

// Alert is a threshold- or heuristic-triggered notification for a disaster.
type Alert struct {
	ID         int       `json:"id"`
	DisasterID int       `json:"disasterId"`
	Message    string    `json:"message"`
	Level      string    `json:"level"`
	Timestamp  time.Time `json:"timestamp"`
	IsRead     bool      `json:"isRead"`
}

// TrendingTopic is a tracked topic with its mention count and accumulated
// percentage change.
type TrendingTopic struct {
	ID               int       `json:"id"`
	DisasterID       int       `json:"disasterId"`
	Topic            string    `json:"topic"`
	Count            int       `json:"count"`
	PercentageChange string    `json:"percentageChange"`
	Timestamp        time.Time `json:"timestamp"`
}

// SentimentSummary is the combined sentiment distribution across all
// locations, expressed as rounded percentages plus the grand total count.
type SentimentSummary struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
	Total    int `json:"total"`
}

// LocationSentiment holds per-location sentiment counts and their total.
type LocationSentiment struct {
	Location string `json:"location"`
	Positive int    `json:"positive"`
	Negative int    `json:"negative"`
	Neutral  int    `json:"neutral"`
	Total    int    `json:"total"`
}

// SentimentSnapshot is the periodic sentiment update pushed to clients,
// combining the overall summary with the per-location breakdown.
type SentimentSnapshot struct {
	Summary    SentimentSummary    `json:"summary"`
	ByLocation []LocationSentiment `json:"byLocation"`
}
