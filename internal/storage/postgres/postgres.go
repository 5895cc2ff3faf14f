package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/friendsofgo/errors"

	"crisiswatch/internal/model"
	"crisiswatch/internal/storage"
	"crisiswatch/pkg/log"
)

// Store is a PostgreSQL implementation of storage.Store using database/sql
// with the lib/pq driver.
type Store struct {
	db *sql.DB
	l  log.Logger
}

var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL-backed store.
func New(db *sql.DB, logger log.Logger) *Store {
	return &Store{db: db, l: logger}
}

func (s *Store) GetDisaster(ctx context.Context, id int) (model.Disaster, error) {
	const query = `
		SELECT id, name, type, status, geographic_area, start_date, end_date
		FROM disasters WHERE id = $1`

	var d model.Disaster
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.Name, &d.Type, &d.Status, &d.GeographicArea, &d.StartDate, &d.EndDate,
	)
	if err == sql.ErrNoRows {
		return model.Disaster{}, storage.ErrNotFound
	}
	if err != nil {
		s.l.Errorf(ctx, "internal.storage.postgres.GetDisaster: %v", err)
		return model.Disaster{}, errors.Wrap(err, "query disaster")
	}
	return d, nil
}

func (s *Store) GetActiveDisasters(ctx context.Context) ([]model.Disaster, error) {
	const query = `
		SELECT id, name, type, status, geographic_area, start_date, end_date
		FROM disasters WHERE status = 'active' ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		s.l.Errorf(ctx, "internal.storage.postgres.GetActiveDisasters: %v", err)
		return nil, errors.Wrap(err, "query active disasters")
	}
	defer rows.Close()

	var disasters []model.Disaster
	for rows.Next() {
		var d model.Disaster
		if err := rows.Scan(&d.ID, &d.Name, &d.Type, &d.Status, &d.GeographicArea, &d.StartDate, &d.EndDate); err != nil {
			return nil, errors.Wrap(err, "scan disaster")
		}
		disasters = append(disasters, d)
	}
	return disasters, rows.Err()
}

func (s *Store) CreateDisaster(ctx context.Context, disaster model.Disaster) (model.Disaster, error) {
	const query = `
		INSERT INTO disasters (name, type, status, geographic_area, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	err := s.db.QueryRowContext(ctx, query,
		disaster.Name, disaster.Type, disaster.Status, disaster.GeographicArea,
		disaster.StartDate, disaster.EndDate,
	).Scan(&disaster.ID)
	if err != nil {
		s.l.Errorf(ctx, "internal.storage.postgres.CreateDisaster: %v", err)
		return model.Disaster{}, errors.Wrap(err, "insert disaster")
	}
	return disaster, nil
}

func (s *Store) UpdateDisaster(ctx context.Context, disaster model.Disaster) (model.Disaster, error) {
	const query = `
		UPDATE disasters
		SET name = $2, type = $3, status = $4, geographic_area = $5, start_date = $6, end_date = $7
		WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query,
		disaster.ID, disaster.Name, disaster.Type, disaster.Status,
		disaster.GeographicArea, disaster.StartDate, disaster.EndDate,
	)
	if err != nil {
		s.l.Errorf(ctx, "internal.storage.postgres.UpdateDisaster: %v", err)
		return model.Disaster{}, errors.Wrap(err, "update disaster")
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return model.Disaster{}, storage.ErrNotFound
	}
	return disaster, nil
}

func (s *Store) GetKeywordsByDisasterID(ctx context.Context, disasterID int) ([]model.Keyword, error) {
	const query = `
		SELECT id, disaster_id, keyword, is_hashtag, is_active
		FROM keywords WHERE disaster_id = $1 ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, disasterID)
	if err != nil {
		s.l.Errorf(ctx, "internal.storage.postgres.GetKeywordsByDisasterID: %v", err)
		return nil, errors.Wrap(err, "query keywords")
	}
	defer rows.Close()

	var keywords []model.Keyword
	for rows.Next() {
		var k model.Keyword
		if err := rows.Scan(&k.ID, &k.DisasterID, &k.Keyword, &k.IsHashtag, &k.IsActive); err != nil {
			return nil, errors.Wrap(err, "scan keyword")
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}

func (s *Store) CreateKeyword(ctx context.Context, keyword model.Keyword) (model.Keyword, error) {
	const query = `
		INSERT INTO keywords (disaster_id, keyword, is_hashtag, is_active)
		VALUES ($1, $2, $3, $4) RETURNING id`

	err := s.db.QueryRowContext(ctx, query,
		keyword.DisasterID, keyword.Keyword, keyword.IsHashtag, keyword.IsActive,
	).Scan(&keyword.ID)
	if err != nil {
		s.l.Errorf(ctx, "internal.storage.postgres.CreateKeyword: %v", err)
		return model.Keyword{}, errors.Wrap(err, "insert keyword")
	}
	return keyword, nil
}

func (s *Store) UpdateKeyword(ctx context.Context, id int, isActive bool) (model.Keyword, error) {
	const query = `
		UPDATE keywords SET is_active = $2 WHERE id = $1
		RETURNING id, disaster_id, keyword, is_hashtag, is_active`

	var k model.Keyword
	err := s.db.QueryRowContext(ctx, query, id, isActive).Scan(
		&k.ID, &k.DisasterID, &k.Keyword, &k.IsHashtag, &k.IsActive,
	)
	if err == sql.ErrNoRows {
		return model.Keyword{}, storage.ErrNotFound
	}
	if err != nil {
		s.l.Errorf(ctx, "internal.storage.postgres.UpdateKeyword: %v", err)
		return model.Keyword{}, errors.Wrap(err, "update keyword")
	}
	return k, nil
}

func (s *Store) DeleteKeyword(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM keywords WHERE id = $1`, id)
	if err != nil {
		s.l.Errorf(ctx, "internal.storage.postgres.DeleteKeyword: %v", err)
		return errors.Wrap(err, "delete keyword")
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) GetTweetsByDisasterID(ctx context.Context, disasterID, limit int) ([]model.Tweet, error) {
	if limit <= 0 {
		limit = storage.DefaultTweetLimit
	}

	const query = `
		SELECT id, tweet_id, disaster_id, username, display_name, content,
		       location, latitude, longitude, sentiment, sentiment_score,
		       timestamp, matched_keywords
		FROM tweets WHERE disaster_id = $1
		ORDER BY timestamp DESC LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, disasterID, limit)
	if err != nil {
		s.l.Errorf(ctx, "internal.storage.postgres.GetTweetsByDisasterID: %v", err)
		return nil, errors.Wrap(err, "query tweets")
	}
	defer rows.Close()

	var tweets []model.Tweet
	for rows.Next() {
		var t model.Tweet
		var matched []byte
		if err := rows.Scan(
			&t.ID, &t.TweetID, &t.DisasterID, &t.Username, &t.DisplayName, &t.Content,
			&t.Location, &t.Latitude, &t.Longitude, &t.Sentiment, &t.SentimentScore,
			&t.Timestamp, &matched,
		); err != nil {
			return nil, errors.Wrap(err, "scan tweet")
		}
		if err := json.Unmarshal(matched, &t.MatchedKeywords); err != nil {
			return nil, errors.Wrap(err, "decode matched keywords")
		}
		tweets = append(tweets, t)
	}
	return tweets, rows.Err()
}

func (s *Store) CreateTweet(ctx context.Context, tweet model.Tweet) (model.Tweet, error) {
	matched, err := json.Marshal(tweet.MatchedKeywords)
	if err != nil {
		return model.Tweet{}, errors.Wrap(err, "encode matched keywords")
	}

	const query = `
		INSERT INTO tweets (tweet_id, disaster_id, username, display_name, content,
		                    location, latitude, longitude, sentiment, sentiment_score,
		                    timestamp, matched_keywords)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`

	err = s.db.QueryRowContext(ctx, query,
		tweet.TweetID, tweet.DisasterID, tweet.Username, tweet.DisplayName, tweet.Content,
		tweet.Location, tweet.Latitude, tweet.Longitude, tweet.Sentiment, tweet.SentimentScore,
		tweet.Timestamp, matched,
	).Scan(&tweet.ID)
	if err != nil {
		s.l.Errorf(ctx, "internal.storage.postgres.CreateTweet: %v", err)
		return model.Tweet{}, errors.Wrap(err, "insert tweet")
	}
	return tweet, nil
}

func (s *Store) GetTweetCount(ctx context.Context, disasterID int) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tweets WHERE disaster_id = $1`, disasterID,
	).Scan(&count)
	if err != nil {
		s.l.Errorf(ctx, "internal.storage.postgres.GetTweetCount: %v", err)
		return 0, errors.Wrap(err, "count tweets")
	}
	return count, nil
}

func (s *Store) GetAlertsByDisasterID(ctx context.Context, disasterID int) ([]model.Alert, error) {
	const query = `
		SELECT id, disaster_id, message, level, timestamp, is_read
		FROM alerts WHERE disaster_id = $1 ORDER BY timestamp DESC`

	rows, err := s.db.QueryContext(ctx, query, disasterID)
	if err != nil {
		s.l.Errorf(ctx, "internal.storage.postgres.GetAlertsByDisasterID: %v", err)
		return nil, errors.Wrap(err, "query alerts")
	}
	defer rows.Close()

	var alerts []model.Alert
	for rows.Next() {
		var a model.Alert
		if err := rows.Scan(&a.ID, &a.DisasterID, &a.Message, &a.Level, &a.Timestamp, &a.IsRead); err != nil {
			return nil, errors.Wrap(err, "scan alert")
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (s *Store) CreateAlert(ctx context.Context, alert model.Alert) (model.Alert, error) {
	const query = `
		INSERT INTO alerts (disaster_id, message, level, timestamp, is_read)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`

	err := s.db.QueryRowContext(ctx, query,
		alert.DisasterID, alert.Message, alert.Level, alert.Timestamp, alert.IsRead,
	).Scan(&alert.ID)
	if err != nil {
		s.l.Errorf(ctx, "internal.storage.postgres.CreateAlert: %v", err)
		return model.Alert{}, errors.Wrap(err, "insert alert")
	}
	return alert, nil
}

func (s *Store) MarkAlertRead(ctx context.Context, id int) (model.Alert, error) {
	const query = `
		UPDATE alerts SET is_read = TRUE WHERE id = $1
		RETURNING id, disaster_id, message, level, timestamp, is_read`

	var a model.Alert
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.DisasterID, &a.Message, &a.Level, &a.Timestamp, &a.IsRead,
	)
	if err == sql.ErrNoRows {
		return model.Alert{}, storage.ErrNotFound
	}
	if err != nil {
		s.l.Errorf(ctx, "internal.storage.postgres.MarkAlertRead: %v", err)
		return model.Alert{}, errors.Wrap(err, "mark alert read")
	}
	return a, nil
}

func (s *Store) GetTrendingTopicsByDisasterID(ctx context.Context, disasterID int) ([]model.TrendingTopic, error) {
	const query = `
		SELECT id, disaster_id, topic, count, percentage_change, timestamp
		FROM trending_topics WHERE disaster_id = $1
		ORDER BY CAST(percentage_change AS INTEGER) DESC`

	rows, err := s.db.QueryContext(ctx, query, disasterID)
	if err != nil {
		s.l.Errorf(ctx, "internal.storage.postgres.GetTrendingTopicsByDisasterID: %v", err)
		return nil, errors.Wrap(err, "query trending topics")
	}
	defer rows.Close()

	var topics []model.TrendingTopic
	for rows.Next() {
		var t model.TrendingTopic
		if err := rows.Scan(&t.ID, &t.DisasterID, &t.Topic, &t.Count, &t.PercentageChange, &t.Timestamp); err != nil {
			return nil, errors.Wrap(err, "scan trending topic")
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

func (s *Store) CreateTrendingTopic(ctx context.Context, topic model.TrendingTopic) (model.TrendingTopic, error) {
	const query = `
		INSERT INTO trending_topics (disaster_id, topic, count, percentage_change, timestamp)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`

	err := s.db.QueryRowContext(ctx, query,
		topic.DisasterID, topic.Topic, topic.Count, topic.PercentageChange, topic.Timestamp,
	).Scan(&topic.ID)
	if err != nil {
		s.l.Errorf(ctx, "internal.storage.postgres.CreateTrendingTopic: %v", err)
		return model.TrendingTopic{}, errors.Wrap(err, "insert trending topic")
	}
	return topic, nil
}

func (s *Store) UpdateTrendingTopic(ctx context.Context, id, count int, percentageChange string) (model.TrendingTopic, error) {
	const query = `
		UPDATE trending_topics SET count = $2, percentage_change = $3 WHERE id = $1
		RETURNING id, disaster_id, topic, count, percentage_change, timestamp`

	var t model.TrendingTopic
	err := s.db.QueryRowContext(ctx, query, id, count, percentageChange).Scan(
		&t.ID, &t.DisasterID, &t.Topic, &t.Count, &t.PercentageChange, &t.Timestamp,
	)
	if err == sql.ErrNoRows {
		return model.TrendingTopic{}, storage.ErrNotFound
	}
	if err != nil {
		s.l.Errorf(ctx, "internal.storage.postgres.UpdateTrendingTopic: %v", err)
		return model.TrendingTopic{}, errors.Wrap(err, "update trending topic")
	}
	return t, nil
}
