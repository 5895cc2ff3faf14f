package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crisiswatch/internal/model"
	"crisiswatch/internal/storage"
)

func TestDisasterLifecycle(t *testing.T) {
	ctx := context.Background()
	store := New()

	_, err := store.GetDisaster(ctx, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	created, err := store.CreateDisaster(ctx, model.Disaster{
		Name: "Hurricane Florence", Type: "hurricane", Status: "active",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)

	created.Status = "resolved"
	updated, err := store.UpdateDisaster(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "resolved", updated.Status)

	// Resolved disasters drop out of the active list.
	active, err := store.GetActiveDisasters(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = store.UpdateDisaster(ctx, model.Disaster{ID: 42})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestKeywordLifecycle(t *testing.T) {
	ctx := context.Background()
	store := New()

	keyword, err := store.CreateKeyword(ctx, model.Keyword{
		DisasterID: 1, Keyword: "flood", IsActive: true,
	})
	require.NoError(t, err)

	toggled, err := store.UpdateKeyword(ctx, keyword.ID, false)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	require.NoError(t, store.DeleteKeyword(ctx, keyword.ID))
	assert.ErrorIs(t, store.DeleteKeyword(ctx, keyword.ID), storage.ErrNotFound)

	keywords, err := store.GetKeywordsByDisasterID(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, keywords)
}

func TestTweetsNewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	store := New()

	base := time.Now()
	for i := 0; i < 5; i++ {
		_, err := store.CreateTweet(ctx, model.Tweet{
			TweetID:    fmt.Sprintf("tw%d", i),
			DisasterID: 1,
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	tweets, err := store.GetTweetsByDisasterID(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, tweets, 3)
	assert.Equal(t, "tw4", tweets[0].TweetID)
	assert.Equal(t, "tw2", tweets[2].TweetID)

	count, err := store.GetTweetCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	// Non-positive limit falls back to the default.
	tweets, err = store.GetTweetsByDisasterID(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, tweets, 5)
}

func TestMarkAlertRead(t *testing.T) {
	ctx := context.Background()
	store := New()

	alert, err := store.CreateAlert(ctx, model.Alert{
		DisasterID: 1, Message: "test", Level: model.AlertLevelInfo,
	})
	require.NoError(t, err)
	assert.False(t, alert.IsRead)

	read, err := store.MarkAlertRead(ctx, alert.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	_, err = store.MarkAlertRead(ctx, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTrendingTopicsOrderedByPercentage(t *testing.T) {
	ctx := context.Background()
	store := New()

	_, err := store.CreateTrendingTopic(ctx, model.TrendingTopic{
		DisasterID: 1, Topic: "#A", Count: 10, PercentageChange: "40",
	})
	require.NoError(t, err)
	topic, err := store.CreateTrendingTopic(ctx, model.TrendingTopic{
		DisasterID: 1, Topic: "#B", Count: 10, PercentageChange: "90",
	})
	require.NoError(t, err)

	topics, err := store.GetTrendingTopicsByDisasterID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, "#B", topics[0].Topic)

	updated, err := store.UpdateTrendingTopic(ctx, topic.ID, 12, "110")
	require.NoError(t, err)
	assert.Equal(t, 12, updated.Count)
	assert.Equal(t, "110", updated.PercentageChange)
}

func TestSeedDemoData(t *testing.T) {
	ctx := context.Background()
	store := New()

	disaster, err := store.SeedDemoData(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hurricane Florence", disaster.Name)

	keywords, err := store.GetKeywordsByDisasterID(ctx, disaster.ID)
	require.NoError(t, err)
	assert.Len(t, keywords, 8)

	topics, err := store.GetTrendingTopicsByDisasterID(ctx, disaster.ID)
	require.NoError(t, err)
	require.Len(t, topics, 5)
	assert.Equal(t, "#NCEvac", topics[0].Topic)

	alerts, err := store.GetAlertsByDisasterID(ctx, disaster.ID)
	require.NoError(t, err)
	assert.Len(t, alerts, 3)
}
