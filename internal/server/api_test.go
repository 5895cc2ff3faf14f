package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crisiswatch/internal/model"
	"crisiswatch/internal/storage/memory"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, args ...any)                    {}
func (nopLogger) Debugf(ctx context.Context, template string, args ...any)  {}
func (nopLogger) Info(ctx context.Context, args ...any)                     {}
func (nopLogger) Infof(ctx context.Context, template string, args ...any)   {}
func (nopLogger) Warn(ctx context.Context, args ...any)                     {}
func (nopLogger) Warnf(ctx context.Context, template string, args ...any)   {}
func (nopLogger) Error(ctx context.Context, args ...any)                    {}
func (nopLogger) Errorf(ctx context.Context, template string, args ...any)  {}
func (nopLogger) Fatal(ctx context.Context, args ...any)                    {}
func (nopLogger) Fatalf(ctx context.Context, template string, args ...any)  {}

func newTestAPI(t *testing.T) (*gin.Engine, *memory.Store, model.Disaster) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	disaster, err := store.SeedDemoData(context.Background())
	require.NoError(t, err)

	router := gin.New()
	api := newAPIHandler(store, nopLogger{})
	api.setupRoutes(router.Group("/api"))
	return router, store, disaster
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListDisasters(t *testing.T) {
	router, _, disaster := newTestAPI(t)

	w := doRequest(router, http.MethodGet, "/api/disasters", "")
	require.Equal(t, http.StatusOK, w.Code)

	var disasters []model.Disaster
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &disasters))
	require.Len(t, disasters, 1)
	assert.Equal(t, disaster.Name, disasters[0].Name)
}

func TestGetDisaster(t *testing.T) {
	router, _, disaster := newTestAPI(t)

	w := doRequest(router, http.MethodGet, fmt.Sprintf("/api/disasters/%d", disaster.ID), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/disasters/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodGet, "/api/disasters/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestKeywordCRUD(t *testing.T) {
	router, _, disaster := newTestAPI(t)

	// Create
	w := doRequest(router, http.MethodPost,
		fmt.Sprintf("/api/disasters/%d/keywords", disaster.ID),
		`{"keyword":"shelter","isHashtag":false}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created model.Keyword
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "shelter", created.Keyword)
	assert.True(t, created.IsActive)

	// Missing keyword field is rejected.
	w = doRequest(router, http.MethodPost,
		fmt.Sprintf("/api/disasters/%d/keywords", disaster.ID),
		`{"isHashtag":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown disaster.
	w = doRequest(router, http.MethodPost, "/api/disasters/999/keywords", `{"keyword":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Toggle
	w = doRequest(router, http.MethodPatch,
		fmt.Sprintf("/api/keywords/%d", created.ID), `{"isActive":false}`)
	require.Equal(t, http.StatusOK, w.Code)

	var toggled model.Keyword
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &toggled))
	assert.False(t, toggled.IsActive)

	// Delete
	w = doRequest(router, http.MethodDelete, fmt.Sprintf("/api/keywords/%d", created.ID), "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(router, http.MethodDelete, fmt.Sprintf("/api/keywords/%d", created.ID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTweetEndpoints(t *testing.T) {
	router, store, disaster := newTestAPI(t)

	for i := 0; i < 3; i++ {
		_, err := store.CreateTweet(context.Background(), model.Tweet{
			TweetID: fmt.Sprintf("tw%d", i), DisasterID: disaster.ID,
		})
		require.NoError(t, err)
	}

	w := doRequest(router, http.MethodGet,
		fmt.Sprintf("/api/disasters/%d/tweets?limit=2", disaster.ID), "")
	require.Equal(t, http.StatusOK, w.Code)

	var tweets []model.Tweet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tweets))
	assert.Len(t, tweets, 2)

	w = doRequest(router, http.MethodGet,
		fmt.Sprintf("/api/disasters/%d/tweets/count", disaster.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":3}`, w.Body.String())

	w = doRequest(router, http.MethodGet,
		fmt.Sprintf("/api/disasters/%d/tweets?limit=abc", disaster.ID), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkAlertRead(t *testing.T) {
	router, store, disaster := newTestAPI(t)

	alerts, err := store.GetAlertsByDisasterID(context.Background(), disaster.ID)
	require.NoError(t, err)
	require.NotEmpty(t, alerts)

	w := doRequest(router, http.MethodPatch,
		fmt.Sprintf("/api/alerts/%d/read", alerts[0].ID), "")
	require.Equal(t, http.StatusOK, w.Code)

	var alert model.Alert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alert))
	assert.True(t, alert.IsRead)

	w = doRequest(router, http.MethodPatch, "/api/alerts/999/read", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTrendingTopics(t *testing.T) {
	router, _, disaster := newTestAPI(t)

	w := doRequest(router, http.MethodGet,
		fmt.Sprintf("/api/disasters/%d/trending-topics", disaster.ID), "")
	require.Equal(t, http.StatusOK, w.Code)

	var topics []model.TrendingTopic
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &topics))
	assert.Len(t, topics, 5)
}
