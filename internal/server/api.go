package server

import (
	"net/http"
	"strconv"

	"github.com/friendsofgo/errors"
	"github.com/gin-gonic/gin"

	"crisiswatch/internal/model"
	"crisiswatch/internal/storage"
	"crisiswatch/pkg/log"
)

// apiHandler serves the dashboard REST API.
type apiHandler struct {
	store  storage.Store
	logger log.Logger
}

func newAPIHandler(store storage.Store, logger log.Logger) *apiHandler {
	return &apiHandler{store: store, logger: logger}
}

func (h *apiHandler) setupRoutes(api *gin.RouterGroup) {
	api.GET("/disasters", h.listDisasters)
	api.GET("/disasters/:id", h.getDisaster)
	api.GET("/disasters/:id/keywords", h.listKeywords)
	api.POST("/disasters/:id/keywords", h.createKeyword)
	api.GET("/disasters/:id/tweets", h.listTweets)
	api.GET("/disasters/:id/tweets/count", h.getTweetCount)
	api.GET("/disasters/:id/alerts", h.listAlerts)
	api.GET("/disasters/:id/trending-topics", h.listTrendingTopics)
	api.PATCH("/keywords/:id", h.updateKeyword)
	api.DELETE("/keywords/:id", h.deleteKeyword)
	api.PATCH("/alerts/:id/read", h.markAlertRead)
}

func (h *apiHandler) listDisasters(c *gin.Context) {
	disasters, err := h.store.GetActiveDisasters(c.Request.Context())
	if err != nil {
		h.logger.Errorf(c.Request.Context(), "internal.server.apiHandler.listDisasters: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch disasters"})
		return
	}
	c.JSON(http.StatusOK, disasters)
}

func (h *apiHandler) getDisaster(c *gin.Context) {
	id, ok := pathID(c, "Invalid disaster ID")
	if !ok {
		return
	}

	disaster, err := h.store.GetDisaster(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Disaster not found"})
			return
		}
		h.logger.Errorf(c.Request.Context(), "internal.server.apiHandler.getDisaster: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch disaster"})
		return
	}
	c.JSON(http.StatusOK, disaster)
}

func (h *apiHandler) listKeywords(c *gin.Context) {
	id, ok := pathID(c, "Invalid disaster ID")
	if !ok {
		return
	}

	keywords, err := h.store.GetKeywordsByDisasterID(c.Request.Context(), id)
	if err != nil {
		h.logger.Errorf(c.Request.Context(), "internal.server.apiHandler.listKeywords: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch keywords"})
		return
	}
	c.JSON(http.StatusOK, keywords)
}

type createKeywordRequest struct {
	Keyword   string `json:"keyword" binding:"required"`
	IsHashtag bool   `json:"isHashtag"`
	IsActive  *bool  `json:"isActive"`
}

func (h *apiHandler) createKeyword(c *gin.Context) {
	id, ok := pathID(c, "Invalid disaster ID")
	if !ok {
		return
	}

	if _, err := h.store.GetDisaster(c.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Disaster not found"})
			return
		}
		h.logger.Errorf(c.Request.Context(), "internal.server.apiHandler.createKeyword: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create keyword"})
		return
	}

	var req createKeywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid keyword data"})
		return
	}

	// New keywords default to active unless explicitly disabled.
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	keyword, err := h.store.CreateKeyword(c.Request.Context(), model.Keyword{
		DisasterID: id,
		Keyword:    req.Keyword,
		IsHashtag:  req.IsHashtag,
		IsActive:   isActive,
	})
	if err != nil {
		h.logger.Errorf(c.Request.Context(), "internal.server.apiHandler.createKeyword: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create keyword"})
		return
	}
	c.JSON(http.StatusCreated, keyword)
}

type updateKeywordRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

func (h *apiHandler) updateKeyword(c *gin.Context) {
	id, ok := pathID(c, "Invalid keyword ID")
	if !ok {
		return
	}

	var req updateKeywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	keyword, err := h.store.UpdateKeyword(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Keyword not found"})
			return
		}
		h.logger.Errorf(c.Request.Context(), "internal.server.apiHandler.updateKeyword: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update keyword"})
		return
	}
	c.JSON(http.StatusOK, keyword)
}

func (h *apiHandler) deleteKeyword(c *gin.Context) {
	id, ok := pathID(c, "Invalid keyword ID")
	if !ok {
		return
	}

	if err := h.store.DeleteKeyword(c.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Keyword not found"})
			return
		}
		h.logger.Errorf(c.Request.Context(), "internal.server.apiHandler.deleteKeyword: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete keyword"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *apiHandler) listTweets(c *gin.Context) {
	id, ok := pathID(c, "Invalid disaster ID")
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid limit"})
			return
		}
		limit = parsed
	}

	tweets, err := h.store.GetTweetsByDisasterID(c.Request.Context(), id, limit)
	if err != nil {
		h.logger.Errorf(c.Request.Context(), "internal.server.apiHandler.listTweets: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch tweets"})
		return
	}
	c.JSON(http.StatusOK, tweets)
}

func (h *apiHandler) getTweetCount(c *gin.Context) {
	id, ok := pathID(c, "Invalid disaster ID")
	if !ok {
		return
	}

	count, err := h.store.GetTweetCount(c.Request.Context(), id)
	if err != nil {
		h.logger.Errorf(c.Request.Context(), "internal.server.apiHandler.getTweetCount: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch tweet count"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *apiHandler) listAlerts(c *gin.Context) {
	id, ok := pathID(c, "Invalid disaster ID")
	if !ok {
		return
	}

	alerts, err := h.store.GetAlertsByDisasterID(c.Request.Context(), id)
	if err != nil {
		h.logger.Errorf(c.Request.Context(), "internal.server.apiHandler.listAlerts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch alerts"})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (h *apiHandler) markAlertRead(c *gin.Context) {
	id, ok := pathID(c, "Invalid alert ID")
	if !ok {
		return
	}

	alert, err := h.store.MarkAlertRead(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Alert not found"})
			return
		}
		h.logger.Errorf(c.Request.Context(), "internal.server.apiHandler.markAlertRead: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to mark alert as read"})
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *apiHandler) listTrendingTopics(c *gin.Context) {
	id, ok := pathID(c, "Invalid disaster ID")
	if !ok {
		return
	}

	topics, err := h.store.GetTrendingTopicsByDisasterID(c.Request.Context(), id)
	if err != nil {
		h.logger.Errorf(c.Request.Context(), "internal.server.apiHandler.listTrendingTopics: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch trending topics"})
		return
	}
	c.JSON(http.StatusOK, topics)
}

// pathID parses the :id path parameter, replying 400 with the given message
// when it is not a positive integer.
func pathID(c *gin.Context, badRequestMessage string) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": badRequestMessage})
		return 0, false
	}
	return id, true
}
