package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/iamasit07/blokus-client/internal/domain"
	"github.com/iamasit07/blokus-client/internal/service/game"
	"github.com/iamasit07/blokus-client/internal/transport/http/middleware"
)

const (
	defaultResultLimit = 20
	maxResultLimit     = 100
)

// ResultLister is the read side of the results store.
type ResultLister interface {
	RecentResults(ctx context.Context, limit int) ([]domain.GameRecord, error)
}

type WatchHandler struct {
	Tracker *game.StatusTracker
	Results ResultLister
	logger  *zap.Logger
}

func NewWatchHandler(tracker *game.StatusTracker, results ResultLister, logger *zap.Logger) *WatchHandler {
	return &WatchHandler{Tracker: tracker, Results: results, logger: logger}
}

func (h *WatchHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetSession returns the live view of the running session.
func (h *WatchHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.Tracker.Status())
}

// GetResults lists stored results, newest first. ?limit= caps the count.
func (h *WatchHandler) GetResults(c *gin.Context) {
	if h.Results == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "result storage is not configured"})
		return
	}

	limit := defaultResultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxResultLimit)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	results, err := h.Results.RecentResults(ctx, limit)
	if err != nil {
		h.logger.Error("failed to fetch results", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch results"})
		return
	}
	if results == nil {
		results = []domain.GameRecord{}
	}
	c.JSON(http.StatusOK, results)
}

// NewRouter wires the watch surface. ws may be nil to leave out /ws.
func NewRouter(h *WatchHandler, ws http.HandlerFunc, allowedOrigins []string, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))
	router.Use(middleware.CORSMiddleware(allowedOrigins, logger))

	router.GET("/health", h.Health)
	router.GET("/api/session", h.GetSession)
	router.GET("/api/results", h.GetResults)
	if ws != nil {
		router.GET("/ws", gin.WrapF(ws))
	}
	return router
}
