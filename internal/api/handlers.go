package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gnadela/immoeliza-analysis/internal/analysis"
	"github.com/gnadela/immoeliza-analysis/internal/database"
	"github.com/gnadela/immoeliza-analysis/internal/geometry"
	"github.com/gnadela/immoeliza-analysis/internal/models"
	"github.com/gnadela/immoeliza-analysis/internal/queue"
)

// Store is the read side of the database used by the API.
type Store interface {
	GetRun(id string) (*models.Run, error)
	ListRuns(limit int) ([]models.Run, error)
	GetListings(filter models.ListingFilter) ([]models.EnrichedListing, error)
	GetListingStats() (models.ListingStats, error)
	GetAreaStats(postalCode int64) (models.AreaStats, error)
}

// Enqueuer accepts pipeline run requests.
type Enqueuer interface {
	Push(req models.RunRequest) error
}

type Handler struct {
	db     Store
	runs   Enqueuer
	maps   *geometry.Builder
	logger *logrus.Logger
}

type ListingQuery struct {
	PostalCode   int64    `form:"postal_code"`
	PropertyType string   `form:"property_type"`
	MinPrice     *float64 `form:"min_price"`
	MaxPrice     *float64 `form:"max_price"`
	Limit        int      `form:"limit"`
}

// PostalCodesResponse carries the postal code medians and the map colour range.
type PostalCodesResponse struct {
	PropertyType string                   `json:"property_type"`
	PriceRange   [2]float64               `json:"price_range"`
	PostalCodes  []analysis.PostalSummary `json:"postal_codes"`
}

func NewHandler(db Store, runs Enqueuer, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		db:     db,
		runs:   runs,
		maps:   geometry.NewBuilder(logger),
		logger: logger,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// TriggerRun queues a pipeline run and answers before it executes.
func (h *Handler) TriggerRun(c *gin.Context) {
	req := models.RunRequest{
		ID:          uuid.NewString(),
		Trigger:     models.TriggerAPI,
		RequestedAt: time.Now().UTC(),
	}

	if err := h.runs.Push(req); err != nil {
		switch {
		case errors.Is(err, queue.ErrQueueFull):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many pending runs"})
		case errors.Is(err, queue.ErrQueueClosed):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Run queue is shutting down"})
		default:
			h.logger.WithError(err).Error("Failed to queue run")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue run"})
		}
		return
	}

	c.JSON(http.StatusAccepted, req)
}

func (h *Handler) ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	runs, err := h.db.ListRuns(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list runs"})
		return
	}

	c.JSON(http.StatusOK, runs)
}

func (h *Handler) GetRun(c *gin.Context) {
	run, err := h.db.GetRun(c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get run"})
		return
	}

	c.JSON(http.StatusOK, run)
}

func (h *Handler) GetListings(c *gin.Context) {
	var query ListingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing filter"})
		return
	}

	listings, err := h.db.GetListings(models.ListingFilter{
		PostalCode:   query.PostalCode,
		PropertyType: query.PropertyType,
		MinPrice:     query.MinPrice,
		MaxPrice:     query.MaxPrice,
		Limit:        query.Limit,
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to get listings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listings"})
		return
	}

	c.JSON(http.StatusOK, listings)
}

func (h *Handler) GetListingStats(c *gin.Context) {
	stats, err := h.db.GetListingStats()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get listing stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listing stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetAreaStats(c *gin.Context) {
	postalCode, err := strconv.ParseInt(c.Param("postal_code"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid postal code"})
		return
	}

	stats, err := h.db.GetAreaStats(postalCode)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No listings for postal code"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get area stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get area stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetBedroomDistribution(c *gin.Context) {
	listings, ok := h.modelListings(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, analysis.BedroomDistribution(listings))
}

func (h *Handler) GetPostalCodes(c *gin.Context) {
	summaries, propertyType, ok := h.postalSummaries(c)
	if !ok {
		return
	}
	low, high := analysis.PriceRange(summaries)

	c.JSON(http.StatusOK, PostalCodesResponse{
		PropertyType: propertyType,
		PriceRange:   [2]float64{low, high},
		PostalCodes:  summaries,
	})
}

func (h *Handler) GetPostalCodeMap(c *gin.Context) {
	summaries, _, ok := h.postalSummaries(c)
	if !ok {
		return
	}
	low, high := analysis.PriceRange(summaries)

	c.JSON(http.StatusOK, h.maps.PostalPoints(summaries, low, high))
}

func (h *Handler) GetPostalHulls(c *gin.Context) {
	listings, ok := h.modelListings(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.maps.PostalHulls(listings))
}

func (h *Handler) postalSummaries(c *gin.Context) ([]analysis.PostalSummary, string, bool) {
	listings, ok := h.modelListings(c)
	if !ok {
		return nil, "", false
	}
	propertyType := c.DefaultQuery("property_type", analysis.DefaultPropertyType)
	return analysis.PostalSummaries(listings, propertyType), propertyType, true
}

// modelListings loads the whole model table, answering 500 on failure.
func (h *Handler) modelListings(c *gin.Context) ([]models.EnrichedListing, bool) {
	listings, err := h.db.GetListings(models.ListingFilter{})
	if err != nil {
		h.logger.WithError(err).Error("Failed to get model listings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get model listings"})
		return nil, false
	}
	return listings, true
}
