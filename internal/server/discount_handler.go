package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kkkkikiki/discount/internal/apperr"
	"github.com/kkkkikiki/discount/internal/service"
)

// DiscountHandler exposes the discount code endpoints
type DiscountHandler struct {
	allocator *service.Allocator
	generator *service.Generator
	logger    *zap.Logger
}

// NewDiscountHandler creates a new DiscountHandler instance
func NewDiscountHandler(allocator *service.Allocator, generator *service.Generator, logger *zap.Logger) *DiscountHandler {
	return &DiscountHandler{
		allocator: allocator,
		generator: generator,
		logger:    logger,
	}
}

type generateCodesRequest struct {
	DiscountCodesCount int `json:"discount_codes_count"`
}

type generateCodesResponse struct {
	JobID string `json:"job_id"`
}

// Fetch handles POST /discounts/:campaignId. 201 when a code is freshly
// allocated, 200 when the user's existing allocation is replayed.
func (h *DiscountHandler) Fetch(c *gin.Context) {
	campaignID, err := campaignIDParam(c)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}

	fetched, created, err := h.allocator.Fetch(c.Request.Context(), campaignID, currentUserID(c))
	if err != nil {
		renderError(c, h.logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, fetched)
}

// Get handles GET /discounts/:campaignId. Read-only: 404 when the user
// holds no code for the campaign.
func (h *DiscountHandler) Get(c *gin.Context) {
	campaignID, err := campaignIDParam(c)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}

	fetched, err := h.allocator.Get(c.Request.Context(), campaignID, currentUserID(c))
	if err != nil {
		renderError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, fetched)
}

// GenerateCodes handles POST /discounts/:campaignId/manage/generate-codes.
// Responds 202 with the job id; generation runs in the background.
func (h *DiscountHandler) GenerateCodes(c *gin.Context) {
	campaignID, err := campaignIDParam(c)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}

	var req generateCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, h.logger, apperr.Validation("invalid request body: %v", err))
		return
	}

	jobID, err := h.generator.Start(c.Request.Context(), campaignID, req.DiscountCodesCount)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusAccepted, generateCodesResponse{JobID: jobID})
}

func campaignIDParam(c *gin.Context) (int64, error) {
	campaignID, err := strconv.ParseInt(c.Param("campaignId"), 10, 64)
	if err != nil {
		return 0, apperr.Validation("invalid campaign id %q", c.Param("campaignId"))
	}
	return campaignID, nil
}
