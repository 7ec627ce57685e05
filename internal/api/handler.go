package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ideahub/ideahub-server/internal/models"
	"github.com/ideahub/ideahub-server/internal/service"
)

// Handler holds the HTTP handlers for the idea engine
type Handler struct {
	service service.Service
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service) *Handler {
	return &Handler{
		service: svc,
	}
}

// SetupRoutes configures all the API routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api", AuthMiddleware())
	{
		api.POST("/ideas", h.SubmitIdea)
		api.GET("/ideas", h.ListIdeas)
		api.GET("/ideas/:id", h.GetIdea)
		api.POST("/ideas/:id/votes", h.CastVote)
		api.POST("/ideas/:id/transition", h.TransitionIdea)
	}
}

// SubmitIdea handles POST /api/ideas
func (h *Handler) SubmitIdea(c *gin.Context) {
	var req models.SubmitIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status:  "error",
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		})
		return
	}

	actor := ActorFromContext(c)

	idea, err := h.service.SubmitIdea(c.Request.Context(), actor.UserID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.IdeaResponse{
		Status: "success",
		Idea:   idea,
	})
}

// CastVote handles POST /api/ideas/:id/votes
func (h *Handler) CastVote(c *gin.Context) {
	var req models.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status:  "error",
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		})
		return
	}

	actor := ActorFromContext(c)

	receipt, err := h.service.CastVote(c.Request.Context(), actor.UserID, c.Param("id"), req.Weight)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CastVoteResponse{
		Status:              "success",
		WeightApplied:       receipt.WeightApplied,
		RemainingDailyQuota: receipt.RemainingDailyQuota,
	})
}

// TransitionIdea handles POST /api/ideas/:id/transition
func (h *Handler) TransitionIdea(c *gin.Context) {
	var req models.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status:  "error",
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		})
		return
	}

	actor := ActorFromContext(c)

	idea, err := h.service.TransitionIdea(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.IdeaResponse{
		Status: "success",
		Idea:   idea,
	})
}

// GetIdea handles GET /api/ideas/:id
func (h *Handler) GetIdea(c *gin.Context) {
	idea, err := h.service.GetIdea(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.IdeaResponse{
		Status: "success",
		Idea:   idea,
	})
}

// ListIdeas handles GET /api/ideas
func (h *Handler) ListIdeas(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	ideas, err := h.service.ListIdeas(c.Request.Context(), c.Query("status"), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.IdeaListResponse{
		Status: "success",
		Ideas:  ideas,
	})
}

// writeError maps the engine's error taxonomy onto HTTP. Every rejection
// tells the caller which invariant was violated; quota failures also carry
// the residual quota.
func writeError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	var quotaErr *models.QuotaExceededError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status:  "error",
			Code:    "VALIDATION_ERROR",
			Message: validationErr.Error(),
		})
	case errors.As(err, &quotaErr):
		remaining := quotaErr.Remaining
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
			Status:         "error",
			Code:           "QUOTA_EXCEEDED",
			Message:        quotaErr.Error(),
			RemainingQuota: &remaining,
		})
	case errors.Is(err, models.ErrIdeaNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Status:  "error",
			Code:    "NOT_FOUND",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrNotVotable):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Status:  "error",
			Code:    "NOT_VOTABLE",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrAlreadyVoted):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Status:  "error",
			Code:    "ALREADY_VOTED",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrTooManySubmissions):
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
			Status:  "error",
			Code:    "TOO_MANY_SUBMISSIONS",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrInvalidTransition):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Status:  "error",
			Code:    "INVALID_TRANSITION",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrAlreadyTransformed):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Status:  "error",
			Code:    "ALREADY_TRANSFORMED",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Status:  "error",
			Code:    "FORBIDDEN",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Status:  "error",
			Code:    "STORAGE_UNAVAILABLE",
			Message: "storage temporarily unavailable, retry later",
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Status:  "error",
			Code:    "INTERNAL_ERROR",
			Message: err.Error(),
		})
	}
}
