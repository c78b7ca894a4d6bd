package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	portssvc "github.com/edusuite/school_finance_app/internal/core/ports/services"
	"github.com/edusuite/school_finance_app/internal/dto"
	"github.com/edusuite/school_finance_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// feeHandler handles HTTP requests for student fee collections and waivers.
type feeHandler struct {
	feeService portssvc.FeeSvcFacade
}

func newFeeHandler(feeService portssvc.FeeSvcFacade) *feeHandler {
	return &feeHandler{feeService: feeService}
}

func registerFeeRoutes(rg *gin.RouterGroup, feeService portssvc.FeeSvcFacade) {
	h := newFeeHandler(feeService)
	fees := rg.Group("/fees")
	{
		fees.POST("", h.billFee)
		fees.GET("/defaulters", h.listDefaulters)
		fees.GET("/:collectionID", h.getCollection)
		fees.POST("/:collectionID/payments", h.recordPayment)
		fees.POST("/:collectionID/cancel", h.cancelCollection)
	}
	rg.GET("/students/:studentID/fees", h.listCollectionsByStudent)
	rg.POST("/waivers", h.createWaiver)
}

func (h *feeHandler) billFee(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.BillFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for billFee", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	collection, err := h.feeService.BillFee(c.Request.Context(), req, creatorUserID)
	if err != nil {
		respondServiceError(c, logger, err, "bill fee")
		return
	}

	logger.Info("Fee billed", slog.String("collection_id", collection.CollectionID), slog.String("receipt_number", collection.ReceiptNumber))
	c.JSON(http.StatusCreated, dto.ToFeeCollectionResponse(collection))
}

func (h *feeHandler) recordPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	collectionID := c.Param("collectionID")

	var req dto.RecordFeePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for recordPayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	collection, err := h.feeService.RecordPayment(c.Request.Context(), collectionID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "record fee payment")
		return
	}

	c.JSON(http.StatusOK, dto.ToFeeCollectionResponse(collection))
}

func (h *feeHandler) cancelCollection(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	collectionID := c.Param("collectionID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	collection, err := h.feeService.CancelCollection(c.Request.Context(), collectionID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "cancel fee collection")
		return
	}

	c.JSON(http.StatusOK, dto.ToFeeCollectionResponse(collection))
}

func (h *feeHandler) getCollection(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	collectionID := c.Param("collectionID")

	collection, err := h.feeService.GetCollectionByID(c.Request.Context(), collectionID)
	if err != nil {
		respondServiceError(c, logger, err, "get fee collection")
		return
	}

	c.JSON(http.StatusOK, dto.ToFeeCollectionResponse(collection))
}

func (h *feeHandler) listCollectionsByStudent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	studentID := c.Param("studentID")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	collections, err := h.feeService.ListCollectionsByStudent(c.Request.Context(), studentID, limit, offset)
	if err != nil {
		respondServiceError(c, logger, err, "list fee collections")
		return
	}

	responses := make([]dto.FeeCollectionResponse, len(collections))
	for i := range collections {
		responses[i] = dto.ToFeeCollectionResponse(&collections[i])
	}
	c.JSON(http.StatusOK, gin.H{"collections": responses})
}

func (h *feeHandler) listDefaulters(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	asOf := time.Now()
	if v := c.Query("asOf"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asOf date, expected YYYY-MM-DD"})
			return
		}
		asOf = parsed
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	defaulters, err := h.feeService.ListDefaulters(c.Request.Context(), asOf, limit, offset)
	if err != nil {
		respondServiceError(c, logger, err, "list defaulters")
		return
	}

	responses := make([]dto.FeeCollectionResponse, len(defaulters))
	for i := range defaulters {
		responses[i] = dto.ToFeeCollectionResponse(&defaulters[i])
	}
	c.JSON(http.StatusOK, gin.H{"defaulters": responses})
}

func (h *feeHandler) createWaiver(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateWaiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for createWaiver", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	waiver, err := h.feeService.CreateWaiver(c.Request.Context(), req, creatorUserID)
	if err != nil {
		respondServiceError(c, logger, err, "create waiver")
		return
	}

	c.JSON(http.StatusCreated, waiver)
}
