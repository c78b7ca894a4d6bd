package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	portssvc "github.com/edusuite/school_finance_app/internal/core/ports/services"
	"github.com/edusuite/school_finance_app/internal/dto"
	"github.com/edusuite/school_finance_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// fundHandler handles HTTP requests for investor funds and welfare donations.
type fundHandler struct {
	fundService portssvc.FundSvcFacade
}

func newFundHandler(fundService portssvc.FundSvcFacade) *fundHandler {
	return &fundHandler{fundService: fundService}
}

func registerFundRoutes(rg *gin.RouterGroup, fundService portssvc.FundSvcFacade) {
	h := newFundHandler(fundService)
	funds := rg.Group("/funds")
	{
		funds.POST("", h.createFund)
		funds.GET("", h.listFunds)
		funds.GET("/:fundID", h.getFund)
		funds.POST("/:fundID/transactions", h.recordFundTransaction)
		funds.GET("/:fundID/transactions", h.listFundTransactions)
	}
	rg.POST("/donations", h.recordDonation)
}

func (h *fundHandler) createFund(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateFundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for createFund", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	fund, err := h.fundService.CreateFund(c.Request.Context(), req, creatorUserID)
	if err != nil {
		respondServiceError(c, logger, err, "create fund")
		return
	}

	c.JSON(http.StatusCreated, dto.ToFundResponse(fund))
}

func (h *fundHandler) getFund(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	fundID := c.Param("fundID")

	fund, err := h.fundService.GetFundByID(c.Request.Context(), fundID)
	if err != nil {
		respondServiceError(c, logger, err, "get fund")
		return
	}

	c.JSON(http.StatusOK, dto.ToFundResponse(fund))
}

func (h *fundHandler) listFunds(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	funds, err := h.fundService.ListFunds(c.Request.Context(), limit, offset)
	if err != nil {
		respondServiceError(c, logger, err, "list funds")
		return
	}

	responses := make([]dto.FundResponse, len(funds))
	for i := range funds {
		responses[i] = dto.ToFundResponse(&funds[i])
	}
	c.JSON(http.StatusOK, gin.H{"funds": responses})
}

func (h *fundHandler) recordFundTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	fundID := c.Param("fundID")

	var req dto.FundTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for recordFundTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	fundTxn, err := h.fundService.RecordFundTransaction(c.Request.Context(), fundID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "record fund transaction")
		return
	}

	logger.Info("Fund transaction recorded", slog.String("fund_id", fundID), slog.String("type", string(fundTxn.Type)))
	c.JSON(http.StatusCreated, fundTxn)
}

func (h *fundHandler) listFundTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	fundID := c.Param("fundID")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	fundTxns, err := h.fundService.ListFundTransactions(c.Request.Context(), fundID, limit, offset)
	if err != nil {
		respondServiceError(c, logger, err, "list fund transactions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": fundTxns})
}

func (h *fundHandler) recordDonation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.DonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for recordDonation", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	donation, err := h.fundService.RecordDonation(c.Request.Context(), req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "record donation")
		return
	}

	c.JSON(http.StatusCreated, donation)
}
