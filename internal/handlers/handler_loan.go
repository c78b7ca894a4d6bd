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

// loanHandler handles HTTP requests for staff welfare loans.
type loanHandler struct {
	loanService portssvc.LoanSvcFacade
}

func newLoanHandler(loanService portssvc.LoanSvcFacade) *loanHandler {
	return &loanHandler{loanService: loanService}
}

func registerLoanRoutes(rg *gin.RouterGroup, loanService portssvc.LoanSvcFacade) {
	h := newLoanHandler(loanService)
	loans := rg.Group("/loans")
	{
		loans.POST("", h.createLoan)
		loans.GET("/:loanID", h.getLoan)
		loans.PUT("/:loanID", h.updateLoan)
		loans.POST("/:loanID/cancel", h.cancelLoan)
	}
	rg.POST("/installments/:installmentID/pay", h.payInstallment)
	rg.GET("/staff/:staffID/loans", h.listLoansByStaff)
}

func (h *loanHandler) createLoan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for createLoan", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	loan, err := h.loanService.CreateLoan(c.Request.Context(), req, creatorUserID)
	if err != nil {
		respondServiceError(c, logger, err, "create loan")
		return
	}

	logger.Info("Loan created", slog.String("loan_id", loan.LoanID), slog.String("staff_id", loan.StaffID))
	c.JSON(http.StatusCreated, dto.ToLoanResponse(loan, nil, time.Now()))
}

func (h *loanHandler) getLoan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Param("loanID")

	loan, installments, err := h.loanService.GetLoanByID(c.Request.Context(), loanID)
	if err != nil {
		respondServiceError(c, logger, err, "get loan")
		return
	}

	c.JSON(http.StatusOK, dto.ToLoanResponse(loan, installments, time.Now()))
}

func (h *loanHandler) listLoansByStaff(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	staffID := c.Param("staffID")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	loans, err := h.loanService.ListLoansByStaff(c.Request.Context(), staffID, limit, offset)
	if err != nil {
		respondServiceError(c, logger, err, "list loans")
		return
	}

	now := time.Now()
	responses := make([]dto.LoanResponse, len(loans))
	for i := range loans {
		responses[i] = dto.ToLoanResponse(&loans[i], nil, now)
	}
	c.JSON(http.StatusOK, gin.H{"loans": responses})
}

func (h *loanHandler) payInstallment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	installmentID := c.Param("installmentID")

	var req dto.PayInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for payInstallment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	installment, loan, err := h.loanService.PayInstallment(c.Request.Context(), installmentID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "pay installment")
		return
	}

	now := time.Now()
	c.JSON(http.StatusOK, gin.H{
		"installment": dto.ToInstallmentResponse(installment, now),
		"loan":        dto.ToLoanResponse(loan, nil, now),
	})
}

func (h *loanHandler) cancelLoan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Param("loanID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	loan, err := h.loanService.CancelLoan(c.Request.Context(), loanID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "cancel loan")
		return
	}

	logger.Info("Loan cancelled", slog.String("loan_id", loanID))
	c.JSON(http.StatusOK, dto.ToLoanResponse(loan, nil, time.Now()))
}

func (h *loanHandler) updateLoan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	loanID := c.Param("loanID")

	var req dto.UpdateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for updateLoan", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	loan, err := h.loanService.UpdateLoan(c.Request.Context(), loanID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "update loan")
		return
	}

	c.JSON(http.StatusOK, dto.ToLoanResponse(loan, nil, time.Now()))
}
