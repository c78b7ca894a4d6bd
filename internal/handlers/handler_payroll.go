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

// payrollHandler handles HTTP requests for salary payments and the provident
// fund ledger.
type payrollHandler struct {
	payrollService portssvc.PayrollSvcFacade
}

func newPayrollHandler(payrollService portssvc.PayrollSvcFacade) *payrollHandler {
	return &payrollHandler{payrollService: payrollService}
}

func registerPayrollRoutes(rg *gin.RouterGroup, payrollService portssvc.PayrollSvcFacade) {
	h := newPayrollHandler(payrollService)
	salaries := rg.Group("/salaries")
	{
		salaries.POST("", h.paySalary)
		salaries.POST("/bulk", h.payBulk)
		salaries.GET("/:staffID/:year/:month", h.getSalaryPayment)
	}
	pf := rg.Group("/provident-fund")
	{
		pf.POST("/entries", h.recordPFEntry)
		pf.GET("/:staffID/balance", h.getPFBalance)
	}
}

func (h *payrollHandler) paySalary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.PaySalaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for paySalary", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	payment, err := h.payrollService.PaySalary(c.Request.Context(), req, creatorUserID)
	if err != nil {
		respondServiceError(c, logger, err, "pay salary")
		return
	}

	logger.Info("Salary paid",
		slog.String("staff_id", payment.StaffID),
		slog.Int("month", payment.Month),
		slog.Int("year", payment.Year))
	c.JSON(http.StatusCreated, dto.ToSalaryPaymentResponse(payment))
}

func (h *payrollHandler) payBulk(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.PayBulkSalaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for payBulk", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	results, err := h.payrollService.PayBulk(c.Request.Context(), req, creatorUserID)
	if err != nil {
		respondServiceError(c, logger, err, "run bulk payroll")
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *payrollHandler) getSalaryPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	staffID := c.Param("staffID")

	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year"})
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month"})
		return
	}

	payment, err := h.payrollService.GetSalaryPayment(c.Request.Context(), staffID, month, year)
	if err != nil {
		respondServiceError(c, logger, err, "get salary payment")
		return
	}

	c.JSON(http.StatusOK, dto.ToSalaryPaymentResponse(payment))
}

func (h *payrollHandler) recordPFEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RecordPFEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for recordPFEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := h.payrollService.RecordPFEntry(c.Request.Context(), req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "record provident fund entry")
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *payrollHandler) getPFBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	staffID := c.Param("staffID")

	balance, err := h.payrollService.GetPFBalance(c.Request.Context(), staffID)
	if err != nil {
		respondServiceError(c, logger, err, "get provident fund balance")
		return
	}

	c.JSON(http.StatusOK, gin.H{"staffID": staffID, "balance": balance})
}
