package dto

import (
	"time"

	"github.com/edusuite/school_finance_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PaySalaryRequest disburses one staff member's salary for a period. PFRate
// overrides the configured provident fund rate when set.
type PaySalaryRequest struct {
	StaffID    string           `json:"staffID" binding:"required"`
	Month      int              `json:"month" binding:"required,min=1,max=12"`
	Year       int              `json:"year" binding:"required,min=2000"`
	BaseSalary decimal.Decimal  `json:"baseSalary" binding:"required"`
	AccountID  string           `json:"accountID" binding:"required"`
	PFRate     *decimal.Decimal `json:"pfRate,omitempty"`
}

// BulkSalaryItem is one staff member's entry in a bulk payroll run.
type BulkSalaryItem struct {
	StaffID    string          `json:"staffID" binding:"required"`
	BaseSalary decimal.Decimal `json:"baseSalary" binding:"required"`
}

// PayBulkSalaryRequest runs payroll for several staff members. Items are
// independent: one failure does not roll back the others.
type PayBulkSalaryRequest struct {
	Month     int              `json:"month" binding:"required,min=1,max=12"`
	Year      int              `json:"year" binding:"required,min=2000"`
	AccountID string           `json:"accountID" binding:"required"`
	PFRate    *decimal.Decimal `json:"pfRate,omitempty"`
	Items     []BulkSalaryItem `json:"items" binding:"required,min=1,dive"`
}

// BulkSalaryResult reports the outcome for one staff member of a bulk run.
type BulkSalaryResult struct {
	StaffID string                 `json:"staffID"`
	Payment *SalaryPaymentResponse `json:"payment,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// RecordPFEntryRequest records a standalone provident fund opening balance or
// withdrawal for a staff member.
type RecordPFEntryRequest struct {
	StaffID        string                   `json:"staffID" binding:"required"`
	Type           domain.PFTransactionType `json:"type" binding:"required,oneof=OPENING WITHDRAWAL"`
	EmployeeAmount decimal.Decimal          `json:"employeeAmount"`
	EmployerAmount decimal.Decimal          `json:"employerAmount"`
	Month          int                      `json:"month" binding:"required,min=1,max=12"`
	Year           int                      `json:"year" binding:"required,min=2000"`
}

// SalaryPaymentResponse is the API representation of a salary payment.
type SalaryPaymentResponse struct {
	PaymentID  string          `json:"paymentID"`
	DocNumber  string          `json:"docNumber"`
	StaffID    string          `json:"staffID"`
	Month      int             `json:"month"`
	Year       int             `json:"year"`
	BaseSalary decimal.Decimal `json:"baseSalary"`
	EmployeePF decimal.Decimal `json:"employeePF"`
	EmployerPF decimal.Decimal `json:"employerPF"`
	NetSalary  decimal.Decimal `json:"netSalary"`
	Total      decimal.Decimal `json:"total"`
	AccountID  string          `json:"accountID"`
	TxnID      string          `json:"txnID"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// ToSalaryPaymentResponse converts a domain salary payment.
func ToSalaryPaymentResponse(p *domain.SalaryPayment) SalaryPaymentResponse {
	return SalaryPaymentResponse{
		PaymentID:  p.PaymentID,
		DocNumber:  p.DocNumber,
		StaffID:    p.StaffID,
		Month:      p.Month,
		Year:       p.Year,
		BaseSalary: p.BaseSalary,
		EmployeePF: p.EmployeePF,
		EmployerPF: p.EmployerPF,
		NetSalary:  p.NetSalary,
		Total:      p.Total,
		AccountID:  p.AccountID,
		TxnID:      p.TxnID,
		CreatedAt:  p.CreatedAt,
	}
}
