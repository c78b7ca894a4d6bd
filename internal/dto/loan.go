package dto

import (
	"time"

	"github.com/edusuite/school_finance_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateLoanRequest disburses a staff welfare loan and creates its monthly
// installment schedule in one unit.
type CreateLoanRequest struct {
	StaffID              string          `json:"staffID" binding:"required"`
	AccountID            string          `json:"accountID" binding:"required"`
	Principal            decimal.Decimal `json:"principal" binding:"required"`
	InstallmentCount     int             `json:"installmentCount" binding:"required,min=1"`
	LoanDate             time.Time       `json:"loanDate" binding:"required"`
	FirstInstallmentDate time.Time       `json:"firstInstallmentDate" binding:"required"`
	Reason               string          `json:"reason"`
}

// UpdateLoanRequest edits loan terms. Only permitted while nothing has been
// repaid; afterwards the schedule is immutable and corrections go through
// cancel and recreate.
type UpdateLoanRequest struct {
	Principal            *decimal.Decimal `json:"principal,omitempty"`
	InstallmentCount     *int             `json:"installmentCount,omitempty"`
	FirstInstallmentDate *time.Time       `json:"firstInstallmentDate,omitempty"`
}

// PayInstallmentRequest settles one pending installment, crediting the
// chosen account.
type PayInstallmentRequest struct {
	AccountID      string    `json:"accountID" binding:"required"`
	Method         string    `json:"method" binding:"required"`
	PaymentDate    time.Time `json:"paymentDate"`
	IdempotencyKey string    `json:"idempotencyKey,omitempty"`
}

// LoanResponse is the API representation of a staff welfare loan.
type LoanResponse struct {
	LoanID               string                `json:"loanID"`
	DocNumber            string                `json:"docNumber"`
	StaffID              string                `json:"staffID"`
	AccountID            string                `json:"accountID"`
	Principal            decimal.Decimal       `json:"principal"`
	InstallmentCount     int                   `json:"installmentCount"`
	InstallmentAmount    decimal.Decimal       `json:"installmentAmount"`
	TotalPaid            decimal.Decimal       `json:"totalPaid"`
	RemainingAmount      decimal.Decimal       `json:"remainingAmount"`
	LoanDate             time.Time             `json:"loanDate"`
	FirstInstallmentDate time.Time             `json:"firstInstallmentDate"`
	Status               domain.LoanStatus     `json:"status"`
	Installments         []InstallmentResponse `json:"installments,omitempty"`
}

// InstallmentResponse is the API representation of one installment.
type InstallmentResponse struct {
	InstallmentID string                   `json:"installmentID"`
	LoanID        string                   `json:"loanID"`
	Number        int                      `json:"number"`
	Amount        decimal.Decimal          `json:"amount"`
	DueDate       time.Time                `json:"dueDate"`
	Status        domain.InstallmentStatus `json:"status"`
	Overdue       bool                     `json:"overdue"`
	PaidDate      *time.Time               `json:"paidDate,omitempty"`
	PaymentTxnID  *string                  `json:"paymentTxnID,omitempty"`
}

// ToLoanResponse converts a domain loan and optional schedule.
func ToLoanResponse(l *domain.StaffWelfareLoan, installments []domain.LoanInstallment, asOf time.Time) LoanResponse {
	resp := LoanResponse{
		LoanID:               l.LoanID,
		DocNumber:            l.DocNumber,
		StaffID:              l.StaffID,
		AccountID:            l.AccountID,
		Principal:            l.Principal,
		InstallmentCount:     l.InstallmentCount,
		InstallmentAmount:    l.InstallmentAmount,
		TotalPaid:            l.TotalPaid,
		RemainingAmount:      l.RemainingAmount,
		LoanDate:             l.LoanDate,
		FirstInstallmentDate: l.FirstInstallmentDate,
		Status:               l.Status,
	}
	for i := range installments {
		resp.Installments = append(resp.Installments, ToInstallmentResponse(&installments[i], asOf))
	}
	return resp
}

// ToInstallmentResponse converts a domain installment.
func ToInstallmentResponse(ins *domain.LoanInstallment, asOf time.Time) InstallmentResponse {
	return InstallmentResponse{
		InstallmentID: ins.InstallmentID,
		LoanID:        ins.LoanID,
		Number:        ins.Number,
		Amount:        ins.Amount,
		DueDate:       ins.DueDate,
		Status:        ins.Status,
		Overdue:       ins.IsOverdue(asOf),
		PaidDate:      ins.PaidDate,
		PaymentTxnID:  ins.PaymentTxnID,
	}
}
