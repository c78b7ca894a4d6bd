package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus is the lifecycle state of a staff welfare loan.
// active -> paid (all installments settled); active -> cancelled (no payments
// yet). No transition exits paid or cancelled.
type LoanStatus string

const (
	LoanActive    LoanStatus = "ACTIVE"
	LoanPaid      LoanStatus = "PAID"
	LoanCancelled LoanStatus = "CANCELLED"
)

// InstallmentStatus is the state of a single scheduled repayment.
type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "PENDING"
	InstallmentPaid    InstallmentStatus = "PAID"
)

// StaffWelfareLoan is an interest-free staff loan amortized into equal
// monthly installments. The loan and its schedule are created atomically
// with the disbursement transaction debiting the welfare fund account.
type StaffWelfareLoan struct {
	LoanID               string          `json:"loanID"` // Primary key (UUID)
	DocNumber            string          `json:"docNumber"`
	StaffID              string          `json:"staffID"`
	AccountID            string          `json:"accountID"` // Funding (welfare fund) account
	Principal            decimal.Decimal `json:"principal"`
	InstallmentCount     int             `json:"installmentCount"`
	InstallmentAmount    decimal.Decimal `json:"installmentAmount"` // Base per-installment amount; last absorbs remainder
	TotalPaid            decimal.Decimal `json:"totalPaid"`
	RemainingAmount      decimal.Decimal `json:"remainingAmount"` // principal - totalPaid
	LoanDate             time.Time       `json:"loanDate"`
	FirstInstallmentDate time.Time       `json:"firstInstallmentDate"`
	Status               LoanStatus      `json:"status"`
	DisbursementTxnID    string          `json:"disbursementTxnID"`
	Reason               string          `json:"reason"`
	AuditFields
}

// LoanInstallment is one scheduled repayment of a staff welfare loan.
// Overdue is a derived view (pending and due date passed), not a stored state.
type LoanInstallment struct {
	InstallmentID string            `json:"installmentID"` // Primary key (UUID)
	LoanID        string            `json:"loanID"`
	Number        int               `json:"number"` // 1-based position in the schedule
	Amount        decimal.Decimal   `json:"amount"`
	DueDate       time.Time         `json:"dueDate"`
	Status        InstallmentStatus `json:"status"`
	PaidDate      *time.Time        `json:"paidDate,omitempty"`
	PaymentTxnID  *string           `json:"paymentTxnID,omitempty"`
	PaymentMethod string            `json:"paymentMethod,omitempty"`
	AuditFields
}

// IsOverdue reports whether a pending installment is past its due date.
func (i *LoanInstallment) IsOverdue(asOf time.Time) bool {
	return i.Status == InstallmentPending && DateOnly(i.DueDate).Before(DateOnly(asOf))
}
