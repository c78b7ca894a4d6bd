package domain

import (
	"github.com/shopspring/decimal"
)

// SalaryPayment records one month's salary disbursement for a staff member.
// (StaffID, Month, Year) is unique: a second payment for the same period is a
// conflict, never an overwrite. Immutable once created; payroll corrections
// require a new compensating entry.
type SalaryPayment struct {
	PaymentID  string          `json:"paymentID"` // Primary key (UUID)
	DocNumber  string          `json:"docNumber"`
	StaffID    string          `json:"staffID"`
	Month      int             `json:"month"` // 1..12
	Year       int             `json:"year"`
	BaseSalary decimal.Decimal `json:"baseSalary"`
	EmployeePF decimal.Decimal `json:"employeePF"` // Deducted from the employee
	EmployerPF decimal.Decimal `json:"employerPF"` // Contributed on top by the employer
	NetSalary  decimal.Decimal `json:"netSalary"`  // baseSalary - employeePF
	Total      decimal.Decimal `json:"total"`      // baseSalary + employerPF, drawn from the paying account
	AccountID  string          `json:"accountID"`  // Paying account
	TxnID      string          `json:"txnID"`      // Underlying ledger expense transaction
	AuditFields
}

// PFTransactionType classifies provident fund ledger entries.
type PFTransactionType string

const (
	PFContribution PFTransactionType = "CONTRIBUTION"
	PFOpening      PFTransactionType = "OPENING"
	PFWithdrawal   PFTransactionType = "WITHDRAWAL"
)

// ProvidentFundTransaction is a satellite ledger of cumulative PF balance per
// staff member, independent of Account balances.
type ProvidentFundTransaction struct {
	PFTxnID        string            `json:"pfTxnID"` // Primary key (UUID)
	StaffID        string            `json:"staffID"`
	Type           PFTransactionType `json:"type"`
	EmployeeAmount decimal.Decimal   `json:"employeeAmount"`
	EmployerAmount decimal.Decimal   `json:"employerAmount"`
	Month          int               `json:"month"`
	Year           int               `json:"year"`
	SalaryID       *string           `json:"salaryID,omitempty"` // Set for contribution entries
	AuditFields
}

// TotalAmount is the combined employee and employer movement of this entry.
// Withdrawals count against the balance; everything else adds to it.
func (p *ProvidentFundTransaction) TotalAmount() decimal.Decimal {
	sum := p.EmployeeAmount.Add(p.EmployerAmount)
	if p.Type == PFWithdrawal {
		return sum.Neg()
	}
	return sum
}
