package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeStatus is the lifecycle state of a fee collection.
type FeeStatus string

const (
	FeePending   FeeStatus = "PENDING"
	FeePartial   FeeStatus = "PARTIAL"
	FeePaid      FeeStatus = "PAID"
	FeeOverdue   FeeStatus = "OVERDUE"
	FeeCancelled FeeStatus = "CANCELLED"
)

// FeeCollection is a receivable tracked per student and period. It supports
// partial payment and waivers; the receipt number is allocated once at
// billing time and never reused, even after cancellation.
type FeeCollection struct {
	CollectionID  string          `json:"collectionID"` // Primary key (UUID)
	ReceiptNumber string          `json:"receiptNumber"`
	Student       Payee           `json:"student"` // Kind is always STUDENT
	FeeType       string          `json:"feeType"`
	Month         int             `json:"month"` // 1..12
	Year          int             `json:"year"`
	Amount        decimal.Decimal `json:"amount"`
	LateFee       decimal.Decimal `json:"lateFee"`
	Discount      decimal.Decimal `json:"discount"` // Waiver snapshot taken at billing time
	Total         decimal.Decimal `json:"total"`    // amount + lateFee - discount
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	DueDate       time.Time       `json:"dueDate"`
	Status        FeeStatus       `json:"status"`
	LastTxnID     *string         `json:"lastTxnID,omitempty"` // Ledger transaction of the latest cash receipt
	AuditFields
}

// Remaining returns the unpaid portion of the total.
func (c *FeeCollection) Remaining() decimal.Decimal {
	return c.Total.Sub(c.PaidAmount)
}

// ReconcileStatus recomputes the stored status from paid amount and due date.
// Must be called whenever PaidAmount changes. Cancelled is terminal.
func (c *FeeCollection) ReconcileStatus(asOf time.Time) {
	if c.Status == FeeCancelled {
		return
	}
	switch {
	case c.PaidAmount.Equal(c.Total):
		c.Status = FeePaid
	case c.PaidAmount.IsPositive():
		c.Status = FeePartial
	default:
		c.Status = FeePending
	}
	// A collection with money against it stays PARTIAL; only a fully
	// unpaid past-due collection flips to OVERDUE.
	if c.Status == FeePending && DateOnly(c.DueDate).Before(DateOnly(asOf)) {
		c.Status = FeeOverdue
	}
}

// WaiverType discriminates percentage and fixed-amount discounts.
type WaiverType string

const (
	WaiverPercentage WaiverType = "PERCENTAGE"
	WaiverFixed      WaiverType = "FIXED"
)

// FeeWaiver is a discount applied to a fee at billing time, valid within a
// calendar-date window. Waivers never retroactively change an already-billed
// total.
type FeeWaiver struct {
	WaiverID   string          `json:"waiverID"` // Primary key (UUID)
	Student    Payee           `json:"student"`
	FeeType    string          `json:"feeType"` // Empty matches any fee type
	WaiverType WaiverType      `json:"waiverType"`
	Value      decimal.Decimal `json:"value"` // Percentage (0..100) or fixed amount
	ValidFrom  time.Time       `json:"validFrom"`
	ValidUntil time.Time       `json:"validUntil"`
	IsActive   bool            `json:"isActive"`
	AuditFields
}

// AppliesOn reports whether the waiver is active for the given fee type on
// the given billing date.
func (w *FeeWaiver) AppliesOn(feeType string, on time.Time) bool {
	if !w.IsActive {
		return false
	}
	if w.FeeType != "" && w.FeeType != feeType {
		return false
	}
	d := DateOnly(on)
	return !d.Before(DateOnly(w.ValidFrom)) && !d.After(DateOnly(w.ValidUntil))
}

// DiscountOn computes the discount this waiver grants on the given amount,
// rounded to two decimal places and capped at the amount itself.
func (w *FeeWaiver) DiscountOn(amount decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch w.WaiverType {
	case WaiverPercentage:
		d = amount.Mul(w.Value).Div(decimal.NewFromInt(100)).Round(2)
	case WaiverFixed:
		d = w.Value
	}
	if d.GreaterThan(amount) {
		return amount
	}
	return d
}
