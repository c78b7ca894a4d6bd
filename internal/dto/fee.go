package dto

import (
	"time"

	"github.com/edusuite/school_finance_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BillFeeRequest bills a fee to a student for a month/year period. Any active
// waiver is applied and snapshotted into the total at billing time.
type BillFeeRequest struct {
	StudentID string          `json:"studentID" binding:"required"`
	FeeType   string          `json:"feeType" binding:"required"`
	Month     int             `json:"month" binding:"required,min=1,max=12"`
	Year      int             `json:"year" binding:"required,min=2000"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	LateFee   decimal.Decimal `json:"lateFee"`
	DueDate   time.Time       `json:"dueDate" binding:"required"`
}

// RecordFeePaymentRequest records a (possibly partial) payment against a fee
// collection, crediting the given account.
type RecordFeePaymentRequest struct {
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Method         string          `json:"method" binding:"required"`
	AccountID      string          `json:"accountID" binding:"required"`
	PaymentDate    time.Time       `json:"paymentDate"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty"`
}

// CreateWaiverRequest grants a student a fee discount within a validity window.
type CreateWaiverRequest struct {
	StudentID  string            `json:"studentID" binding:"required"`
	FeeType    string            `json:"feeType"`
	WaiverType domain.WaiverType `json:"waiverType" binding:"required,oneof=PERCENTAGE FIXED"`
	Value      decimal.Decimal   `json:"value" binding:"required"`
	ValidFrom  time.Time         `json:"validFrom" binding:"required"`
	ValidUntil time.Time         `json:"validUntil" binding:"required"`
}

// FeeCollectionResponse is the API representation of a fee collection.
type FeeCollectionResponse struct {
	CollectionID  string           `json:"collectionID"`
	ReceiptNumber string           `json:"receiptNumber"`
	StudentID     string           `json:"studentID"`
	FeeType       string           `json:"feeType"`
	Month         int              `json:"month"`
	Year          int              `json:"year"`
	Amount        decimal.Decimal  `json:"amount"`
	LateFee       decimal.Decimal  `json:"lateFee"`
	Discount      decimal.Decimal  `json:"discount"`
	Total         decimal.Decimal  `json:"total"`
	PaidAmount    decimal.Decimal  `json:"paidAmount"`
	Remaining     decimal.Decimal  `json:"remaining"`
	DueDate       time.Time        `json:"dueDate"`
	Status        domain.FeeStatus `json:"status"`
	LastTxnID     *string          `json:"lastTxnID,omitempty"`
}

// ToFeeCollectionResponse converts a domain fee collection.
func ToFeeCollectionResponse(c *domain.FeeCollection) FeeCollectionResponse {
	return FeeCollectionResponse{
		CollectionID:  c.CollectionID,
		ReceiptNumber: c.ReceiptNumber,
		StudentID:     c.Student.ID,
		FeeType:       c.FeeType,
		Month:         c.Month,
		Year:          c.Year,
		Amount:        c.Amount,
		LateFee:       c.LateFee,
		Discount:      c.Discount,
		Total:         c.Total,
		PaidAmount:    c.PaidAmount,
		Remaining:     c.Remaining(),
		DueDate:       c.DueDate,
		Status:        c.Status,
		LastTxnID:     c.LastTxnID,
	}
}
