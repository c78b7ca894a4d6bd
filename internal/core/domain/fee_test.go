package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestReconcileStatus(t *testing.T) {
	asOf := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	pastDue := asOf.AddDate(0, 0, -5)
	futureDue := asOf.AddDate(0, 0, 5)

	tests := []struct {
		name    string
		paid    int64
		dueDate time.Time
		status  FeeStatus
		want    FeeStatus
	}{
		{"unpaid before due date stays pending", 0, futureDue, FeePending, FeePending},
		{"unpaid past due date goes overdue", 0, pastDue, FeePending, FeeOverdue},
		{"partially paid past due date stays partial", 1000, pastDue, FeePending, FeePartial},
		{"fully paid past due date is paid", 3000, pastDue, FeeOverdue, FeePaid},
		{"cancelled is terminal", 0, pastDue, FeeCancelled, FeeCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := FeeCollection{
				Total:      decimal.NewFromInt(3000),
				PaidAmount: decimal.NewFromInt(tt.paid),
				DueDate:    tt.dueDate,
				Status:     tt.status,
			}
			c.ReconcileStatus(asOf)
			assert.Equal(t, tt.want, c.Status)
		})
	}
}
