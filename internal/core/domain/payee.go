package domain

import "fmt"

// PayeeKind discriminates the parties that can owe or receive money.
type PayeeKind string

const (
	PayeeStudent PayeeKind = "STUDENT"
	PayeeStaff   PayeeKind = "STAFF"
)

// Payee is a tagged reference to a student or staff member.
// Fee collections bill students; salaries and welfare loans go to staff.
type Payee struct {
	Kind PayeeKind `json:"kind"`
	ID   string    `json:"id"`
}

// Validate checks the payee carries a known kind and a non-empty ID.
func (p Payee) Validate() error {
	switch p.Kind {
	case PayeeStudent, PayeeStaff:
	default:
		return fmt.Errorf("unknown payee kind %q", p.Kind)
	}
	if p.ID == "" {
		return fmt.Errorf("payee ID is required")
	}
	return nil
}
