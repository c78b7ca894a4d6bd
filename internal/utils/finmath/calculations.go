package finmath

import (
	"fmt"

	"github.com/edusuite/school_finance_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BalanceEffects computes the signed per-account balance deltas of a ledger
// transaction. Amounts are always positive; direction comes from the kind.
// Income credits the owning account, expense and asset purchase debit it, and
// a transfer debits the owning account and credits the counterpart. Both
// services and repositories use this to keep balance arithmetic consistent.
func BalanceEffects(txn domain.LedgerTransaction) (map[string]decimal.Decimal, error) {
	if !txn.Amount.IsPositive() {
		return nil, fmt.Errorf("transaction amount must be positive, got %s", txn.Amount.String())
	}

	effects := make(map[string]decimal.Decimal, 2)
	switch txn.Kind {
	case domain.Income:
		effects[txn.AccountID] = txn.Amount
	case domain.Expense, domain.AssetPurchase:
		effects[txn.AccountID] = txn.Amount.Neg()
	case domain.Transfer:
		if txn.CounterAccountID == "" {
			return nil, fmt.Errorf("transfer transaction %s has no counterpart account", txn.TransactionID)
		}
		if txn.CounterAccountID == txn.AccountID {
			return nil, fmt.Errorf("transfer transaction %s has identical source and counterpart", txn.TransactionID)
		}
		effects[txn.AccountID] = txn.Amount.Neg()
		effects[txn.CounterAccountID] = txn.Amount
	default:
		return nil, fmt.Errorf("unknown transaction kind %q for transaction %s", txn.Kind, txn.TransactionID)
	}
	return effects, nil
}

// InvertEffects negates every delta in a balance-effect map. Used when
// reversing a transaction.
func InvertEffects(effects map[string]decimal.Decimal) map[string]decimal.Decimal {
	inverted := make(map[string]decimal.Decimal, len(effects))
	for accID, delta := range effects {
		inverted[accID] = delta.Neg()
	}
	return inverted
}

// SplitPrincipal amortizes a principal into count installment amounts.
// Each installment is floor(principal/count) to the cent; the last
// installment absorbs the rounding remainder so the sum equals the principal
// exactly, avoiding floating accumulation drift.
func SplitPrincipal(principal decimal.Decimal, count int) ([]decimal.Decimal, error) {
	if count <= 0 {
		return nil, fmt.Errorf("installment count must be positive, got %d", count)
	}
	if !principal.IsPositive() {
		return nil, fmt.Errorf("principal must be positive, got %s", principal.String())
	}

	base := principal.Div(decimal.NewFromInt(int64(count))).Truncate(2)
	amounts := make([]decimal.Decimal, count)
	running := decimal.Zero
	for i := 0; i < count-1; i++ {
		amounts[i] = base
		running = running.Add(base)
	}
	amounts[count-1] = principal.Sub(running)

	// The split must reproduce the principal exactly; anything else is a bug.
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(a)
	}
	if !sum.Equal(principal) {
		return nil, fmt.Errorf("installment split of %s into %d parts sums to %s", principal.String(), count, sum.String())
	}
	return amounts, nil
}

// PFSplit computes the provident fund split of a base salary at the given
// rate. Employee and employer contribute the same rounded amount; net is what
// the employee takes home and total is what the paying account is debited.
func PFSplit(baseSalary decimal.Decimal, rate decimal.Decimal) (employeePF, employerPF, net, total decimal.Decimal) {
	employeePF = baseSalary.Mul(rate).Round(2)
	employerPF = baseSalary.Mul(rate).Round(2)
	net = baseSalary.Sub(employeePF)
	total = baseSalary.Add(employerPF)
	return
}
