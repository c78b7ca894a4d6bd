package services

import (
	portsrepo "github.com/edusuite/school_finance_app/internal/core/ports/repositories"
	portssvc "github.com/edusuite/school_finance_app/internal/core/ports/services"
	"github.com/edusuite/school_finance_app/pkg/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Sequence allocation first since every money-moving service numbers its
	// documents through it.
	container.Sequence = NewSequenceService(repos.SequenceRepo, cfg.SeqMaxRetries, cfg.SeqRetryBackoff)

	container.Account = NewAccountService(repos.AccountRepo)
	container.Ledger = NewLedgerService(repos.TransactionRepo, repos.AccountRepo, container.Sequence)
	container.Fee = NewFeeService(repos.FeeRepo, repos.TransactionRepo, repos.AccountRepo, container.Sequence)
	container.Payroll = NewPayrollService(repos.PayrollRepo, repos.AccountRepo, container.Sequence, cfg.PFRate)
	container.Loan = NewLoanService(repos.LoanRepo, repos.TransactionRepo, repos.AccountRepo, container.Sequence)
	container.Fund = NewFundService(repos.FundRepo, repos.AccountRepo, container.Sequence)
	container.Reconciliation = NewReconciliationService(repos.AccountRepo, repos.TransactionRepo)

	return container
}
