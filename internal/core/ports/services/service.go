package services

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	Account        AccountSvcFacade
	Sequence       SequenceSvcFacade
	Ledger         LedgerSvcFacade
	Fee            FeeSvcFacade
	Payroll        PayrollSvcFacade
	Loan           LoanSvcFacade
	Fund           FundSvcFacade
	Reconciliation ReconciliationSvcFacade
}
