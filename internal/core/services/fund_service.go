package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edusuite/school_finance_app/internal/apperrors"
	"github.com/edusuite/school_finance_app/internal/core/domain"
	portsrepo "github.com/edusuite/school_finance_app/internal/core/ports/repositories"
	portssvc "github.com/edusuite/school_finance_app/internal/core/ports/services"
	"github.com/edusuite/school_finance_app/internal/dto"
	"github.com/edusuite/school_finance_app/internal/middleware"
	"github.com/edusuite/school_finance_app/internal/utils/finmath"
	"github.com/shopspring/decimal"
)

const (
	fundInflowCategory     = "FUND_INFLOW"
	fundWithdrawalCategory = "FUND_WITHDRAWAL"
	donationCategory       = "WELFARE_DONATION"
)

// fundService tracks external investor fund flows and staff welfare fund
// donations. Balance mechanics are delegated to the ledger primitives; this
// layer only shapes the transactions and keeps fund totals honest.
type fundService struct {
	fundRepo    portsrepo.FundRepositoryFacade
	accountRepo portsrepo.AccountRepositoryFacade
	sequenceSvc portssvc.SequenceSvcFacade
}

// NewFundService creates a new FundService.
func NewFundService(fundRepo portsrepo.FundRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade, sequenceSvc portssvc.SequenceSvcFacade) portssvc.FundSvcFacade {
	return &fundService{
		fundRepo:    fundRepo,
		accountRepo: accountRepo,
		sequenceSvc: sequenceSvc,
	}
}

var _ portssvc.FundSvcFacade = (*fundService)(nil)

func (s *fundService) CreateFund(ctx context.Context, req dto.CreateFundRequest, creatorUserID string) (*domain.Fund, error) {
	now := time.Now()
	fund := domain.Fund{
		FundID:         uuid.NewString(),
		InvestorName:   req.InvestorName,
		Description:    req.Description,
		TotalInvested:  decimal.Zero,
		TotalWithdrawn: decimal.Zero,
		IsActive:       true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if err := s.fundRepo.SaveFund(ctx, fund); err != nil {
		return nil, err
	}
	return &fund, nil
}

func (s *fundService) GetFundByID(ctx context.Context, fundID string) (*domain.Fund, error) {
	return s.fundRepo.FindFundByID(ctx, fundID)
}

func (s *fundService) ListFunds(ctx context.Context, limit int, offset int) ([]domain.Fund, error) {
	return s.fundRepo.ListFunds(ctx, limit, offset)
}

// RecordFundTransaction records an inflow (income) or withdrawal (expense)
// against a fund. A withdrawal cannot exceed the fund's remaining balance.
func (s *fundService) RecordFundTransaction(ctx context.Context, fundID string, req dto.FundTransactionRequest, userID string) (*domain.FundTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	if _, err := requireActiveAccount(ctx, s.accountRepo, req.AccountID); err != nil {
		return nil, err
	}

	fund, err := s.fundRepo.FindFundByID(ctx, fundID)
	if err != nil {
		return nil, err
	}
	if !fund.IsActive {
		return nil, fmt.Errorf("%w: fund %s is inactive", apperrors.ErrConflict, fundID)
	}

	kind := domain.Income
	category := fundInflowCategory
	if req.Type == domain.FundWithdrawal {
		kind = domain.Expense
		category = fundWithdrawalCategory
		remaining := fund.TotalInvested.Sub(fund.TotalWithdrawn)
		if req.Amount.GreaterThan(remaining) {
			return nil, fmt.Errorf("%w: withdrawal %s exceeds fund balance %s", apperrors.ErrConflict, req.Amount, remaining)
		}
	}

	docNumber, err := s.sequenceSvc.NextDocNumber(ctx, docPrefixFund, req.TxnDate)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     userID,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
	}
	txn := domain.LedgerTransaction{
		TransactionID: uuid.NewString(),
		DocNumber:     docNumber,
		AccountID:     req.AccountID,
		Kind:          kind,
		Category:      category,
		Amount:        req.Amount,
		TxnDate:       domain.DateOnly(req.TxnDate),
		Reference:     req.Reference,
		Status:        domain.Posted,
		AuditFields:   audit,
	}
	effects, err := finmath.BalanceEffects(txn)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	fundTxn := domain.FundTransaction{
		FundTxnID:   uuid.NewString(),
		FundID:      fundID,
		Type:        req.Type,
		Amount:      req.Amount,
		AccountID:   req.AccountID,
		TxnID:       txn.TransactionID,
		TxnDate:     domain.DateOnly(req.TxnDate),
		Reference:   req.Reference,
		AuditFields: audit,
	}

	if err := s.fundRepo.SaveFundTransaction(ctx, fundTxn, txn, effects); err != nil {
		logger.Error("Failed to save fund transaction", "error", err, "fund_id", fundID)
		return nil, err
	}

	logger.Info("Fund transaction recorded", "fund_id", fundID, "type", req.Type, "amount", req.Amount)
	return &fundTxn, nil
}

func (s *fundService) ListFundTransactions(ctx context.Context, fundID string, limit int, offset int) ([]domain.FundTransaction, error) {
	if _, err := s.fundRepo.FindFundByID(ctx, fundID); err != nil {
		return nil, err
	}
	return s.fundRepo.ListFundTransactions(ctx, fundID, limit, offset)
}

// RecordDonation credits a staff welfare fund donation to the given account.
func (s *fundService) RecordDonation(ctx context.Context, req dto.DonationRequest, userID string) (*domain.WelfareFundDonation, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	if _, err := requireActiveAccount(ctx, s.accountRepo, req.AccountID); err != nil {
		return nil, err
	}

	docNumber, err := s.sequenceSvc.NextDocNumber(ctx, docPrefixFund, req.DonatedOn)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     userID,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
	}
	txn := domain.LedgerTransaction{
		TransactionID: uuid.NewString(),
		DocNumber:     docNumber,
		AccountID:     req.AccountID,
		Kind:          domain.Income,
		Category:      donationCategory,
		Amount:        req.Amount,
		TxnDate:       domain.DateOnly(req.DonatedOn),
		Reference:     req.DonorName,
		Status:        domain.Posted,
		AuditFields:   audit,
	}
	effects, err := finmath.BalanceEffects(txn)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	donation := domain.WelfareFundDonation{
		DonationID:  uuid.NewString(),
		DonorName:   req.DonorName,
		Amount:      req.Amount,
		AccountID:   req.AccountID,
		TxnID:       txn.TransactionID,
		DonatedOn:   domain.DateOnly(req.DonatedOn),
		Note:        req.Note,
		AuditFields: audit,
	}

	if err := s.fundRepo.SaveDonation(ctx, donation, txn, effects); err != nil {
		logger.Error("Failed to save donation", "error", err, "donor", req.DonorName)
		return nil, err
	}

	logger.Info("Donation recorded", "donation_id", donation.DonationID, "amount", req.Amount)
	return &donation, nil
}
