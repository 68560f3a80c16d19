package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trustpoints/trustpoints-backend/pkg/config"
	"github.com/trustpoints/trustpoints-backend/pkg/db/models"
	"github.com/trustpoints/trustpoints-backend/pkg/enums"
	pkgerrors "github.com/trustpoints/trustpoints-backend/pkg/errors"
	"github.com/trustpoints/trustpoints-backend/pkg/pagination"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// MovementInput describes one balance change and its ledger trail.
type MovementInput struct {
	UserID  uuid.UUID
	Amount  int
	Reason  enums.LedgerReason
	OrderID *string
}

// TransferInput moves points between two users as a single atomic unit.
type TransferInput struct {
	FromUserID uuid.UUID
	ToUserID   uuid.UUID
	Amount     int
}

// BalanceOutput exposes the points balance and its rupiah equivalent.
type BalanceOutput struct {
	UserID uuid.UUID       `json:"user_id"`
	Points int             `json:"points"`
	Rupiah decimal.Decimal `json:"rupiah_value"`
}

// Service defines the points ledger operations.
type Service interface {
	Balance(ctx context.Context, userID uuid.UUID) (*BalanceOutput, error)
	History(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.LedgerEntry, error)
	Debit(ctx context.Context, input MovementInput) error
	Credit(ctx context.Context, input MovementInput) error
	Transfer(ctx context.Context, input TransferInput) error

	// DebitTx and CreditTx run inside a caller-owned transaction so order
	// lifecycle transitions and their money movement commit as one unit.
	DebitTx(ctx context.Context, tx *gorm.DB, input MovementInput) error
	CreditTx(ctx context.Context, tx *gorm.DB, input MovementInput) error
}

type service struct {
	repo Repository
	tx   txRunner
	cfg  config.PointsConfig
}

// NewService wires a wallet service with the required dependencies.
func NewService(repo Repository, tx txRunner, cfg config.PointsConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, cfg: cfg}, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (*BalanceOutput, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	points, err := s.repo.Balance(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load balance")
	}
	rupiah := decimal.NewFromInt(int64(points)).Mul(decimal.NewFromInt(s.cfg.RupiahPerPoint))
	return &BalanceOutput{UserID: userID, Points: points, Rupiah: rupiah}, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.LedgerEntry, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	entries, err := s.repo.ListEntries(ctx, userID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}
	return entries, nil
}

func (s *service) Debit(ctx context.Context, input MovementInput) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.DebitTx(ctx, tx, input)
	})
}

func (s *service) Credit(ctx context.Context, input MovementInput) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.CreditTx(ctx, tx, input)
	})
}

// Transfer debits the source and credits the destination in one transaction;
// either both rows change or neither does.
func (s *service) Transfer(ctx context.Context, input TransferInput) error {
	if input.FromUserID == uuid.Nil || input.ToUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "both transfer parties required")
	}
	if input.FromUserID == input.ToUserID {
		return pkgerrors.New(pkgerrors.CodeValidation, "cannot transfer to yourself")
	}
	if input.Amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidAmount, "transfer amount must be positive")
	}
	if s.cfg.MaxTransfer > 0 && input.Amount > s.cfg.MaxTransfer {
		return pkgerrors.New(pkgerrors.CodeInvalidAmount, fmt.Sprintf("transfer amount exceeds maximum of %d", s.cfg.MaxTransfer))
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.DebitTx(ctx, tx, MovementInput{
			UserID: input.FromUserID,
			Amount: input.Amount,
			Reason: enums.LedgerReasonTransferOut,
		}); err != nil {
			return err
		}
		return s.CreditTx(ctx, tx, MovementInput{
			UserID: input.ToUserID,
			Amount: input.Amount,
			Reason: enums.LedgerReasonTransferIn,
		})
	})
}

func (s *service) DebitTx(ctx context.Context, tx *gorm.DB, input MovementInput) error {
	if err := validateMovement(input); err != nil {
		return err
	}
	repo := s.repo.WithTx(tx)

	ok, err := repo.DebitIfSufficient(ctx, input.UserID, input.Amount)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit balance")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeInsufficientPoints, "balance does not cover the amount")
	}

	entry := &models.LedgerEntry{
		ID:      uuid.New(),
		UserID:  input.UserID,
		Delta:   -input.Amount,
		Reason:  input.Reason,
		OrderID: input.OrderID,
	}
	if err := repo.CreateEntry(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record debit entry")
	}
	return nil
}

func (s *service) CreditTx(ctx context.Context, tx *gorm.DB, input MovementInput) error {
	if err := validateMovement(input); err != nil {
		return err
	}
	repo := s.repo.WithTx(tx)

	if err := repo.Credit(ctx, input.UserID, input.Amount); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit balance")
	}

	entry := &models.LedgerEntry{
		ID:      uuid.New(),
		UserID:  input.UserID,
		Delta:   input.Amount,
		Reason:  input.Reason,
		OrderID: input.OrderID,
	}
	if err := repo.CreateEntry(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record credit entry")
	}
	return nil
}

func validateMovement(input MovementInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.Amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidAmount, "amount must be positive")
	}
	if !input.Reason.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid ledger reason %q", input.Reason))
	}
	return nil
}
