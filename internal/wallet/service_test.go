package wallet

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustpoints/trustpoints-backend/pkg/config"
	"github.com/trustpoints/trustpoints-backend/pkg/db"
	"github.com/trustpoints/trustpoints-backend/pkg/db/models"
	"github.com/trustpoints/trustpoints-backend/pkg/enums"
	pkgerrors "github.com/trustpoints/trustpoints-backend/pkg/errors"
	"github.com/trustpoints/trustpoints-backend/pkg/pagination"
	"gorm.io/gorm"
)

func newWalletService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := setupWalletTestDB(t)
	svc, err := NewService(NewRepository(conn), db.FromGorm(conn), config.PointsConfig{
		SignupGrant:    100,
		RupiahPerPoint: 100,
		MaxTransfer:    1000,
	})
	require.NoError(t, err)
	return svc, conn
}

func TestServiceDebitAndHistory(t *testing.T) {
	svc, conn := newWalletService(t)
	ctx := context.Background()

	userID := seedWalletUser(t, conn, 80)
	orderID := "TP-20250110120000-AB12CD34"

	err := svc.Debit(ctx, MovementInput{
		UserID:  userID,
		Amount:  50,
		Reason:  enums.LedgerReasonOrderEscrow,
		OrderID: &orderID,
	})
	require.NoError(t, err)

	balance, err := svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 30, balance.Points)

	entries, err := svc.History(ctx, userID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, -50, entries[0].Delta)
	assert.Equal(t, enums.LedgerReasonOrderEscrow, entries[0].Reason)
	require.NotNil(t, entries[0].OrderID)
	assert.Equal(t, orderID, *entries[0].OrderID)
}

func TestServiceDebit_Insufficient(t *testing.T) {
	svc, conn := newWalletService(t)
	ctx := context.Background()

	userID := seedWalletUser(t, conn, 10)

	err := svc.Debit(ctx, MovementInput{
		UserID: userID,
		Amount: 11,
		Reason: enums.LedgerReasonOrderEscrow,
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientPoints))

	// failed debit writes no ledger entry
	entries, err := svc.History(ctx, userID, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestServiceCredit_InvalidAmount(t *testing.T) {
	svc, conn := newWalletService(t)
	userID := seedWalletUser(t, conn, 0)

	err := svc.Credit(context.Background(), MovementInput{
		UserID: userID,
		Amount: 0,
		Reason: enums.LedgerReasonDeliveryReward,
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidAmount))
}

func TestServiceTransfer(t *testing.T) {
	svc, conn := newWalletService(t)
	ctx := context.Background()

	from := seedWalletUser(t, conn, 100)
	to := seedWalletUser(t, conn, 5)

	require.NoError(t, svc.Transfer(ctx, TransferInput{FromUserID: from, ToUserID: to, Amount: 40}))

	fromBalance, err := svc.Balance(ctx, from)
	require.NoError(t, err)
	assert.Equal(t, 60, fromBalance.Points)

	toBalance, err := svc.Balance(ctx, to)
	require.NoError(t, err)
	assert.Equal(t, 45, toBalance.Points)

	fromEntries, err := svc.History(ctx, from, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, fromEntries, 1)
	assert.Equal(t, enums.LedgerReasonTransferOut, fromEntries[0].Reason)

	toEntries, err := svc.History(ctx, to, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, toEntries, 1)
	assert.Equal(t, enums.LedgerReasonTransferIn, toEntries[0].Reason)
}

func TestServiceTransfer_InsufficientRollsBack(t *testing.T) {
	svc, conn := newWalletService(t)
	ctx := context.Background()

	from := seedWalletUser(t, conn, 30)
	to := seedWalletUser(t, conn, 0)

	err := svc.Transfer(ctx, TransferInput{FromUserID: from, ToUserID: to, Amount: 31})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientPoints))

	fromBalance, err := svc.Balance(ctx, from)
	require.NoError(t, err)
	assert.Equal(t, 30, fromBalance.Points)

	toBalance, err := svc.Balance(ctx, to)
	require.NoError(t, err)
	assert.Equal(t, 0, toBalance.Points)
}

func TestServiceTransfer_Validation(t *testing.T) {
	svc, conn := newWalletService(t)
	ctx := context.Background()
	userID := seedWalletUser(t, conn, 5000)

	err := svc.Transfer(ctx, TransferInput{FromUserID: userID, ToUserID: userID, Amount: 10})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	err = svc.Transfer(ctx, TransferInput{FromUserID: userID, ToUserID: uuid.New(), Amount: 2000})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidAmount))
}

func TestServiceBalanceRupiah(t *testing.T) {
	svc, conn := newWalletService(t)
	userID := seedWalletUser(t, conn, 75)

	balance, err := svc.Balance(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 75, balance.Points)
	assert.True(t, balance.Rupiah.Equal(decimal.NewFromInt(7500)))
}

// Insert a ledger row for the destination user but fail the credit balance
// update by deleting the user first; the whole transfer must roll back.
func TestServiceTransfer_CreditFailureRollsBackDebit(t *testing.T) {
	svc, conn := newWalletService(t)
	ctx := context.Background()

	from := seedWalletUser(t, conn, 100)
	ghost := uuid.New() // destination does not exist

	err := svc.Transfer(ctx, TransferInput{FromUserID: from, ToUserID: ghost, Amount: 10})
	require.Error(t, err)

	fromBalance, err := svc.Balance(ctx, from)
	require.NoError(t, err)
	assert.Equal(t, 100, fromBalance.Points)

	entries, err := svc.History(ctx, from, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, entries, "rolled back transfer must leave no trail")

	var count int64
	require.NoError(t, conn.Model(&models.LedgerEntry{}).Count(&count).Error)
	assert.Zero(t, count)
}
