package wallet

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustpoints/trustpoints-backend/pkg/db/models"
	"github.com/trustpoints/trustpoints-backend/pkg/enums"
	"github.com/trustpoints/trustpoints-backend/pkg/pagination"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupWalletTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  full_name TEXT NOT NULL,
  phone TEXT,
  points INTEGER NOT NULL DEFAULT 0,
  trust_score INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	ledgerEntries := `
CREATE TABLE IF NOT EXISTS ledger_entries (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  delta INTEGER NOT NULL,
  reason TEXT NOT NULL,
  order_id TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec(ledgerEntries).Error)
	return db
}

func seedWalletUser(t *testing.T, db *gorm.DB, points int) uuid.UUID {
	t.Helper()
	user := models.User{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		FullName:     "Wallet User",
		Points:       points,
	}
	require.NoError(t, db.Create(&user).Error)
	return user.ID
}

func TestDebitIfSufficient(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := seedWalletUser(t, db, 100)

	ok, err := repo.DebitIfSufficient(ctx, userID, 60)
	require.NoError(t, err)
	assert.True(t, ok)

	balance, err := repo.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 40, balance)

	// guard refuses to overdraw and leaves the row untouched
	ok, err = repo.DebitIfSufficient(ctx, userID, 41)
	require.NoError(t, err)
	assert.False(t, ok)

	balance, err = repo.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 40, balance)
}

func TestDebitIfSufficient_ExactBalance(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := seedWalletUser(t, db, 25)

	ok, err := repo.DebitIfSufficient(ctx, userID, 25)
	require.NoError(t, err)
	assert.True(t, ok)

	balance, err := repo.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestCredit(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := seedWalletUser(t, db, 10)

	require.NoError(t, repo.Credit(ctx, userID, 15))
	balance, err := repo.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 25, balance)

	err = repo.Credit(ctx, uuid.New(), 5)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestBalance_UnknownUser(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)

	_, err := repo.Balance(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListEntries(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := seedWalletUser(t, db, 0)
	other := seedWalletUser(t, db, 0)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.CreateEntry(ctx, &models.LedgerEntry{
			ID:     uuid.New(),
			UserID: userID,
			Delta:  10,
			Reason: enums.LedgerReasonSignupGrant,
		}))
	}
	require.NoError(t, repo.CreateEntry(ctx, &models.LedgerEntry{
		ID:     uuid.New(),
		UserID: other,
		Delta:  -5,
		Reason: enums.LedgerReasonOrderEscrow,
	}))

	entries, err := repo.ListEntries(ctx, userID, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	entries, err = repo.ListEntries(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
