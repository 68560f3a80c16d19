package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustpoints/trustpoints-backend/internal/activity"
	"github.com/trustpoints/trustpoints-backend/internal/users"
	"github.com/trustpoints/trustpoints-backend/internal/wallet"
	pkgAuth "github.com/trustpoints/trustpoints-backend/pkg/auth"
	"github.com/trustpoints/trustpoints-backend/pkg/config"
	"github.com/trustpoints/trustpoints-backend/pkg/db"
	"github.com/trustpoints/trustpoints-backend/pkg/enums"
	pkgerrors "github.com/trustpoints/trustpoints-backend/pkg/errors"
	"github.com/trustpoints/trustpoints-backend/pkg/pagination"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type recordedEvent struct {
	events []activity.Event
}

func (r *recordedEvent) Record(ctx context.Context, event activity.Event) {
	r.events = append(r.events, event)
}

func setupAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schemas := []string{
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  full_name TEXT NOT NULL,
  phone TEXT,
  points INTEGER NOT NULL DEFAULT 0,
  trust_score INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS ledger_entries (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  delta INTEGER NOT NULL,
  reason TEXT NOT NULL,
  order_id TEXT,
  created_at DATETIME
);`,
	}
	for _, schema := range schemas {
		require.NoError(t, conn.Exec(schema).Error)
	}
	return conn
}

func newAuthService(t *testing.T) (Service, *gorm.DB, *recordedEvent) {
	t.Helper()
	conn := setupAuthTestDB(t)
	recorder := &recordedEvent{}

	svc, err := NewService(ServiceParams{
		TxRunner:   db.FromGorm(conn),
		UserRepo:   users.NewRepository(conn),
		WalletRepo: wallet.NewRepository(conn),
		Recorder:   recorder,
		JWTConfig: config.JWTConfig{
			Secret:            "unit-test-secret",
			Issuer:            "trustpoints-test",
			ExpirationMinutes: 15,
		},
		PasswordConfig: config.PasswordConfig{
			ArgonMemoryKB:    8192,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
		PointsConfig: config.PointsConfig{SignupGrant: 100, RupiahPerPoint: 100},
	})
	require.NoError(t, err)
	return svc, conn, recorder
}

func TestRegisterGrantsSignupPoints(t *testing.T) {
	svc, conn, recorder := newAuthService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{
		FullName: "Budi Santoso",
		Email:    "Budi@Example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "budi@example.com", resp.User.Email)
	assert.Equal(t, 100, resp.User.Points)

	entries, err := wallet.NewRepository(conn).ListEntries(ctx, resp.User.ID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 100, entries[0].Delta)
	assert.Equal(t, enums.LedgerReasonSignupGrant, entries[0].Reason)

	require.Len(t, recorder.events, 1)
	assert.Equal(t, enums.ActivityAccountCreated, recorder.events[0].Type)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	req := RegisterRequest{FullName: "Budi", Email: "budi@example.com", Password: "secret-password"}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		FullName: "Siti Rahayu",
		Email:    "siti@example.com",
		Password: "another-passphrase",
	})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{Email: "SITI@example.com", Password: "another-passphrase"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	claims, err := pkgAuth.ParseAccessToken(config.JWTConfig{
		Secret:            "unit-test-secret",
		Issuer:            "trustpoints-test",
		ExpirationMinutes: 15,
	}, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		FullName: "Siti Rahayu",
		Email:    "siti@example.com",
		Password: "another-passphrase",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "siti@example.com", Password: "wrong"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

