package orders

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustpoints/trustpoints-backend/pkg/db/models"
	"github.com/trustpoints/trustpoints-backend/pkg/enums"
	"github.com/trustpoints/trustpoints-backend/pkg/pagination"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A file-backed DB (unlike "file::memory:") is shared across pooled
	// connections, which the service layer relies on when it reads outside
	// an open transaction.
	dsn := filepath.Join(t.TempDir(), "orders.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  order_id TEXT PRIMARY KEY,
  sender_id TEXT NOT NULL,
  hunter_id TEXT,
  status TEXT NOT NULL DEFAULT 'PENDING',
  item_name TEXT NOT NULL,
  item_category TEXT NOT NULL DEFAULT 'OTHER',
  item_weight_kg REAL NOT NULL,
  item_fragile INTEGER NOT NULL DEFAULT 0,
  item_description TEXT,
  pickup_address TEXT NOT NULL,
  pickup_lat REAL NOT NULL,
  pickup_lng REAL NOT NULL,
  destination_address TEXT NOT NULL,
  destination_lat REAL NOT NULL,
  destination_lng REAL NOT NULL,
  distance_km REAL NOT NULL,
  points_cost INTEGER NOT NULL,
  trust_points_reward INTEGER NOT NULL,
  notes TEXT,
  claimed_at DATETIME,
  picked_up_at DATETIME,
  delivered_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	return db
}

func testOrderRow(senderID uuid.UUID, orderID string, createdAt time.Time) *models.Order {
	return &models.Order{
		OrderID:            orderID,
		SenderID:           senderID,
		Status:             enums.OrderStatusPending,
		ItemName:           "Nasi kotak",
		ItemCategory:       enums.ItemCategoryFood,
		ItemWeightKg:       1,
		PickupAddress:      "Jl. Sudirman 1",
		PickupLat:          -6.2088,
		PickupLng:          106.8456,
		DestinationAddress: "Jl. Thamrin 10",
		DestinationLat:     -6.1944,
		DestinationLng:     106.8229,
		DistanceKm:         3.0,
		PointsCost:         30,
		TrustPointsReward:  30,
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
	}
}

func TestClaimIfPending_SingleWinner(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	sender := uuid.New()
	now := time.Now().UTC()
	order := testOrderRow(sender, "TP-20250110120000-AAAA1111", now)
	require.NoError(t, repo.Create(ctx, order))

	first := uuid.New()
	second := uuid.New()

	won, err := repo.ClaimIfPending(ctx, order.OrderID, first, now)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = repo.ClaimIfPending(ctx, order.OrderID, second, now)
	require.NoError(t, err)
	assert.False(t, won, "second claim must observe CLAIMED and lose")

	loaded, err := repo.FindByID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusClaimed, loaded.Status)
	require.NotNil(t, loaded.HunterID)
	assert.Equal(t, first, *loaded.HunterID, "hunter binding is written exactly once")
	assert.NotNil(t, loaded.ClaimedAt)
}

func TestMarkInTransit_RequiresBoundHunter(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	order := testOrderRow(uuid.New(), "TP-20250110120000-BBBB2222", now)
	require.NoError(t, repo.Create(ctx, order))

	hunter := uuid.New()
	won, err := repo.ClaimIfPending(ctx, order.OrderID, hunter, now)
	require.NoError(t, err)
	require.True(t, won)

	// another hunter cannot move it
	done, err := repo.MarkInTransit(ctx, order.OrderID, uuid.New(), now)
	require.NoError(t, err)
	assert.False(t, done)

	done, err = repo.MarkInTransit(ctx, order.OrderID, hunter, now)
	require.NoError(t, err)
	assert.True(t, done)

	// a second pickup finds IN_TRANSIT, not CLAIMED
	done, err = repo.MarkInTransit(ctx, order.OrderID, hunter, now)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestMarkDelivered_OnlyFromInTransit(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	order := testOrderRow(uuid.New(), "TP-20250110120000-CCCC3333", now)
	require.NoError(t, repo.Create(ctx, order))

	hunter := uuid.New()

	// cannot deliver straight from PENDING
	done, err := repo.MarkDelivered(ctx, order.OrderID, hunter, now)
	require.NoError(t, err)
	assert.False(t, done)

	_, err = repo.ClaimIfPending(ctx, order.OrderID, hunter, now)
	require.NoError(t, err)
	_, err = repo.MarkInTransit(ctx, order.OrderID, hunter, now)
	require.NoError(t, err)

	done, err = repo.MarkDelivered(ctx, order.OrderID, hunter, now)
	require.NoError(t, err)
	assert.True(t, done)

	loaded, err := repo.FindByID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, loaded.Status)
	assert.NotNil(t, loaded.DeliveredAt)
}

func TestCancelIfOpen(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	sender := uuid.New()
	now := time.Now().UTC()

	pending := testOrderRow(sender, "TP-20250110120000-DDDD4444", now)
	require.NoError(t, repo.Create(ctx, pending))

	// wrong sender cannot cancel
	done, err := repo.CancelIfOpen(ctx, pending.OrderID, uuid.New(), now)
	require.NoError(t, err)
	assert.False(t, done)

	done, err = repo.CancelIfOpen(ctx, pending.OrderID, sender, now)
	require.NoError(t, err)
	assert.True(t, done)

	// cancel loses to a transition that already moved the order to IN_TRANSIT
	racing := testOrderRow(sender, "TP-20250110120000-EEEE5555", now)
	require.NoError(t, repo.Create(ctx, racing))
	hunter := uuid.New()
	_, err = repo.ClaimIfPending(ctx, racing.OrderID, hunter, now)
	require.NoError(t, err)
	_, err = repo.MarkInTransit(ctx, racing.OrderID, hunter, now)
	require.NoError(t, err)

	done, err = repo.CancelIfOpen(ctx, racing.OrderID, sender, now)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestCancelThenClaimLoses(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	sender := uuid.New()
	now := time.Now().UTC()
	order := testOrderRow(sender, "TP-20250110120000-FFFF6666", now)
	require.NoError(t, repo.Create(ctx, order))

	done, err := repo.CancelIfOpen(ctx, order.OrderID, sender, now)
	require.NoError(t, err)
	require.True(t, done)

	won, err := repo.ClaimIfPending(ctx, order.OrderID, uuid.New(), now)
	require.NoError(t, err)
	assert.False(t, won, "claim after cancel observes CANCELLED")
}

func TestListAvailableOldestFirst(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	sender := uuid.New()
	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	newest := testOrderRow(sender, "TP-20250110120200-AAAA0003", base.Add(2*time.Minute))
	oldest := testOrderRow(sender, "TP-20250110120000-AAAA0001", base)
	middle := testOrderRow(sender, "TP-20250110120100-AAAA0002", base.Add(time.Minute))
	for _, o := range []*models.Order{newest, oldest, middle} {
		require.NoError(t, repo.Create(ctx, o))
	}

	claimed := testOrderRow(sender, "TP-20250110115900-AAAA0000", base.Add(-time.Minute))
	require.NoError(t, repo.Create(ctx, claimed))
	_, err := repo.ClaimIfPending(ctx, claimed.OrderID, uuid.New(), base)
	require.NoError(t, err)

	orders, err := repo.ListAvailable(ctx, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, orders, 3, "claimed order excluded")
	assert.Equal(t, oldest.OrderID, orders[0].OrderID)
	assert.Equal(t, middle.OrderID, orders[1].OrderID)
	assert.Equal(t, newest.OrderID, orders[2].OrderID)
}

func TestListPendingInBox(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	sender := uuid.New()
	now := time.Now().UTC()

	inside := testOrderRow(sender, "TP-20250110120000-GGGG7777", now)
	require.NoError(t, repo.Create(ctx, inside))

	outside := testOrderRow(sender, "TP-20250110120000-HHHH8888", now)
	outside.PickupLat = -7.8014 // Yogyakarta, far outside a Jakarta box
	outside.PickupLng = 110.3649
	require.NoError(t, repo.Create(ctx, outside))

	orders, err := repo.ListPendingInBox(ctx, -6.3, -6.1, 106.7, 107.0)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, inside.OrderID, orders[0].OrderID)
}

func TestListBySenderAndHunter(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	sender := uuid.New()
	hunter := uuid.New()
	now := time.Now().UTC()

	mine := testOrderRow(sender, "TP-20250110120000-IIII9999", now)
	require.NoError(t, repo.Create(ctx, mine))
	other := testOrderRow(uuid.New(), "TP-20250110120000-JJJJ0000", now)
	require.NoError(t, repo.Create(ctx, other))
	_, err := repo.ClaimIfPending(ctx, other.OrderID, hunter, now)
	require.NoError(t, err)

	sent, err := repo.ListBySender(ctx, sender, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, mine.OrderID, sent[0].OrderID)

	deliveries, err := repo.ListByHunter(ctx, hunter, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	assert.Equal(t, other.OrderID, deliveries[0].OrderID)
}
