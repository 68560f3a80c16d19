package activity

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustpoints/trustpoints-backend/pkg/db/models"
	"github.com/trustpoints/trustpoints-backend/pkg/enums"
	"github.com/trustpoints/trustpoints-backend/pkg/logger"
	"github.com/trustpoints/trustpoints-backend/pkg/pagination"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupActivityTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS activities (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  points INTEGER,
  order_id TEXT,
  metadata TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "activity-test", Level: logger.ParseLevel("error")})
}

func TestDBRecorderPersistsEvent(t *testing.T) {
	db := setupActivityTestDB(t)
	repo := NewRepository(db)
	recorder, err := NewDBRecorder(repo, testLogger())
	require.NoError(t, err)

	userID := uuid.New()
	points := 30
	orderID := "TP-20250110120000-AB12CD34"
	recorder.Record(context.Background(), Event{
		UserID:  userID,
		Type:    enums.ActivityPointsEarned,
		Title:   "Delivery reward",
		Points:  &points,
		OrderID: &orderID,
	})

	rows, err := repo.ListByUser(context.Background(), userID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.ActivityPointsEarned, rows[0].Type)
	assert.Equal(t, "Delivery reward", rows[0].Title)
	require.NotNil(t, rows[0].Points)
	assert.Equal(t, 30, *rows[0].Points)
}

func TestDBRecorderDropsInvalidEvent(t *testing.T) {
	db := setupActivityTestDB(t)
	repo := NewRepository(db)
	recorder, err := NewDBRecorder(repo, testLogger())
	require.NoError(t, err)

	// missing user id and title; the recorder must not panic or persist
	recorder.Record(context.Background(), Event{Type: enums.ActivityOrderCreated})

	var count int64
	require.NoError(t, db.Model(&models.Activity{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListByUserOrdering(t *testing.T) {
	db := setupActivityTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Activity{
			ID:        uuid.New(),
			UserID:    userID,
			Type:      enums.ActivityOrderCreated,
			Title:     "Order posted",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	rows, err := repo.ListByUser(ctx, userID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].CreatedAt.After(rows[1].CreatedAt), "newest first")
}

type failingRepo struct {
	Repository
	err error
}

func (f *failingRepo) Create(ctx context.Context, activity *models.Activity) error {
	return f.err
}

func TestConsumerProcess(t *testing.T) {
	db := setupActivityTestDB(t)
	repo := NewRepository(db)

	consumer := &Consumer{repo: repo, logg: testLogger(), now: time.Now}

	event := Event{
		UserID: uuid.New(),
		Type:   enums.ActivityOrderDelivered,
		Title:  "Package delivered",
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	assert.True(t, consumer.process(context.Background(), "m1", payload), "valid event acks")

	rows, err := repo.ListByUser(context.Background(), event.UserID, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	// malformed payloads ack so they are not redelivered forever
	assert.True(t, consumer.process(context.Background(), "m2", []byte("{not json")))

	// storage failures nack for redelivery
	failing := &Consumer{repo: &failingRepo{err: errors.New("db down")}, logg: testLogger(), now: time.Now}
	assert.False(t, failing.process(context.Background(), "m3", payload))
}

func TestServiceFeed(t *testing.T) {
	db := setupActivityTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.Feed(context.Background(), uuid.Nil, pagination.Params{})
	assert.Error(t, err)

	userID := uuid.New()
	require.NoError(t, repo.Create(context.Background(), &models.Activity{
		ID:     uuid.New(),
		UserID: userID,
		Type:   enums.ActivityAccountCreated,
		Title:  "Welcome",
	}))

	rows, err := svc.Feed(context.Background(), userID, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
