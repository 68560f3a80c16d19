package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/trustpoints/trustpoints-backend/internal/activity"
	"github.com/trustpoints/trustpoints-backend/internal/pricing"
	"github.com/trustpoints/trustpoints-backend/internal/wallet"
	"github.com/trustpoints/trustpoints-backend/pkg/db/models"
	"github.com/trustpoints/trustpoints-backend/pkg/enums"
	pkgerrors "github.com/trustpoints/trustpoints-backend/pkg/errors"
	"github.com/trustpoints/trustpoints-backend/pkg/geo"
	"github.com/trustpoints/trustpoints-backend/pkg/metrics"
	"github.com/trustpoints/trustpoints-backend/pkg/orderid"
	"github.com/trustpoints/trustpoints-backend/pkg/pagination"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ledger is the tx-scoped slice of the wallet the lifecycle needs: money
// movement that commits or rolls back together with the status change.
type ledger interface {
	DebitTx(ctx context.Context, tx *gorm.DB, input wallet.MovementInput) error
	CreditTx(ctx context.Context, tx *gorm.DB, input wallet.MovementInput) error
}

// CreateOrderInput is the service-level shape after transport validation.
type CreateOrderInput struct {
	SenderID        uuid.UUID
	ItemName        string
	ItemCategory    enums.ItemCategory
	ItemWeightKg    float64
	ItemFragile     bool
	ItemDescription string
	PickupAddress   string
	Pickup          geo.Point
	DestinationAddr string
	Destination     geo.Point
	Notes           *string
}

// EstimateInput prices an order without creating it.
type EstimateInput struct {
	ItemWeightKg float64
	ItemFragile  bool
	Pickup       geo.Point
	Destination  geo.Point
}

// NearbyInput bounds a hunter's browse query.
type NearbyInput struct {
	Center   geo.Point
	RadiusKm float64
}

// Service is the order lifecycle controller: it owns every status transition
// and invokes the ledger inside the same transaction as the state change.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Estimate(ctx context.Context, input EstimateInput) (*EstimateResponse, error)
	Get(ctx context.Context, orderID string) (*models.Order, error)

	Claim(ctx context.Context, orderID string, hunterID uuid.UUID) (*models.Order, error)
	Pickup(ctx context.Context, orderID string, hunterID uuid.UUID) (*models.Order, error)
	Deliver(ctx context.Context, orderID string, hunterID uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, orderID string, senderID uuid.UUID) (*models.Order, error)

	Available(ctx context.Context, page pagination.Params) ([]models.Order, error)
	Nearby(ctx context.Context, input NearbyInput) ([]NearbyOrder, error)
	Mine(ctx context.Context, senderID uuid.UUID, page pagination.Params) ([]models.Order, error)
	Deliveries(ctx context.Context, hunterID uuid.UUID, page pagination.Params) ([]models.Order, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	ledger   ledger
	recorder activity.Recorder
	metrics  *metrics.OrderMetrics

	maxRadiusKm     float64
	defaultRadiusKm float64
	now             func() time.Time
}

// ServiceParams bundles the lifecycle controller dependencies.
type ServiceParams struct {
	Repo            Repository
	TxRunner        txRunner
	Ledger          ledger
	Recorder        activity.Recorder
	Metrics         *metrics.OrderMetrics
	DefaultRadiusKm float64
	MaxRadiusKm     float64
}

// NewService builds the order lifecycle controller.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	if params.Recorder == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	defaultRadius := params.DefaultRadiusKm
	if defaultRadius <= 0 {
		defaultRadius = 10
	}
	maxRadius := params.MaxRadiusKm
	if maxRadius <= 0 {
		maxRadius = 50
	}
	return &service{
		repo:            params.Repo,
		tx:              params.TxRunner,
		ledger:          params.Ledger,
		recorder:        params.Recorder,
		metrics:         params.Metrics,
		defaultRadiusKm: defaultRadius,
		maxRadiusKm:     maxRadius,
		now:             time.Now,
	}, nil
}

// Create prices the order, escrows the sender's points, and persists the
// PENDING order as one atomic unit. The order is never created when the
// debit fails.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.SenderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ItemName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOrderParameters, "item name required")
	}
	if !input.ItemCategory.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOrderParameters, "unknown item category")
	}
	if input.PickupAddress == "" || input.DestinationAddr == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOrderParameters, "pickup and destination addresses required")
	}
	if err := input.Pickup.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidOrderParameters, err, "invalid pickup coordinates")
	}
	if err := input.Destination.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidOrderParameters, err, "invalid destination coordinates")
	}

	distance := geo.DistanceKm(input.Pickup, input.Destination)
	quote, err := pricing.QuoteOrder(distance, input.ItemWeightKg, input.ItemFragile)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	id, err := orderid.New(now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order id")
	}

	order := &models.Order{
		OrderID:            id,
		SenderID:           input.SenderID,
		Status:             enums.OrderStatusPending,
		ItemName:           input.ItemName,
		ItemCategory:       input.ItemCategory,
		ItemWeightKg:       input.ItemWeightKg,
		ItemFragile:        input.ItemFragile,
		ItemDescription:    input.ItemDescription,
		PickupAddress:      input.PickupAddress,
		PickupLat:          input.Pickup.Lat,
		PickupLng:          input.Pickup.Lng,
		DestinationAddress: input.DestinationAddr,
		DestinationLat:     input.Destination.Lat,
		DestinationLng:     input.Destination.Lng,
		DistanceKm:         distance,
		PointsCost:         quote.PointsCost,
		TrustPointsReward:  quote.TrustPointsReward,
		Notes:              input.Notes,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.ledger.DebitTx(ctx, tx, wallet.MovementInput{
			UserID:  input.SenderID,
			Amount:  quote.PointsCost,
			Reason:  enums.LedgerReasonOrderEscrow,
			OrderID: &order.OrderID,
		}); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}
		return nil
	})
	if err != nil {
		s.countTransition("create", err)
		return nil, err
	}
	s.countTransition("create", nil)
	s.addPoints(enums.LedgerReasonOrderEscrow, quote.PointsCost)

	cost := quote.PointsCost
	s.recorder.Record(ctx, activity.Event{
		UserID:  input.SenderID,
		Type:    enums.ActivityOrderCreated,
		Title:   fmt.Sprintf("Order posted: %s", order.ItemName),
		Points:  &cost,
		OrderID: &order.OrderID,
	})
	s.recorder.Record(ctx, activity.Event{
		UserID:  input.SenderID,
		Type:    enums.ActivityPointsSpent,
		Title:   fmt.Sprintf("%d points held in escrow", cost),
		Points:  &cost,
		OrderID: &order.OrderID,
	})

	return order, nil
}

func (s *service) Estimate(ctx context.Context, input EstimateInput) (*EstimateResponse, error) {
	if err := input.Pickup.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidOrderParameters, err, "invalid pickup coordinates")
	}
	if err := input.Destination.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidOrderParameters, err, "invalid destination coordinates")
	}
	distance := geo.DistanceKm(input.Pickup, input.Destination)
	quote, err := pricing.QuoteOrder(distance, input.ItemWeightKg, input.ItemFragile)
	if err != nil {
		return nil, err
	}
	return &EstimateResponse{
		DistanceKm:        distance,
		PointsCost:        quote.PointsCost,
		TrustPointsReward: quote.TrustPointsReward,
	}, nil
}

func (s *service) Get(ctx context.Context, orderID string) (*models.Order, error) {
	return s.load(ctx, s.repo, orderID)
}

// Claim is the critical race point: the conditional update is authoritative,
// and every loser observes the post-transition state.
func (s *service) Claim(ctx context.Context, orderID string, hunterID uuid.UUID) (*models.Order, error) {
	if hunterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if order.SenderID == hunterID {
		return nil, pkgerrors.New(pkgerrors.CodeCannotClaimOwnOrder, "you cannot claim your own order")
	}

	now := s.now().UTC()
	won, err := s.repo.ClaimIfPending(ctx, orderID, hunterID, now)
	if err != nil {
		s.countTransition("claim", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim order")
	}
	if !won {
		s.metrics.IncTransition("claim", "conflict")
		return nil, pkgerrors.New(pkgerrors.CodeOrderAlreadyClaimed, "order is no longer available")
	}
	s.countTransition("claim", nil)

	order.Status = enums.OrderStatusClaimed
	order.HunterID = &hunterID
	order.ClaimedAt = &now
	order.UpdatedAt = now

	s.recorder.Record(ctx, activity.Event{
		UserID:  hunterID,
		Type:    enums.ActivityOrderClaimed,
		Title:   fmt.Sprintf("Claimed order: %s", order.ItemName),
		OrderID: &order.OrderID,
	})

	return order, nil
}

func (s *service) Pickup(ctx context.Context, orderID string, hunterID uuid.UUID) (*models.Order, error) {
	if hunterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	now := s.now().UTC()
	done, err := s.repo.MarkInTransit(ctx, orderID, hunterID, now)
	if err != nil {
		s.countTransition("pickup", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark in transit")
	}
	if !done {
		s.metrics.IncTransition("pickup", "conflict")
		return nil, s.classifyHunterFailure(ctx, orderID, hunterID)
	}
	s.countTransition("pickup", nil)

	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, activity.Event{
		UserID:  hunterID,
		Type:    enums.ActivityOrderPickedUp,
		Title:   fmt.Sprintf("Picked up: %s", order.ItemName),
		OrderID: &order.OrderID,
	})

	return order, nil
}

// Deliver flips IN_TRANSIT to DELIVERED and pays the hunter in one
// transaction. An order is never DELIVERED without the reward committed, and
// never pays without the flip.
func (s *service) Deliver(ctx context.Context, orderID string, hunterID uuid.UUID) (*models.Order, error) {
	if hunterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var order *models.Order
	now := s.now().UTC()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		done, err := repo.MarkDelivered(ctx, orderID, hunterID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark delivered")
		}
		if !done {
			return s.classifyHunterFailure(ctx, orderID, hunterID)
		}

		loaded, err := s.load(ctx, repo, orderID)
		if err != nil {
			return err
		}
		order = loaded

		return s.ledger.CreditTx(ctx, tx, wallet.MovementInput{
			UserID:  hunterID,
			Amount:  order.TrustPointsReward,
			Reason:  enums.LedgerReasonDeliveryReward,
			OrderID: &order.OrderID,
		})
	})
	if err != nil {
		s.countTransition("deliver", err)
		return nil, err
	}
	s.countTransition("deliver", nil)
	s.addPoints(enums.LedgerReasonDeliveryReward, order.TrustPointsReward)

	reward := order.TrustPointsReward
	s.recorder.Record(ctx, activity.Event{
		UserID:  hunterID,
		Type:    enums.ActivityOrderDelivered,
		Title:   fmt.Sprintf("Delivered: %s", order.ItemName),
		OrderID: &order.OrderID,
	})
	s.recorder.Record(ctx, activity.Event{
		UserID:  hunterID,
		Type:    enums.ActivityPointsEarned,
		Title:   fmt.Sprintf("Earned %d trust points", reward),
		Points:  &reward,
		OrderID: &order.OrderID,
	})

	return order, nil
}

// Cancel refunds the escrowed cost to the sender atomically with the status
// change. Only PENDING and CLAIMED orders can be cancelled.
func (s *service) Cancel(ctx context.Context, orderID string, senderID uuid.UUID) (*models.Order, error) {
	if senderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var order *models.Order
	now := s.now().UTC()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		done, err := repo.CancelIfOpen(ctx, orderID, senderID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if !done {
			return s.classifyCancelFailure(ctx, orderID, senderID)
		}

		loaded, err := s.load(ctx, repo, orderID)
		if err != nil {
			return err
		}
		order = loaded

		return s.ledger.CreditTx(ctx, tx, wallet.MovementInput{
			UserID:  senderID,
			Amount:  order.PointsCost,
			Reason:  enums.LedgerReasonOrderRefund,
			OrderID: &order.OrderID,
		})
	})
	if err != nil {
		s.countTransition("cancel", err)
		return nil, err
	}
	s.countTransition("cancel", nil)
	s.addPoints(enums.LedgerReasonOrderRefund, order.PointsCost)

	refund := order.PointsCost
	s.recorder.Record(ctx, activity.Event{
		UserID:  senderID,
		Type:    enums.ActivityOrderCancelled,
		Title:   fmt.Sprintf("Cancelled order: %s", order.ItemName),
		OrderID: &order.OrderID,
	})
	s.recorder.Record(ctx, activity.Event{
		UserID:  senderID,
		Type:    enums.ActivityPointsRefunded,
		Title:   fmt.Sprintf("%d points refunded", refund),
		Points:  &refund,
		OrderID: &order.OrderID,
	})

	return order, nil
}

func (s *service) Available(ctx context.Context, page pagination.Params) ([]models.Order, error) {
	orders, err := s.repo.ListAvailable(ctx, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list available orders")
	}
	return orders, nil
}

// Nearby returns pending orders within the radius, closest pickup first, ties
// broken oldest first. The same haversine used at creation scores the rows.
func (s *service) Nearby(ctx context.Context, input NearbyInput) ([]NearbyOrder, error) {
	if err := input.Center.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid query coordinates")
	}
	radius := input.RadiusKm
	if radius <= 0 {
		radius = s.defaultRadiusKm
	}
	if radius > s.maxRadiusKm {
		radius = s.maxRadiusKm
	}

	minLat, maxLat, minLng, maxLng := geo.BoundingBox(input.Center, radius)
	candidates, err := s.repo.ListPendingInBox(ctx, minLat, maxLat, minLng, maxLng)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending orders")
	}

	results := make([]NearbyOrder, 0, len(candidates))
	for _, order := range candidates {
		distance := geo.DistanceKm(input.Center, geo.Point{Lat: order.PickupLat, Lng: order.PickupLng})
		if distance > radius {
			continue
		}
		results = append(results, NearbyOrder{Order: order, DistanceFromQueryKm: distance})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].DistanceFromQueryKm != results[j].DistanceFromQueryKm {
			return results[i].DistanceFromQueryKm < results[j].DistanceFromQueryKm
		}
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})
	return results, nil
}

func (s *service) Mine(ctx context.Context, senderID uuid.UUID, page pagination.Params) ([]models.Order, error) {
	if senderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	orders, err := s.repo.ListBySender(ctx, senderID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sent orders")
	}
	return orders, nil
}

func (s *service) Deliveries(ctx context.Context, hunterID uuid.UUID, page pagination.Params) ([]models.Order, error) {
	if hunterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	orders, err := s.repo.ListByHunter(ctx, hunterID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list deliveries")
	}
	return orders, nil
}

func (s *service) load(ctx context.Context, repo Repository, orderID string) (*models.Order, error) {
	if !orderid.Valid(orderID) {
		return nil, pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found")
	}
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// classifyHunterFailure reloads the order after a failed conditional update
// so the caller gets a specific, distinguishable error.
func (s *service) classifyHunterFailure(ctx context.Context, orderID string, hunterID uuid.UUID) error {
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return err
	}
	if order.HunterID != nil && *order.HunterID != hunterID {
		return pkgerrors.New(pkgerrors.CodeNotOrderHunter, "order is assigned to another hunter")
	}
	return pkgerrors.New(pkgerrors.CodeInvalidStateTransition,
		fmt.Sprintf("order is %s", order.Status))
}

func (s *service) classifyCancelFailure(ctx context.Context, orderID string, senderID uuid.UUID) error {
	order, err := s.load(ctx, s.repo, orderID)
	if err != nil {
		return err
	}
	if order.SenderID != senderID {
		return pkgerrors.New(pkgerrors.CodeNotOrderSender, "only the sender can cancel this order")
	}
	return pkgerrors.New(pkgerrors.CodeInvalidStateTransition,
		fmt.Sprintf("order is %s", order.Status))
}

func (s *service) countTransition(action string, err error) {
	if err != nil {
		s.metrics.IncTransition(action, "error")
		return
	}
	s.metrics.IncTransition(action, "ok")
}

func (s *service) addPoints(reason enums.LedgerReason, amount int) {
	s.metrics.AddPoints(string(reason), amount)
}
