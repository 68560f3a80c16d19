package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/trustpoints/trustpoints-backend/api/middleware"
	"github.com/trustpoints/trustpoints-backend/api/responses"
	"github.com/trustpoints/trustpoints-backend/api/validators"
	"github.com/trustpoints/trustpoints-backend/internal/orders"
	"github.com/trustpoints/trustpoints-backend/pkg/enums"
	pkgerrors "github.com/trustpoints/trustpoints-backend/pkg/errors"
	"github.com/trustpoints/trustpoints-backend/pkg/geo"
	"github.com/trustpoints/trustpoints-backend/pkg/logger"
	"github.com/trustpoints/trustpoints-backend/pkg/pagination"
)

func requireUser(r *http.Request) (uuid.UUID, error) {
	id := middleware.UserUUIDFromContext(r.Context())
	if id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return id, nil
}

func orderIDParam(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return id, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	skip, err := validators.ParseQueryInt(r, "skip", 0, 0, 1<<30)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Limit: limit, Skip: skip}, nil
}

func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		senderID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req orders.CreateOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := enums.ParseItemCategory(req.ItemCategory)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInvalidOrderParameters, err, "unknown item category"))
			return
		}

		order, err := svc.Create(r.Context(), orders.CreateOrderInput{
			SenderID:        senderID,
			ItemName:        req.ItemName,
			ItemCategory:    category,
			ItemWeightKg:    req.ItemWeightKg,
			ItemFragile:     req.ItemFragile,
			ItemDescription: req.ItemDescription,
			PickupAddress:   req.Pickup.Address,
			Pickup:          geo.Point{Lat: req.Pickup.Lat, Lng: req.Pickup.Lng},
			DestinationAddr: req.Destination.Address,
			Destination:     geo.Point{Lat: req.Destination.Lat, Lng: req.Destination.Lng},
			Notes:           req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func OrderEstimate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req orders.EstimateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		estimate, err := svc.Estimate(r.Context(), orders.EstimateInput{
			ItemWeightKg: req.ItemWeightKg,
			ItemFragile:  req.ItemFragile,
			Pickup:       geo.Point{Lat: req.Pickup.Lat, Lng: req.Pickup.Lng},
			Destination:  geo.Point{Lat: req.Destination.Lat, Lng: req.Destination.Lng},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, estimate)
	}
}

func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func OrdersAvailable(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.Available(r.Context(), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// OrdersNearby browses pending orders around a coordinate:
// GET /orders/nearby?lat=..&lng=..&radius_km=..
func OrdersNearby(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lat, err := validators.ParseQueryFloat(r, "lat", 0, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lng, err := validators.ParseQueryFloat(r, "lng", 0, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		radius, err := validators.ParseQueryFloat(r, "radius_km", 0, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.Nearby(r.Context(), orders.NearbyInput{
			Center:   geo.Point{Lat: lat, Lng: lng},
			RadiusKm: radius,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func transitionHandler(logg *logger.Logger, transition func(r *http.Request, orderID string, userID uuid.UUID) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := transition(r, orderID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func OrderClaim(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(logg, func(r *http.Request, orderID string, userID uuid.UUID) (any, error) {
		return svc.Claim(r.Context(), orderID, userID)
	})
}

func OrderPickup(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(logg, func(r *http.Request, orderID string, userID uuid.UUID) (any, error) {
		return svc.Pickup(r.Context(), orderID, userID)
	})
}

func OrderDeliver(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(logg, func(r *http.Request, orderID string, userID uuid.UUID) (any, error) {
		return svc.Deliver(r.Context(), orderID, userID)
	})
}

func OrderCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(logg, func(r *http.Request, orderID string, userID uuid.UUID) (any, error) {
		return svc.Cancel(r.Context(), orderID, userID)
	})
}

func OrdersMine(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		senderID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.Mine(r.Context(), senderID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func OrdersDeliveries(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hunterID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.Deliveries(r.Context(), hunterID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
