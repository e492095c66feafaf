package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/shopfront/api/middleware"
	"github.com/angelmondragon/shopfront/api/responses"
	"github.com/angelmondragon/shopfront/api/validators"
	"github.com/angelmondragon/shopfront/internal/delivery"
	"github.com/angelmondragon/shopfront/internal/orders"
	"github.com/angelmondragon/shopfront/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront/pkg/errors"
	"github.com/angelmondragon/shopfront/pkg/logger"
)

// orderOwnership resolves an order only when it belongs to the user.
type orderOwnership interface {
	Get(ctx context.Context, userID, orderID uint) (*orders.OrderDTO, error)
}

type addressRequest struct {
	RecipientName string `json:"recipient_name" validate:"required,max=100"`
	Line1         string `json:"line1" validate:"required,max=200"`
	Line2         string `json:"line2" validate:"max=200"`
	Suburb        string `json:"suburb" validate:"max=100"`
	Postcode      string `json:"postcode" validate:"required,max=10"`
	PhoneNumber   string `json:"phone_number" validate:"max=20"`
}

func (a *addressRequest) toInput() *delivery.AddressInput {
	if a == nil {
		return nil
	}
	return &delivery.AddressInput{
		RecipientName: a.RecipientName,
		Line1:         a.Line1,
		Line2:         a.Line2,
		Suburb:        a.Suburb,
		Postcode:      a.Postcode,
		PhoneNumber:   a.PhoneNumber,
	}
}

func DeliveryMethods(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		methods, err := svc.Methods(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, methods)
	}
}

type quoteRequest struct {
	OrderID   uint            `json:"order_id" validate:"required"`
	MethodID  uint            `json:"method_id" validate:"required"`
	AddressID *uint           `json:"address_id,omitempty"`
	Address   *addressRequest `json:"address,omitempty"`
}

// DeliveryQuote prices a delivery option for one of the caller's orders.
func DeliveryQuote(svc delivery.Service, owners orderOwnership, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || owners == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID := middleware.UserIDFromContext(r.Context())
		if _, err := owners.Get(r.Context(), userID, payload.OrderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), delivery.QuoteInput{
			OrderID:   payload.OrderID,
			UserID:    &userID,
			MethodID:  payload.MethodID,
			AddressID: payload.AddressID,
			Address:   payload.Address.toInput(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}

type createDeliveryRequest struct {
	MethodID  uint            `json:"method_id" validate:"required"`
	Type      string          `json:"type" validate:"required,oneof=home pickup courier"`
	AddressID *uint           `json:"address_id,omitempty"`
	Address   *addressRequest `json:"address,omitempty"`
	Notes     string          `json:"notes" validate:"max=500"`
}

// DeliveryCreate creates the delivery of one of the caller's orders.
func DeliveryCreate(svc delivery.Service, owners orderOwnership, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || owners == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		orderID, err := validators.ParseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createDeliveryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		deliveryType, err := enums.ParseDeliveryType(payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery type"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if _, err := owners.Get(r.Context(), userID, orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateForOrder(r.Context(), delivery.CreateInput{
			OrderID:   orderID,
			UserID:    &userID,
			MethodID:  payload.MethodID,
			Type:      deliveryType,
			AddressID: payload.AddressID,
			Address:   payload.Address.toInput(),
			Notes:     payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func OrderDeliveries(svc delivery.Service, owners orderOwnership, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || owners == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		orderID, err := validators.ParseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := owners.Get(r.Context(), middleware.UserIDFromContext(r.Context()), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deliveries, err := svc.ListByOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, deliveries)
	}
}

func AdminDeliveryList(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func AdminDeliveryGet(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		id, err := validators.ParseIDParam(r, "deliveryID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		found, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, found)
	}
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func AdminDeliveryUpdateStatus(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		id, err := validators.ParseIDParam(r, "deliveryID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseDeliveryStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery status"))
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

type assignCourierRequest struct {
	CourierName    string `json:"courier_name" validate:"required,max=100"`
	TrackingNumber string `json:"tracking_number" validate:"max=64"`
}

func AdminDeliveryAssignCourier(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		id, err := validators.ParseIDParam(r, "deliveryID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assignCourierRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.AssignCourier(r.Context(), id, payload.CourierName, payload.TrackingNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}
