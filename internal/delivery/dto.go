package delivery

import (
	"time"

	"github.com/angelmondragon/shopfront/pkg/db/models"
	"github.com/angelmondragon/shopfront/pkg/enums"
	"github.com/shopspring/decimal"
)

// MethodDTO describes a delivery method offered to shoppers.
type MethodDTO struct {
	ID             uint            `json:"id"`
	Name           string          `json:"name"`
	BasePrice      decimal.Decimal `json:"base_price"`
	PerKmPrice     decimal.Decimal `json:"per_km_price"`
	FreeOverAmount decimal.Decimal `json:"free_over_amount"`
	MaxDistanceKm  int             `json:"max_distance_km"`
}

// AddressInput is a new delivery address.
type AddressInput struct {
	RecipientName string
	Line1         string
	Line2         string
	Suburb        string
	Postcode      string
	PhoneNumber   string
}

// AddressDTO exposes a stored delivery address.
type AddressDTO struct {
	ID            uint   `json:"id"`
	RecipientName string `json:"recipient_name"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2,omitempty"`
	Suburb        string `json:"suburb"`
	Postcode      string `json:"postcode"`
	PhoneNumber   string `json:"phone_number,omitempty"`
}

// QuoteInput prices a delivery before it is created. Either AddressID or
// Address may be set; neither is needed for pickup. AddressID must belong
// to UserID.
type QuoteInput struct {
	OrderID   uint
	UserID    *uint
	MethodID  uint
	AddressID *uint
	Address   *AddressInput
}

// Quote is a priced delivery option.
type Quote struct {
	OrderID    uint            `json:"order_id"`
	MethodID   uint            `json:"method_id"`
	MethodName string          `json:"method_name"`
	OrderTotal decimal.Decimal `json:"order_total"`
	Price      decimal.Decimal `json:"price"`
	Free       bool            `json:"free"`
}

// CreateInput requests a delivery for a committed order.
type CreateInput struct {
	OrderID   uint
	UserID    *uint
	MethodID  uint
	Type      enums.DeliveryType
	AddressID *uint
	Address   *AddressInput
	Notes     string
}

// DeliveryDTO is the delivery payload returned to clients.
type DeliveryDTO struct {
	ID             uint                   `json:"id"`
	OrderID        uint                   `json:"order_id"`
	UserID         *uint                  `json:"user_id,omitempty"`
	MethodID       uint                   `json:"method_id"`
	Type           enums.DeliveryType     `json:"type"`
	Status         enums.DeliveryStatus   `json:"status"`
	NextStatuses   []enums.DeliveryStatus `json:"next_statuses"`
	Price          decimal.Decimal        `json:"price"`
	Address        *AddressDTO            `json:"address,omitempty"`
	CourierName    string                 `json:"courier_name,omitempty"`
	TrackingNumber string                 `json:"tracking_number,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// DeliveryList is one newest-first page of deliveries.
type DeliveryList struct {
	Deliveries []DeliveryDTO `json:"deliveries"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

func toMethodDTO(m models.DeliveryMethod) MethodDTO {
	return MethodDTO{
		ID:             m.ID,
		Name:           m.Name,
		BasePrice:      m.BasePrice.Round(2),
		PerKmPrice:     m.PerKmPrice.Round(2),
		FreeOverAmount: m.FreeOverAmount.Round(2),
		MaxDistanceKm:  m.MaxDistanceKm,
	}
}

func toAddressDTO(a *models.DeliveryAddress) *AddressDTO {
	if a == nil {
		return nil
	}
	return &AddressDTO{
		ID:            a.ID,
		RecipientName: a.RecipientName,
		Line1:         a.Line1,
		Line2:         a.Line2,
		Suburb:        a.Suburb,
		Postcode:      a.Postcode,
		PhoneNumber:   a.PhoneNumber,
	}
}

func toDeliveryDTO(d models.Delivery) DeliveryDTO {
	next := d.Status.Next()
	if next == nil {
		next = []enums.DeliveryStatus{}
	}
	return DeliveryDTO{
		ID:             d.ID,
		OrderID:        d.OrderID,
		UserID:         d.UserID,
		MethodID:       d.MethodID,
		Type:           d.Type,
		Status:         d.Status,
		NextStatuses:   next,
		Price:          d.Price.Round(2),
		Address:        toAddressDTO(d.DeliveryAddress),
		CourierName:    d.CourierName,
		TrackingNumber: d.TrackingNumber,
		Notes:          d.Notes,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}
