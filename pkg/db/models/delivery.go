package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopfront/pkg/enums"
)

// DeliveryMethod is reference data consumed read-only by the pricing engine.
type DeliveryMethod struct {
	ID             uint            `gorm:"column:id;primaryKey;autoIncrement"`
	Name           string          `gorm:"column:name;size:100;not null;uniqueIndex:idx_delivery_methods_name"`
	Active         bool            `gorm:"column:active;not null"`
	BasePrice      decimal.Decimal `gorm:"column:base_price;type:numeric(12,2);not null"`
	PerKmPrice     decimal.Decimal `gorm:"column:per_km_price;type:numeric(12,2);not null"`
	FreeOverAmount decimal.Decimal `gorm:"column:free_over_amount;type:numeric(12,2);not null"`
	MaxDistanceKm  int             `gorm:"column:max_distance_km;not null"`
}

// DeliveryAddress belongs to the user who first entered it and is only
// reusable by that user.
type DeliveryAddress struct {
	ID            uint   `gorm:"column:id;primaryKey;autoIncrement"`
	UserID        *uint  `gorm:"column:user_id;index:idx_delivery_addresses_user_id"`
	RecipientName string `gorm:"column:recipient_name;size:100;not null"`
	Line1         string `gorm:"column:line1;size:200;not null"`
	Line2         string `gorm:"column:line2;size:200;not null;default:''"`
	Suburb        string `gorm:"column:suburb;size:100;not null;default:''"`
	Postcode      string `gorm:"column:postcode;size:10;not null"`
	PhoneNumber   string `gorm:"column:phone_number;size:20;not null;default:''"`
}

// Delivery tracks physical fulfilment of one order. Price is frozen at creation.
type Delivery struct {
	ID                uint                 `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID           uint                 `gorm:"column:order_id;not null;uniqueIndex"`
	UserID            *uint                `gorm:"column:user_id"`
	MethodID          uint                 `gorm:"column:method_id;not null"`
	Type              enums.DeliveryType   `gorm:"column:delivery_type;not null"`
	Status            enums.DeliveryStatus `gorm:"column:status;not null"`
	Price             decimal.Decimal      `gorm:"column:price;type:numeric(12,2);not null"`
	DeliveryAddressID *uint                `gorm:"column:delivery_address_id"`
	DeliveryAddress   *DeliveryAddress     `gorm:"foreignKey:DeliveryAddressID"`
	CourierName       string               `gorm:"column:courier_name;not null;default:''"`
	TrackingNumber    string               `gorm:"column:tracking_number;not null;default:''"`
	Notes             string               `gorm:"column:notes;not null;default:''"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// All lists every model for AutoMigrate-based bootstrapping and tests.
func All() []any {
	return []any{
		&Product{},
		&Order{},
		&OrderItem{},
		&DeliveryMethod{},
		&DeliveryAddress{},
		&Delivery{},
	}
}
