package delivery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/angelmondragon/shopfront/pkg/db"
	"github.com/angelmondragon/shopfront/pkg/db/models"
	"github.com/angelmondragon/shopfront/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront/pkg/errors"
	"github.com/angelmondragon/shopfront/pkg/logger"
	"github.com/angelmondragon/shopfront/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxPhoneLength matches delivery_addresses.phone_number.
const maxPhoneLength = 20

// Service prices, creates and tracks deliveries.
type Service interface {
	Methods(ctx context.Context) ([]MethodDTO, error)
	Quote(ctx context.Context, input QuoteInput) (*Quote, error)
	CreateForOrder(ctx context.Context, input CreateInput) (*DeliveryDTO, error)
	UpdateStatus(ctx context.Context, id uint, status enums.DeliveryStatus) (*DeliveryDTO, error)
	AssignCourier(ctx context.Context, id uint, courierName, trackingNumber string) (*DeliveryDTO, error)
	Get(ctx context.Context, id uint) (*DeliveryDTO, error)
	List(ctx context.Context, params pagination.Params) (*DeliveryList, error)
	ListByOrder(ctx context.Context, orderID uint) ([]DeliveryDTO, error)
	SeedDefaults(ctx context.Context) (int, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderReader interface {
	FindByID(ctx context.Context, id uint) (*models.Order, error)
}

// ServiceParams wires the delivery service dependencies.
type ServiceParams struct {
	Repo     *Repository
	Orders   orderReader
	Pricer   *Pricer
	TxRunner txRunner
	Logger   *logger.Logger
}

type service struct {
	// mu guards the one-delivery-per-order check on create.
	mu     sync.Mutex
	repo   *Repository
	orders orderReader
	pricer *Pricer
	tx     txRunner
	logg   *logger.Logger
}

// NewService builds the delivery service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("delivery repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Pricer == nil {
		params.Pricer = NewPricer(nil, params.Logger)
	}
	return &service{
		repo:   params.Repo,
		orders: params.Orders,
		pricer: params.Pricer,
		tx:     params.TxRunner,
		logg:   params.Logger,
	}, nil
}

func (s *service) Methods(ctx context.Context) ([]MethodDTO, error) {
	rows, err := s.repo.ListMethods(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list delivery methods")
	}
	out := make([]MethodDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toMethodDTO(row))
	}
	return out, nil
}

func (s *service) Quote(ctx context.Context, input QuoteInput) (*Quote, error) {
	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	method, err := s.loadMethod(ctx, input.MethodID)
	if err != nil {
		return nil, err
	}
	address, err := s.resolveAddress(ctx, input.UserID, input.AddressID, input.Address, false)
	if err != nil {
		return nil, err
	}
	price, err := s.pricer.Price(ctx, order.Total, *method, address)
	if err != nil {
		return nil, err
	}
	return &Quote{
		OrderID:    order.ID,
		MethodID:   method.ID,
		MethodName: method.Name,
		OrderTotal: order.Total.Round(2),
		Price:      price,
		Free:       price.IsZero(),
	}, nil
}

// CreateForOrder creates the single delivery of an existing order. The price
// is computed once here and frozen on the row.
func (s *service) CreateForOrder(ctx context.Context, input CreateInput) (*DeliveryDTO, error) {
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery type")
	}
	ctx = s.logg.WithOrderID(ctx, input.OrderID)

	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsForOrder(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing delivery")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already has a delivery")
	}
	method, err := s.loadMethod(ctx, input.MethodID)
	if err != nil {
		return nil, err
	}

	var address *models.DeliveryAddress
	if input.Type != enums.DeliveryTypePickup {
		address, err = s.resolveAddress(ctx, input.UserID, input.AddressID, input.Address, true)
		if err != nil {
			return nil, err
		}
	}
	price, err := s.pricer.Price(ctx, order.Total, *method, address)
	if err != nil {
		return nil, err
	}

	delivery := &models.Delivery{
		OrderID:  order.ID,
		UserID:   input.UserID,
		MethodID: method.ID,
		Type:     input.Type,
		Status:   enums.DeliveryStatusPending,
		Price:    price,
		Notes:    strings.TrimSpace(input.Notes),
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if address != nil && address.ID == 0 {
			if err := repo.CreateAddress(ctx, address); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert delivery address")
			}
		}
		if address != nil {
			delivery.DeliveryAddressID = &address.ID
		}
		if err := repo.Create(ctx, delivery); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order already has a delivery")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert delivery")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"delivery_id": delivery.ID,
		"method":      method.Name,
		"price":       price.StringFixed(2),
	}), "delivery created")
	return s.Get(ctx, delivery.ID)
}

// UpdateStatus writes any valid status. Moves off the usual progression are
// allowed and logged.
func (s *service) UpdateStatus(ctx context.Context, id uint, status enums.DeliveryStatus) (*DeliveryDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery status")
	}
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != status && !current.Status.Follows(status) {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"delivery_id": id,
			"from":        current.Status,
			"to":          status,
		}), "delivery status moved outside the usual progression")
	}
	if err := s.update(ctx, id, statusUpdate(status)); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// AssignCourier records the courier and moves the delivery to in transit.
// A tracking number is generated when none is supplied.
func (s *service) AssignCourier(ctx context.Context, id uint, courierName, trackingNumber string) (*DeliveryDTO, error) {
	name := strings.TrimSpace(courierName)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "courier name is required")
	}
	tracking := strings.TrimSpace(trackingNumber)
	if tracking == "" {
		tracking = newTrackingNumber()
	}
	updates := statusUpdate(enums.DeliveryStatusInTransit)
	updates["courier_name"] = name
	updates["tracking_number"] = tracking
	if err := s.update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *service) Get(ctx context.Context, id uint) (*DeliveryDTO, error) {
	delivery, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toDeliveryDTO(*delivery)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*DeliveryList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list deliveries")
	}
	list := &DeliveryList{Deliveries: make([]DeliveryDTO, 0, len(rows))}
	if len(rows) > limit {
		rows = rows[:limit]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{ID: rows[len(rows)-1].ID})
	}
	for _, row := range rows {
		list.Deliveries = append(list.Deliveries, toDeliveryDTO(row))
	}
	return list, nil
}

func (s *service) ListByOrder(ctx context.Context, orderID uint) ([]DeliveryDTO, error) {
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list order deliveries")
	}
	out := make([]DeliveryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDeliveryDTO(row))
	}
	return out, nil
}

func (s *service) load(ctx context.Context, id uint) (*models.Delivery, error) {
	delivery, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load delivery")
	}
	return delivery, nil
}

func (s *service) update(ctx context.Context, id uint, updates map[string]any) error {
	if err := s.repo.Update(ctx, id, updates); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update delivery")
	}
	return nil
}

func (s *service) loadOrder(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) loadMethod(ctx context.Context, id uint) (*models.DeliveryMethod, error) {
	method, err := s.repo.FindMethod(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery method not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load delivery method")
	}
	return method, nil
}

// resolveAddress returns owner's stored address for addressID, or an unsaved
// address built from input and owned by owner. With neither it returns nil
// unless required.
func (s *service) resolveAddress(ctx context.Context, owner, addressID *uint, input *AddressInput, required bool) (*models.DeliveryAddress, error) {
	if addressID != nil {
		if owner == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery address not found")
		}
		address, err := s.repo.FindAddress(ctx, *addressID, *owner)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery address not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load delivery address")
		}
		return address, nil
	}
	if input == nil {
		if required {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
		}
		return nil, nil
	}
	address := &models.DeliveryAddress{
		UserID:        owner,
		RecipientName: strings.TrimSpace(input.RecipientName),
		Line1:         strings.TrimSpace(input.Line1),
		Line2:         strings.TrimSpace(input.Line2),
		Suburb:        strings.TrimSpace(input.Suburb),
		Postcode:      strings.TrimSpace(input.Postcode),
		PhoneNumber:   strings.TrimSpace(input.PhoneNumber),
	}
	if address.RecipientName == "" || address.Line1 == "" || address.Postcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient name, line1 and postcode are required")
	}
	if utf8.RuneCountInString(address.PhoneNumber) > maxPhoneLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("phone number must be at most %d characters", maxPhoneLength))
	}
	return address, nil
}

func newTrackingNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "SF" + strings.ToUpper(raw[:12])
}
