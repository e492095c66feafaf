package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/shopfront/internal/cart"
	"github.com/angelmondragon/shopfront/internal/inventory"
	"github.com/angelmondragon/shopfront/internal/orders"
	"github.com/angelmondragon/shopfront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront/pkg/errors"
	"github.com/angelmondragon/shopfront/pkg/logger"
	"gorm.io/gorm"
)

// Outcome classifies how a checkout attempt ended.
type Outcome string

const (
	// OutcomeCommitted means stock was reserved and the order recorded.
	OutcomeCommitted Outcome = "committed"
	// OutcomeRejected means the cart failed validation; nothing was written.
	OutcomeRejected Outcome = "rejected"
	// OutcomeAborted means the reservation failed and was rolled back.
	OutcomeAborted Outcome = "aborted"
)

// Result reports the outcome of Execute. Order is set only when committed.
type Result struct {
	Outcome Outcome          `json:"outcome"`
	Order   *orders.OrderDTO `json:"order,omitempty"`
}

// Service turns a session cart into an order.
type Service interface {
	Execute(ctx context.Context, sessionID string, userID uint) (*Result, error)
}

type cartReader interface {
	Enrich(ctx context.Context, sessionID string) (*cart.View, error)
	Subtract(ctx context.Context, sessionID string, ordered []cart.Line) error
}

type stockReserver interface {
	Reserve(ctx context.Context, lines []inventory.Line, commit func(tx *gorm.DB) error) error
}

type recorder interface {
	ObserveCheckout(outcome string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCheckout(string, time.Duration) {}

// ServiceParams wires the checkout dependencies.
type ServiceParams struct {
	Cart    cartReader
	Ledger  stockReserver
	Orders  orders.Repository
	Metrics recorder
	Logger  *logger.Logger
}

type service struct {
	cart    cartReader
	ledger  stockReserver
	orders  orders.Repository
	metrics recorder
	logg    *logger.Logger

	// beforeReserve runs between validation and reservation. Tests use it to
	// interleave a competing checkout.
	beforeReserve func(ctx context.Context)
}

// NewService builds the checkout orchestrator.
func NewService(params ServiceParams) (Service, error) {
	if params.Cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Metrics == nil {
		params.Metrics = nopRecorder{}
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &service{
		cart:    params.Cart,
		ledger:  params.Ledger,
		orders:  params.Orders,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// Execute validates the cart against live stock, reserves every line and
// records the order in one transaction, then removes the ordered quantities
// from the cart. A rejected or
// aborted attempt returns a non-nil Result alongside the typed error and
// leaves the cart untouched.
func (s *service) Execute(ctx context.Context, sessionID string, userID uint) (*Result, error) {
	started := time.Now()
	ctx = s.logg.WithUserID(s.logg.WithSessionID(ctx, sessionID), userID)

	result, err := s.execute(ctx, sessionID, userID)
	if result != nil {
		s.metrics.ObserveCheckout(string(result.Outcome), time.Since(started))
	}
	return result, err
}

func (s *service) execute(ctx context.Context, sessionID string, userID uint) (*Result, error) {
	if userID == 0 {
		return reject(pkgerrors.New(pkgerrors.CodeValidation, "user id required"))
	}
	view, err := s.cart.Enrich(ctx, sessionID)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			return reject(err)
		}
		return nil, err
	}
	if view.IsEmpty() {
		return reject(pkgerrors.New(pkgerrors.CodeValidation, "cart is empty"))
	}
	if short := outOfStock(view); len(short) > 0 {
		s.logg.Info(s.logg.WithField(ctx, "product_ids", short), "checkout rejected: lines out of stock")
		return reject(pkgerrors.New(pkgerrors.CodeOutOfStock, "some items are out of stock").
			WithDetails(map[string]any{"product_ids": short}))
	}

	order := buildOrder(userID, view)
	lines := make([]inventory.Line, 0, len(view.Lines))
	ordered := make([]cart.Line, 0, len(view.Lines))
	for _, line := range view.Lines {
		lines = append(lines, inventory.Line{ProductID: line.ProductID, Quantity: line.Quantity})
		ordered = append(ordered, cart.Line{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	if s.beforeReserve != nil {
		s.beforeReserve(ctx)
	}

	err = s.ledger.Reserve(ctx, lines, func(tx *gorm.DB) error {
		if _, err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record order")
		}
		return nil
	})
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", err.Error()), "checkout aborted")
		return &Result{Outcome: OutcomeAborted}, err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID)
	if err := s.cart.Subtract(ctx, sessionID, ordered); err != nil {
		// The order stands even if the cart cannot be updated.
		s.logg.Error(ctx, "remove ordered lines from cart", err)
	}
	s.logg.Info(s.logg.WithField(ctx, "total", order.Total.StringFixed(2)), "checkout committed")

	dto := orders.ToDTO(*order)
	return &Result{Outcome: OutcomeCommitted, Order: &dto}, nil
}

func reject(err error) (*Result, error) {
	return &Result{Outcome: OutcomeRejected}, err
}

func outOfStock(view *cart.View) []uint {
	var short []uint
	for _, line := range view.Lines {
		if !line.InStock {
			short = append(short, line.ProductID)
		}
	}
	return short
}

// buildOrder freezes names and prices from the enriched view.
func buildOrder(userID uint, view *cart.View) *models.Order {
	items := make([]models.OrderItem, 0, len(view.Lines))
	for _, line := range view.Lines {
		items = append(items, models.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.Name,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
		})
	}
	return &models.Order{
		UserID: userID,
		Total:  view.Total,
		Items:  items,
	}
}
