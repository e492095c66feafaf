package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/shopfront/pkg/db"
	pkgerrors "github.com/angelmondragon/shopfront/pkg/errors"
	"github.com/angelmondragon/shopfront/pkg/pagination"
	"github.com/shopspring/decimal"
)

const topProductsLimit = 5

// Service exposes order reads and sales statistics.
type Service interface {
	Get(ctx context.Context, userID, orderID uint) (*OrderDTO, error)
	ListForUser(ctx context.Context, userID uint, params pagination.Params) (*OrderList, error)
	Stats(ctx context.Context) (*SalesStats, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the orders service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// Get returns the order when it belongs to userID. Orders of other users are
// reported as not found.
func (s *service) Get(ctx context.Context, userID, orderID uint) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := ToDTO(*order)
	return &dto, nil
}

func (s *service) ListForUser(ctx context.Context, userID uint, params pagination.Params) (*OrderList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListByUser(ctx, userID, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	list := &OrderList{Orders: make([]OrderDTO, 0, len(rows))}
	if len(rows) > limit {
		rows = rows[:limit]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{ID: rows[len(rows)-1].ID})
	}
	for _, row := range rows {
		list.Orders = append(list.Orders, ToDTO(row))
	}
	return list, nil
}

// Stats summarizes order counts and revenue for today, the last 7 and 30
// days and all time, plus the best selling products by units.
func (s *service) Stats(ctx context.Context) (*SalesStats, error) {
	summaries, err := s.repo.ListSummaries(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order summaries")
	}
	top, err := s.repo.TopProducts(ctx, topProductsLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load top products")
	}

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	periods := []struct {
		label string
		since time.Time
	}{
		{label: "today", since: startOfDay},
		{label: "last_7_days", since: now.AddDate(0, 0, -7)},
		{label: "last_30_days", since: now.AddDate(0, 0, -30)},
		{label: "all_time"},
	}

	stats := &SalesStats{
		TotalRevenue: decimal.Zero,
		Periods:      make([]PeriodStats, 0, len(periods)),
		TopProducts:  make([]ProductSales, 0, len(top)),
		GeneratedAt:  now,
	}
	for _, p := range periods {
		period := PeriodStats{Label: p.label, Revenue: decimal.Zero}
		for _, summary := range summaries {
			if !p.since.IsZero() && summary.CreatedAt.Before(p.since) {
				continue
			}
			period.Orders++
			period.Revenue = period.Revenue.Add(summary.Total)
		}
		period.Revenue = period.Revenue.Round(2)
		stats.Periods = append(stats.Periods, period)
	}
	for _, summary := range summaries {
		stats.TotalRevenue = stats.TotalRevenue.Add(summary.Total)
	}
	stats.TotalOrders = len(summaries)
	stats.TotalRevenue = stats.TotalRevenue.Round(2)
	for _, product := range top {
		product.Revenue = product.Revenue.Round(2)
		stats.TopProducts = append(stats.TopProducts, product)
	}
	return stats, nil
}
