package cart

import (
	"context"
	"testing"

	"github.com/angelmondragon/shopfront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopfront/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type stubProducts struct {
	rows map[uint]models.Product
}

func (s *stubProducts) FindByID(_ context.Context, id uint) (*models.Product, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func (s *stubProducts) FindByIDs(_ context.Context, ids []uint) (map[uint]models.Product, error) {
	out := map[uint]models.Product{}
	for _, id := range ids {
		if row, ok := s.rows[id]; ok {
			out[id] = row
		}
	}
	return out, nil
}

func newCartFixture(t *testing.T) (Service, *MemoryStore, *stubProducts) {
	t.Helper()
	products := &stubProducts{rows: map[uint]models.Product{
		1: {ID: 1, Name: "A", Price: decimal.RequireFromString("10.00"), Stock: 5},
		2: {ID: 2, Name: "B", Price: decimal.RequireFromString("2.50"), Stock: 1},
	}}
	store := NewMemoryStore()
	svc, err := NewService(store, products, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store, products
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, &stubProducts{}, nil); err == nil {
		t.Fatalf("expected error without store")
	}
	if _, err := NewService(NewMemoryStore(), nil, nil); err == nil {
		t.Fatalf("expected error without product reader")
	}
}

func TestAddLineMergesAndPrices(t *testing.T) {
	svc, _, _ := newCartFixture(t)
	ctx := context.Background()

	if _, err := svc.AddLine(ctx, "s1", 1, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	view, err := svc.AddLine(ctx, "s1", 1, 1)
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %+v", view.Lines)
	}
	if !view.Total.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("expected total 30.00, got %s", view.Total)
	}
	if view.ItemCount != 3 || !view.AllInStock {
		t.Fatalf("unexpected view summary %+v", view)
	}
}

func TestAddLineBeyondStockLeavesCartUnchanged(t *testing.T) {
	svc, _, _ := newCartFixture(t)
	ctx := context.Background()

	if _, err := svc.AddLine(ctx, "s1", 1, 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, err := svc.AddLine(ctx, "s1", 1, 3)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	details := typed.Details().(map[string]any)
	if details["available"] != 5 || details["requested"] != 6 {
		t.Fatalf("unexpected details %#v", details)
	}

	lines, err := svc.Lines(ctx, "s1")
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if len(lines) != 1 || lines[0].Quantity != 3 {
		t.Fatalf("cart must be unchanged, got %+v", lines)
	}
}

func TestAddLineValidation(t *testing.T) {
	svc, _, _ := newCartFixture(t)
	ctx := context.Background()

	if _, err := svc.AddLine(ctx, "s1", 404, 1); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.AddLine(ctx, "s1", 1, 0); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation for zero qty, got %v", err)
	}
	if _, err := svc.AddLine(ctx, " ", 1, 1); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation for blank session, got %v", err)
	}
}

func TestSetLineQuantity(t *testing.T) {
	svc, _, _ := newCartFixture(t)
	ctx := context.Background()

	view, err := svc.SetLineQuantity(ctx, "s1", 1, 4)
	if err != nil {
		t.Fatalf("set inserts: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].Quantity != 4 {
		t.Fatalf("expected inserted line, got %+v", view.Lines)
	}

	if _, err := svc.SetLineQuantity(ctx, "s1", 1, 6); !pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	view, err = svc.SetLineQuantity(ctx, "s1", 1, 2)
	if err != nil {
		t.Fatalf("set overwrite: %v", err)
	}
	if view.Lines[0].Quantity != 2 {
		t.Fatalf("expected overwrite to 2, got %d", view.Lines[0].Quantity)
	}

	view, err = svc.SetLineQuantity(ctx, "s1", 1, 0)
	if err != nil {
		t.Fatalf("set zero: %v", err)
	}
	if !view.IsEmpty() {
		t.Fatalf("zero quantity should remove the line, got %+v", view.Lines)
	}
}

func TestRemoveLineIsIdempotent(t *testing.T) {
	svc, _, _ := newCartFixture(t)
	ctx := context.Background()

	if _, err := svc.AddLine(ctx, "s1", 1, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.AddLine(ctx, "s1", 2, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	for i := 0; i < 2; i++ {
		view, err := svc.RemoveLine(ctx, "s1", 1)
		if err != nil {
			t.Fatalf("remove #%d: %v", i, err)
		}
		if len(view.Lines) != 1 || view.Lines[0].ProductID != 2 {
			t.Fatalf("unexpected lines after remove: %+v", view.Lines)
		}
	}
}

func TestEnrichDropsDeletedProductsFromViewOnly(t *testing.T) {
	svc, _, products := newCartFixture(t)
	ctx := context.Background()

	if _, err := svc.AddLine(ctx, "s1", 2, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.AddLine(ctx, "s1", 1, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	delete(products.rows, 2)

	view, err := svc.Enrich(ctx, "s1")
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].ProductID != 1 {
		t.Fatalf("deleted product should be dropped from view, got %+v", view.Lines)
	}
	lines, _ := svc.Lines(ctx, "s1")
	if len(lines) != 2 || lines[0].ProductID != 2 {
		t.Fatalf("stored cart should keep order and the stale line, got %+v", lines)
	}
}

func TestEnrichFlagsLinesAboveCurrentStock(t *testing.T) {
	svc, _, products := newCartFixture(t)
	ctx := context.Background()

	if _, err := svc.AddLine(ctx, "s1", 1, 4); err != nil {
		t.Fatalf("add: %v", err)
	}
	row := products.rows[1]
	row.Stock = 3
	products.rows[1] = row

	view, err := svc.Enrich(ctx, "s1")
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if view.Lines[0].InStock || view.AllInStock {
		t.Fatalf("line should be flagged out of stock: %+v", view.Lines[0])
	}
	if view.Lines[0].AvailableStock != 3 {
		t.Fatalf("expected available stock 3, got %d", view.Lines[0].AvailableStock)
	}
}

func TestClear(t *testing.T) {
	svc, _, _ := newCartFixture(t)
	ctx := context.Background()

	if _, err := svc.AddLine(ctx, "s1", 1, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	view, err := svc.Enrich(ctx, "s1")
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if !view.IsEmpty() || !view.Total.IsZero() {
		t.Fatalf("expected empty cart, got %+v", view)
	}
}

func TestSubtractKeepsLinesOutsideTheOrder(t *testing.T) {
	svc, _, _ := newCartFixture(t)
	ctx := context.Background()

	if _, err := svc.AddLine(ctx, "s1", 1, 4); err != nil {
		t.Fatalf("add A: %v", err)
	}
	if _, err := svc.AddLine(ctx, "s1", 2, 1); err != nil {
		t.Fatalf("add B: %v", err)
	}

	if err := svc.Subtract(ctx, "s1", []Line{{ProductID: 1, Quantity: 3}, {ProductID: 2, Quantity: 1}}); err != nil {
		t.Fatalf("subtract: %v", err)
	}
	lines, err := svc.Lines(ctx, "s1")
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if len(lines) != 1 || lines[0].ProductID != 1 || lines[0].Quantity != 1 {
		t.Fatalf("expected A x1 left, got %+v", lines)
	}

	if err := svc.Subtract(ctx, "s1", []Line{{ProductID: 1, Quantity: 1}}); err != nil {
		t.Fatalf("subtract rest: %v", err)
	}
	lines, err = svc.Lines(ctx, "s1")
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", lines)
	}

	if err := svc.Subtract(ctx, "", nil); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation without session, got %v", err)
	}
}
