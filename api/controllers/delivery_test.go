package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/angelmondragon/shopfront/api/middleware"
	"github.com/angelmondragon/shopfront/internal/delivery"
	"github.com/angelmondragon/shopfront/internal/orders"
	"github.com/angelmondragon/shopfront/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopfront/pkg/errors"
)

type stubDelivery struct {
	delivery.Service
	created  delivery.CreateInput
	quoted   delivery.QuoteInput
	status   enums.DeliveryStatus
	courier  string
	tracking string
	err      error
}

func (s *stubDelivery) Quote(_ context.Context, input delivery.QuoteInput) (*delivery.Quote, error) {
	s.quoted = input
	return &delivery.Quote{OrderID: input.OrderID, MethodID: input.MethodID}, s.err
}

func (s *stubDelivery) CreateForOrder(_ context.Context, input delivery.CreateInput) (*delivery.DeliveryDTO, error) {
	s.created = input
	if s.err != nil {
		return nil, s.err
	}
	return &delivery.DeliveryDTO{ID: 1, OrderID: input.OrderID, Type: input.Type, Status: enums.DeliveryStatusPending}, nil
}

func (s *stubDelivery) UpdateStatus(_ context.Context, id uint, status enums.DeliveryStatus) (*delivery.DeliveryDTO, error) {
	s.status = status
	return &delivery.DeliveryDTO{ID: id, Status: status}, s.err
}

func (s *stubDelivery) AssignCourier(_ context.Context, id uint, name, tracking string) (*delivery.DeliveryDTO, error) {
	s.courier, s.tracking = name, tracking
	return &delivery.DeliveryDTO{ID: id, Status: enums.DeliveryStatusInTransit, CourierName: name}, s.err
}

func (s *stubDelivery) ListByOrder(_ context.Context, orderID uint) ([]delivery.DeliveryDTO, error) {
	return []delivery.DeliveryDTO{{ID: 1, OrderID: orderID}}, s.err
}

type stubOwners struct {
	owner uint
}

func (s stubOwners) Get(_ context.Context, userID, orderID uint) (*orders.OrderDTO, error) {
	if userID != s.owner {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return &orders.OrderDTO{ID: orderID, UserID: userID}, nil
}

func asUser(req *http.Request, userID uint) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

func TestDeliveryCreateForOwnOrder(t *testing.T) {
	svc := &stubDelivery{}
	body := strings.NewReader(`{"method_id":1,"type":"home","address":{"recipient_name":"Ada","line1":"1 Main St","postcode":"3053"}}`)
	req := asUser(newRequest(http.MethodPost, "/api/v1/orders/5/delivery", body, map[string]string{"orderID": "5"}), 7)
	resp := serve(DeliveryCreate(svc, stubOwners{owner: 7}, nil), req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.created.OrderID != 5 || svc.created.Type != enums.DeliveryTypeHome || svc.created.UserID == nil || *svc.created.UserID != 7 {
		t.Fatalf("unexpected input %+v", svc.created)
	}
	if svc.created.Address == nil || svc.created.Address.Line1 != "1 Main St" {
		t.Fatalf("expected address forwarded, got %+v", svc.created.Address)
	}
}

func TestDeliveryCreateHidesForeignOrder(t *testing.T) {
	svc := &stubDelivery{}
	body := strings.NewReader(`{"method_id":1,"type":"pickup"}`)
	req := asUser(newRequest(http.MethodPost, "/api/v1/orders/5/delivery", body, map[string]string{"orderID": "5"}), 8)
	resp := serve(DeliveryCreate(svc, stubOwners{owner: 7}, nil), req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if svc.created.OrderID != 0 {
		t.Fatalf("service should not be called")
	}
}

func TestDeliveryCreateValidatesPayload(t *testing.T) {
	cases := []string{
		`{"method_id":1,"type":"drone"}`,
		`{"type":"pickup"}`,
		`{"method_id":1,"type":"home","address":{"line1":"1 Main St"}}`,
		`{"method_id":1,"type":"home","address":{"recipient_name":"Ada","line1":"1 Main St","postcode":"3053","phone_number":"+61 400 000 000 00000"}}`,
	}
	for _, raw := range cases {
		req := asUser(newRequest(http.MethodPost, "/api/v1/orders/5/delivery", strings.NewReader(raw), map[string]string{"orderID": "5"}), 7)
		resp := serve(DeliveryCreate(&stubDelivery{}, stubOwners{owner: 7}, nil), req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", raw, resp.Code)
		}
	}
}

func TestDeliveryCreateAcceptsPhoneAtColumnLimit(t *testing.T) {
	svc := &stubDelivery{}
	body := strings.NewReader(`{"method_id":1,"type":"home","address":{"recipient_name":"Ada","line1":"1 Main St","postcode":"3053","phone_number":"+61 400 000 000 0000"}}`)
	req := asUser(newRequest(http.MethodPost, "/api/v1/orders/5/delivery", body, map[string]string{"orderID": "5"}), 7)
	resp := serve(DeliveryCreate(svc, stubOwners{owner: 7}, nil), req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.created.Address == nil || len(svc.created.Address.PhoneNumber) != 20 {
		t.Fatalf("unexpected address %+v", svc.created.Address)
	}
}

func TestDeliveryCreateOutOfArea(t *testing.T) {
	svc := &stubDelivery{err: pkgerrors.New(pkgerrors.CodeOutOfArea, "address is outside the delivery area")}
	body := strings.NewReader(`{"method_id":1,"type":"courier","address_id":3}`)
	req := asUser(newRequest(http.MethodPost, "/api/v1/orders/5/delivery", body, map[string]string{"orderID": "5"}), 7)
	resp := serve(DeliveryCreate(svc, stubOwners{owner: 7}, nil), req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if svc.created.AddressID == nil || *svc.created.AddressID != 3 {
		t.Fatalf("expected address id forwarded")
	}
}

func TestDeliveryQuoteChecksOwnership(t *testing.T) {
	svc := &stubDelivery{}
	body := strings.NewReader(`{"order_id":5,"method_id":2}`)
	resp := serve(DeliveryQuote(svc, stubOwners{owner: 7}, nil), asUser(newRequest(http.MethodPost, "/api/v1/delivery/quote", body, nil), 7))

	if resp.Code != http.StatusOK || svc.quoted.MethodID != 2 {
		t.Fatalf("unexpected %d %+v", resp.Code, svc.quoted)
	}
	if svc.quoted.UserID == nil || *svc.quoted.UserID != 7 {
		t.Fatalf("expected caller forwarded, got %+v", svc.quoted.UserID)
	}

	body = strings.NewReader(`{"order_id":5,"method_id":2}`)
	resp = serve(DeliveryQuote(svc, stubOwners{owner: 7}, nil), asUser(newRequest(http.MethodPost, "/api/v1/delivery/quote", body, nil), 9))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAdminDeliveryUpdateStatus(t *testing.T) {
	svc := &stubDelivery{}
	body := strings.NewReader(`{"status":"delivered"}`)
	resp := serve(AdminDeliveryUpdateStatus(svc, nil), newRequest(http.MethodPatch, "/api/v1/admin/deliveries/1/status", body, map[string]string{"deliveryID": "1"}))

	if resp.Code != http.StatusOK || svc.status != enums.DeliveryStatusDelivered {
		t.Fatalf("unexpected %d %s", resp.Code, svc.status)
	}

	body = strings.NewReader(`{"status":"lost"}`)
	resp = serve(AdminDeliveryUpdateStatus(svc, nil), newRequest(http.MethodPatch, "/api/v1/admin/deliveries/1/status", body, map[string]string{"deliveryID": "1"}))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminDeliveryAssignCourier(t *testing.T) {
	svc := &stubDelivery{}
	body := strings.NewReader(`{"courier_name":"Sam"}`)
	resp := serve(AdminDeliveryAssignCourier(svc, nil), newRequest(http.MethodPost, "/api/v1/admin/deliveries/1/courier", body, map[string]string{"deliveryID": "1"}))

	if resp.Code != http.StatusOK || svc.courier != "Sam" || svc.tracking != "" {
		t.Fatalf("unexpected %d %+v", resp.Code, svc)
	}
}

func TestOrderDeliveries(t *testing.T) {
	req := asUser(newRequest(http.MethodGet, "/api/v1/orders/5/deliveries", nil, map[string]string{"orderID": "5"}), 7)
	resp := serve(OrderDeliveries(&stubDelivery{}, stubOwners{owner: 7}, nil), req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var rows []delivery.DeliveryDTO
	decodeData(t, resp, &rows)
	if len(rows) != 1 || rows[0].OrderID != 5 {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestDeliveryServiceErrorsAreInternal(t *testing.T) {
	svc := &stubDelivery{err: errors.New("db down")}
	body := strings.NewReader(`{"method_id":1,"type":"pickup"}`)
	req := asUser(newRequest(http.MethodPost, "/api/v1/orders/5/delivery", body, map[string]string{"orderID": "5"}), 7)
	resp := serve(DeliveryCreate(svc, stubOwners{owner: 7}, nil), req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
