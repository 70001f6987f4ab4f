package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/freshoils/freshoils-backend/api/middleware"
	"github.com/freshoils/freshoils-backend/internal/orders"
	pkgerrors "github.com/freshoils/freshoils-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type stubOrdersService struct {
	order   *orders.OrderDTO
	list    []orders.OrderDTO
	summary *orders.SummaryDTO
	err     error
}

func (s stubOrdersService) Create(ctx context.Context, userID uint, req orders.CreateOrderRequest) (*orders.OrderDTO, error) {
	return s.order, s.err
}

func (s stubOrdersService) ListForUser(ctx context.Context, userID uint) ([]orders.OrderDTO, error) {
	return s.list, s.err
}

func (s stubOrdersService) AdminList(ctx context.Context) ([]orders.OrderDTO, error) {
	return s.list, s.err
}

func (s stubOrdersService) AdminUpdateStatus(ctx context.Context, orderID uint, req orders.UpdateStatusRequest) (*orders.OrderDTO, error) {
	return s.order, s.err
}

func (s stubOrdersService) Summary(ctx context.Context) (*orders.SummaryDTO, error) {
	return s.summary, s.err
}

func authedRequest(method, path, body string, userID uint) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

func TestCreateOrderReturns201(t *testing.T) {
	handler := CreateOrder(stubOrdersService{order: &orders.OrderDTO{ID: 1, UserID: 7}}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/orders", `{"items":[{"product_id":1,"quantity":2}]}`, 7))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
}

func TestCreateOrderWithoutIdentityIs401(t *testing.T) {
	handler := CreateOrder(stubOrdersService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader([]byte(`{"items":[{"product_id":1,"quantity":2}]}`)))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCreateOrderEmptyItemsIs400(t *testing.T) {
	handler := CreateOrder(stubOrdersService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/orders", `{"items":[]}`, 7))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListOrdersReturnsOwnOrders(t *testing.T) {
	handler := ListOrders(stubOrdersService{list: []orders.OrderDTO{{ID: 2, UserID: 7}}}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/orders", "", 7))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func patchOrderRequest(orderID, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPatch, "/admin/orders/"+orderID, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", orderID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestAdminUpdateOrderStatusSuccess(t *testing.T) {
	handler := AdminUpdateOrderStatus(stubOrdersService{order: &orders.OrderDTO{ID: 5}}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, patchOrderRequest("5", `{"status":"Shipped"}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAdminUpdateOrderStatusBlockedTransitionIs422(t *testing.T) {
	handler := AdminUpdateOrderStatus(stubOrdersService{
		err: pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move order from Delivered to Pending"),
	}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, patchOrderRequest("5", `{"status":"Pending"}`))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestAdminUpdateOrderStatusBadIDIs400(t *testing.T) {
	handler := AdminUpdateOrderStatus(stubOrdersService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, patchOrderRequest("not-a-number", `{"status":"Shipped"}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminAnalyticsSuccess(t *testing.T) {
	handler := AdminAnalytics(stubOrdersService{summary: &orders.SummaryDTO{
		TotalOrders:     3,
		TotalRevenue:    decimal.RequireFromString("1350.00"),
		PendingOrders:   1,
		CompletedOrders: 1,
	}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/analytics", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
