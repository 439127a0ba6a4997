package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/api/middleware"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/orders"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/db/models"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/enums"
	pkgerrors "github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/errors"
)

type testOrdersService struct {
	placeFn func(ctx context.Context, params orders.PlaceParams) (*models.Order, error)
}

func (s *testOrdersService) Place(ctx context.Context, params orders.PlaceParams) (*models.Order, error) {
	if s.placeFn != nil {
		return s.placeFn(ctx, params)
	}
	return nil, nil
}

type testLedgerService struct {
	getByIDFn func(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

func (s *testLedgerService) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *testLedgerService) GetByReference(ctx context.Context, reference string) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *testLedgerService) ClearFlag(ctx context.Context, id uuid.UUID) error {
	return nil
}

func TestPlaceOrderSuccess(t *testing.T) {
	buyerID := uuid.New()
	mealID := uuid.New()
	svc := &testOrdersService{
		placeFn: func(ctx context.Context, params orders.PlaceParams) (*models.Order, error) {
			if params.BuyerID != buyerID {
				t.Fatalf("unexpected buyer %s", params.BuyerID)
			}
			if params.MealID != mealID {
				t.Fatalf("unexpected meal %s", params.MealID)
			}
			if params.Quantity != 2 {
				t.Fatalf("unexpected quantity %d", params.Quantity)
			}
			if params.PaymentMethod != enums.PaymentMethodMobileMoney {
				t.Fatalf("unexpected method %s", params.PaymentMethod)
			}
			if params.AuthorizationType != enums.AuthorizationTypeVoucher {
				t.Fatalf("unexpected auth type %s", params.AuthorizationType)
			}
			return &models.Order{ID: uuid.New(), BuyerID: buyerID, PaymentReference: "PL-test"}, nil
		},
	}

	body := `{"meal_id":"` + mealID.String() + `","quantity":2,"payment_method":"mobile_money","authorization_type":"voucher"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), buyerID.String()))
	resp := httptest.NewRecorder()
	PlaceOrder(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d (%s)", resp.Code, resp.Body.String())
	}
}

func TestPlaceOrderRejectsUnknownPaymentMethod(t *testing.T) {
	body := `{"meal_id":"` + uuid.NewString() + `","quantity":1,"payment_method":"barter"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
	resp := httptest.NewRecorder()
	PlaceOrder(&testOrdersService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestPlaceOrderRequiresIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	PlaceOrder(&testOrdersService{}, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestGetOrderHidesOtherUsersOrders(t *testing.T) {
	orderID := uuid.New()
	svc := &testLedgerService{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
			return &models.Order{ID: id, BuyerID: uuid.New(), ChefID: uuid.New()}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	req = withURLParam(req, "orderId", orderID.String())
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	ctx = middleware.WithRole(ctx, string(enums.UserRoleBuyer))
	req = req.WithContext(ctx)
	resp := httptest.NewRecorder()
	GetOrder(svc, testLogger())(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestGetOrderAllowsBuyerAndAdmin(t *testing.T) {
	orderID := uuid.New()
	buyerID := uuid.New()
	svc := &testLedgerService{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
			return &models.Order{ID: id, BuyerID: buyerID, ChefID: uuid.New()}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	req = withURLParam(req, "orderId", orderID.String())
	ctx := middleware.WithUserID(req.Context(), buyerID.String())
	ctx = middleware.WithRole(ctx, string(enums.UserRoleBuyer))
	req = req.WithContext(ctx)
	resp := httptest.NewRecorder()
	GetOrder(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("buyer: expected 200, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	req = withURLParam(req, "orderId", orderID.String())
	ctx = middleware.WithUserID(req.Context(), uuid.NewString())
	ctx = middleware.WithRole(ctx, string(enums.UserRoleAdmin))
	req = req.WithContext(ctx)
	resp = httptest.NewRecorder()
	GetOrder(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", resp.Code)
	}
}
