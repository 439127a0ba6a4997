package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/reconcile"
	pkgerrors "github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/errors"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/logger"
)

type testVerifyService struct {
	verifyFn func(ctx context.Context, reference string) (*reconcile.VerifyResult, error)
}

func (s *testVerifyService) Verify(ctx context.Context, reference string) (*reconcile.VerifyResult, error) {
	if s.verifyFn != nil {
		return s.verifyFn(ctx, reference)
	}
	return nil, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestVerifyPaymentReturnsOutcome(t *testing.T) {
	svc := &testVerifyService{
		verifyFn: func(ctx context.Context, reference string) (*reconcile.VerifyResult, error) {
			if reference != "PL-abc123" {
				t.Fatalf("unexpected reference %s", reference)
			}
			return &reconcile.VerifyResult{Outcome: reconcile.OutcomePaid}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify/PL-abc123", nil)
	req = withURLParam(req, "reference", "PL-abc123")
	resp := httptest.NewRecorder()
	VerifyPayment(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d (%s)", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data reconcile.VerifyResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Outcome != reconcile.OutcomePaid {
		t.Fatalf("unexpected outcome %s", envelope.Data.Outcome)
	}
}

func TestVerifyPaymentRequiresReference(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify/", nil)
	req = withURLParam(req, "reference", "")
	resp := httptest.NewRecorder()
	VerifyPayment(&testVerifyService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestVerifyPaymentPropagatesServiceError(t *testing.T) {
	svc := &testVerifyService{
		verifyFn: func(ctx context.Context, reference string) (*reconcile.VerifyResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify/PL-missing", nil)
	req = withURLParam(req, "reference", "PL-missing")
	resp := httptest.NewRecorder()
	VerifyPayment(svc, testLogger())(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
