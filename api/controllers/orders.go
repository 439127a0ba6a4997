package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/api/middleware"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/api/responses"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/api/validators"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/ledger"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/orders"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/enums"
	pkgerrors "github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/errors"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/logger"
)

type placeOrderRequest struct {
	MealID            string `json:"meal_id" validate:"required,uuid"`
	Quantity          int    `json:"quantity" validate:"required,gt=0"`
	PaymentMethod     string `json:"payment_method" validate:"required"`
	AuthorizationType string `json:"authorization_type" validate:"omitempty"`
}

// PlaceOrder creates a pending order for the authenticated buyer and
// returns the payment reference the provider settles against.
func PlaceOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		buyerID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var req placeOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mealID, err := uuid.Parse(req.MealID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid meal id"))
			return
		}

		method, err := enums.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		var authType enums.AuthorizationType
		if raw := strings.TrimSpace(req.AuthorizationType); raw != "" {
			authType, err = enums.ParseAuthorizationType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid authorization type"))
				return
			}
		}

		order, err := svc.Place(r.Context(), orders.PlaceParams{
			BuyerID:           buyerID,
			MealID:            mealID,
			Quantity:          req.Quantity,
			PaymentMethod:     method,
			AuthorizationType: authType,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// GetOrder returns one order. Buyers and chefs only see their own orders;
// admins see everything.
func GetOrder(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		orderID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "orderId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		order, err := svc.GetByID(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if middleware.RoleFromContext(r.Context()) != string(enums.UserRoleAdmin) {
			userID := middleware.UserIDFromContext(r.Context())
			if userID != order.BuyerID.String() && userID != order.ChefID.String() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user"))
				return
			}
		}
		responses.WriteSuccess(w, order)
	}
}
