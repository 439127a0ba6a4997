package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/ledger"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/db/models"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/enums"
	pkgerrors "github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/errors"
)

const defaultVoucherWindow = 30 * time.Minute

// Service places orders. Placement snapshots the meal price and the
// effective commission rate so later edits never change settled money.
type Service interface {
	Place(ctx context.Context, params PlaceParams) (*models.Order, error)
}

type service struct {
	repo           Repository
	ledger         ledger.Repository
	commissionRate decimal.Decimal
	voucherWindow  time.Duration
	now            func() time.Time
}

// PlaceParams describes one order to place.
type PlaceParams struct {
	BuyerID           uuid.UUID
	MealID            uuid.UUID
	Quantity          int
	PaymentMethod     enums.PaymentMethod
	AuthorizationType enums.AuthorizationType
}

// NewService wires order placement dependencies. defaultCommission is the
// platform-wide rate applied when the meal carries no override.
func NewService(repo Repository, ledgerRepo ledger.Repository, defaultCommission decimal.Decimal) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if ledgerRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ledger repository required")
	}
	if defaultCommission.IsNegative() || defaultCommission.GreaterThan(decimal.NewFromInt(1)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission rate must be between 0 and 1")
	}
	return &service{
		repo:           repo,
		ledger:         ledgerRepo,
		commissionRate: defaultCommission,
		voucherWindow:  defaultVoucherWindow,
		now:            func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Place(ctx context.Context, params PlaceParams) (*models.Order, error) {
	if params.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	if params.MealID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "meal id required")
	}
	if params.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !params.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	if params.AuthorizationType == "" {
		params.AuthorizationType = enums.AuthorizationTypeStandard
	}
	if !params.AuthorizationType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown authorization type")
	}

	buyer, err := s.repo.FindUserByID(ctx, params.BuyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer")
	}
	if buyer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "buyer not found")
	}

	meal, err := s.repo.FindMealByID(ctx, params.MealID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load meal")
	}
	if meal == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "meal not found")
	}
	if !meal.Available {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "meal is not available")
	}

	rate := s.commissionRate
	if meal.CommissionRate != nil {
		rate = *meal.CommissionRate
	}

	total := meal.PricePesewas * int64(params.Quantity)
	platform := decimal.NewFromInt(total).Mul(rate).Round(0).IntPart()
	chef := total - platform

	order := &models.Order{
		ID:                      uuid.New(),
		MealID:                  meal.ID,
		BuyerID:                 buyer.ID,
		ChefID:                  meal.ChefID,
		Quantity:                params.Quantity,
		UnitPricePesewas:        meal.PricePesewas,
		TotalPesewas:            total,
		CommissionRate:          rate,
		ChefEarningsPesewas:     chef,
		PlatformEarningsPesewas: platform,
		PaymentMethod:           params.PaymentMethod,
		PaymentStatus:           enums.PaymentStatusPending,
		PaymentReference:        newPaymentReference(),
		AuthorizationType:       params.AuthorizationType,
	}
	if params.AuthorizationType == enums.AuthorizationTypeVoucher {
		expires := s.now().Add(s.voucherWindow)
		order.VoucherExpiresAt = &expires
	}

	if err := s.ledger.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return order, nil
}

func newPaymentReference() string {
	return fmt.Sprintf("PL-%s", uuid.NewString())
}
