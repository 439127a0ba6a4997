package ledger

import (
	"context"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/db/models"
	pkgerrors "github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/errors"
	"github.com/google/uuid"
)

// Service wraps ledger lookups and the administrative flag override with
// typed errors. The reconciliation engine talks to Repository directly;
// this surface exists for the HTTP controllers.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByReference(ctx context.Context, reference string) (*models.Order, error)
	ClearFlag(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService wires ledger dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindByID(ctx, id, ExpandBuyer, ExpandChef, ExpandMeal)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) GetByReference(ctx context.Context, reference string) (*models.Order, error) {
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}

	order, err := s.repo.FindByReference(ctx, reference, ExpandBuyer, ExpandChef)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// ClearFlag removes a mismatch flag so the next inbound event for the
// order can be reconciled normally. It does not change payment status.
func (s *service) ClearFlag(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	result, err := s.repo.ClearFlag(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear order flag")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if !result.Updated {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not flagged")
	}
	return nil
}
