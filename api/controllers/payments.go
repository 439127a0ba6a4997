package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/api/responses"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/reconcile"
	pkgerrors "github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/errors"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/logger"
)

type paymentVerifier interface {
	Verify(ctx context.Context, reference string) (*reconcile.VerifyResult, error)
}

// VerifyPayment reconciles one order synchronously against the provider's
// current view of the transaction. It is the fallback for missed webhooks.
func VerifyPayment(svc paymentVerifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "verify service unavailable"))
			return
		}

		reference := strings.TrimSpace(chi.URLParam(r, "reference"))
		if reference == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required"))
			return
		}

		result, err := svc.Verify(r.Context(), reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
