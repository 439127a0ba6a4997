package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/api/responses"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/api/validators"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/eventlog"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/ledger"
	pkgerrors "github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/errors"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/logger"
)

// ClearOrderFlag removes a mismatch flag after an admin has reviewed the
// order. The order returns to pending and the next provider event can
// settle it.
func ClearOrderFlag(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
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

		if err := svc.ClearFlag(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

// ListPaymentEvents returns the audit trail of inbound provider events
// for one payment reference.
func ListPaymentEvents(svc eventlog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event log unavailable"))
			return
		}

		reference := strings.TrimSpace(r.URL.Query().Get("reference"))
		if reference == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "reference is required"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), eventlog.ListParams{
			Reference: reference,
			Limit:     limit,
			Cursor:    strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
