package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MarkG-sudo/Potluck-ABSA-sub000/api/controllers"
	webhookcontrollers "github.com/MarkG-sudo/Potluck-ABSA-sub000/api/controllers/webhooks"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/api/middleware"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/eventlog"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/ledger"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/notifications"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/orders"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/reconcile"
	paystackwebhook "github.com/MarkG-sudo/Potluck-ABSA-sub000/internal/webhooks/paystack"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/config"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/enums"
	"github.com/MarkG-sudo/Potluck-ABSA-sub000/pkg/logger"
)

// AdminAlerter raises operator-facing notifications from the HTTP surface.
type AdminAlerter interface {
	AdminAlert(ctx context.Context, title, message string, link *string) error
}

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger

	Health controllers.HealthDeps

	Verifier   *paystackwebhook.Verifier
	Guard      *reconcile.Guard
	Dispatcher *reconcile.Dispatcher
	VerifySvc  *reconcile.VerifyService

	EventLog      eventlog.Service
	Ledger        ledger.Service
	Orders        orders.Service
	Notifications notifications.Service
	Alerts        AdminAlerter

	Metrics prometheus.Gatherer
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.Health))
	})

	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	// provider callbacks carry their own signature, not a user identity
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/paystack", webhookcontrollers.PaystackWebhook(p.Verifier, p.Guard, p.Dispatcher, p.EventLog, p.Alerts, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Identity(logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/orders", func(r chi.Router) {
			r.Post("/", controllers.PlaceOrder(p.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(p.Ledger, logg))
		})

		r.Route("/v1/payments", func(r chi.Router) {
			r.Post("/verify/{reference}", controllers.VerifyPayment(p.VerifySvc, logg))
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Identity(logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

		r.Get("/ping", controllers.AdminPing())
		r.Route("/v1/orders", func(r chi.Router) {
			r.Post("/{orderId}/clear-flag", controllers.ClearOrderFlag(p.Ledger, logg))
		})
		r.Get("/v1/payment-events", controllers.ListPaymentEvents(p.EventLog, logg))
		r.Get("/v1/notifications", controllers.ListAdminNotifications(p.Notifications, logg))
	})

	return r
}
