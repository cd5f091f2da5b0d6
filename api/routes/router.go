package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/supplychain-backend/api/controllers"
	"github.com/angelmondragon/supplychain-backend/api/middleware"
	"github.com/angelmondragon/supplychain-backend/internal/movementlogs"
	"github.com/angelmondragon/supplychain-backend/internal/orders"
	"github.com/angelmondragon/supplychain-backend/internal/payments"
	product "github.com/angelmondragon/supplychain-backend/internal/products"
	"github.com/angelmondragon/supplychain-backend/internal/reporting"
	"github.com/angelmondragon/supplychain-backend/internal/requests"
	"github.com/angelmondragon/supplychain-backend/internal/stock"
	"github.com/angelmondragon/supplychain-backend/internal/users"
	"github.com/angelmondragon/supplychain-backend/pkg/config"
	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	"github.com/angelmondragon/supplychain-backend/pkg/logger"
	"github.com/angelmondragon/supplychain-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/supplychain-backend/pkg/redis"
)

// Services bundles the domain services the API exposes.
type Services struct {
	Users        users.Service
	Products     product.Service
	Requests     requests.Service
	Orders       orders.Service
	Payments     payments.Service
	Stock        stock.Service
	MovementLogs movementlogs.Service
	Reporting    reporting.Service
}

// Deps carries infrastructure handles. Idempotency and Registry may be nil.
type Deps struct {
	Readiness   map[string]controllers.Pinger
	Idempotency pkgredis.IdempotencyStore
	Registry    *prometheus.Registry
	Metrics     *metrics.WorkflowMetrics
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.CORS(cfg.CORS),
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg, deps.Metrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})

	if cfg.Metrics.Enabled && deps.Registry != nil {
		r.Handle(cfg.Metrics.Path, promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{Registry: deps.Registry}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleRetailer))
			r.Get("/distributors", controllers.ListDistributors(svc.Users, logg))
			r.Get("/catalog", controllers.BrowseCatalog(svc.Products, logg))

			r.Route("/retailer", func(r chi.Router) {
				r.Route("/requests", func(r chi.Router) {
					r.Post("/", controllers.RetailerCreateRequest(svc.Requests, logg))
					r.Get("/", controllers.RetailerListRequests(svc.Requests, logg))
					r.Delete("/{requestId}", controllers.RetailerDeleteRequest(svc.Requests, logg))
				})
				r.Route("/orders", func(r chi.Router) {
					r.Get("/", controllers.RetailerListOrders(svc.Orders, logg))
					r.Post("/{orderId}/charge", controllers.RetailerChargeOrder(svc.Payments, logg))
					r.Get("/{orderId}/payments", controllers.RetailerListPayments(svc.Payments, logg))
					r.Post("/{orderId}/reconcile", controllers.RetailerReconcileOrder(svc.Stock, logg))
				})
				r.Route("/stock", func(r chi.Router) {
					r.Get("/", controllers.RetailerListStock(svc.Stock, logg))
					r.Patch("/{stockId}", controllers.RetailerUpdateStock(svc.Stock, logg))
					r.Delete("/{stockId}", controllers.RetailerDeleteStock(svc.Stock, logg))
				})
				r.Get("/movement-logs", controllers.RetailerListMovementLogs(svc.MovementLogs, logg))
			})
		})

		r.Route("/distributor", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleDistributor))
			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.DistributorCreateProduct(svc.Products, logg))
				r.Get("/", controllers.DistributorListProducts(svc.Products, logg))
				r.Patch("/{productId}", controllers.DistributorUpdateProduct(svc.Products, logg))
				r.Delete("/{productId}", controllers.DistributorDeleteProduct(svc.Products, logg))
			})
			r.Route("/requests", func(r chi.Router) {
				r.Get("/", controllers.DistributorListRequests(svc.Requests, logg))
				r.Patch("/{requestId}/status", controllers.DistributorChangeRequestStatus(svc.Requests, logg))
				r.Post("/{requestId}/order", controllers.DistributorCreateOrder(svc.Orders, logg))
			})
			r.Get("/orders", controllers.DistributorListOrders(svc.Orders, logg))
			r.Get("/agents", controllers.ListDeliveryAgents(svc.Users, logg))
		})

		r.Route("/agent", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleDelivery))
			r.Get("/orders", controllers.AgentListOrders(svc.Orders, logg))
			r.Patch("/orders/{orderId}/status", controllers.AgentUpdateOrderStatus(svc.Orders, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleRetailer, enums.UserRoleDistributor))
			r.Get("/requests", controllers.RequestReport(svc.Reporting, logg))
			r.Get("/orders", controllers.OrderReport(svc.Reporting, logg))
			r.Get("/stock", controllers.StockReport(svc.Reporting, logg))
		})
	})

	return r
}
