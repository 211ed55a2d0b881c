package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/orientwatch/backend/internal/config"
	"github.com/orientwatch/backend/internal/payme"
	"github.com/orientwatch/backend/internal/repository"
)

// Deps are the router's collaborators.
type Deps struct {
	Products    *repository.ProductRepo
	Collections *repository.CollectionRepo
	Orders      *repository.OrderRepo
	Bookings    *repository.BookingRepo
	Content     *repository.ContentRepo
	Settings    *repository.SettingsRepo
	Txns        *repository.TransactionRepo
	Payme       *payme.Dispatcher
	Notifier    Notifier
	Log         zerolog.Logger
}

// NewRouter creates the Chi router with all routes mounted.
func NewRouter(cfg config.Config, d Deps) http.Handler {
	notifier := d.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}

	h := &Handlers{
		products:         d.Products,
		collections:      d.Collections,
		orders:           d.Orders,
		bookings:         d.Bookings,
		content:          d.Content,
		settings:         d.Settings,
		txns:             d.Txns,
		notifier:         notifier,
		baseURL:          cfg.BaseURL,
		distDir:          cfg.DistDir,
		paymeMerchantID:  cfg.PaymeMerchantID,
		paymeCheckoutURL: cfg.PaymeCheckoutURL,
		log:              d.Log,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(d.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/sitemap.xml", h.Sitemap)

	r.Route("/api", func(r chi.Router) {
		// Public storefront.
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Get("/collections", h.ListCollections)
		r.Post("/orders", h.CreateOrder)
		r.Post("/bookings", h.CreateBooking)
		r.Get("/content/{name}", h.GetContentBlock)
		r.Get("/settings/currency", h.GetCurrency)

		// Payment gateway.
		r.Post("/payme/init", h.InitPaymePayment)
		if d.Payme != nil {
			r.Post("/payme/callback", d.Payme.ServeHTTP)
		}

		// Admin.
		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminOnly(cfg.AdminToken))

			r.Post("/products", h.CreateProduct)
			r.Put("/products/{id}", h.UpdateProduct)
			r.Delete("/products/{id}", h.DeleteProduct)
			r.Get("/products/export", h.ExportProducts)
			r.Post("/products/import", h.ImportProducts)

			r.Put("/collections", h.UpsertCollection)
			r.Delete("/collections/{id}", h.DeleteCollection)

			r.Get("/orders", h.ListOrders)
			r.Get("/orders/{number}", h.GetOrder)
			r.Put("/orders/{number}/status", h.UpdateOrderStatus)

			r.Get("/bookings", h.ListBookings)
			r.Put("/bookings/{number}/status", h.UpdateBookingStatus)

			r.Put("/content/{name}", h.PutContentBlock)
			r.Get("/settings", h.GetSettings)
			r.Put("/settings", h.PutSettings)

			r.Get("/transactions", h.ListTransactions)
		})
	})

	// SPA shell with SEO meta, mounted last.
	r.NotFound(h.ServeSPA)

	return r
}
