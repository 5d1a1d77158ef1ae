package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "github.com/mmeshcher/grabmart-system/internal/middleware"
)

func orderIDParam(r *http.Request) string {
	return chi.URLParam(r, "orderID")
}

// SetupRouter настраивает HTTP-маршруты и middleware сервиса грабмарт.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(MetricsMiddleware)

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Post("/orders/grab", h.GrabOrder)
			r.Post("/orders/{orderID}/confirm", h.ConfirmOrder)
			r.Delete("/orders/{orderID}", h.CancelOrder)
			r.Get("/orders", h.GetOrders)

			r.Get("/balance", h.GetBalance)
			r.Get("/transactions", h.GetTransactions)
			r.Post("/balance/deposit", h.Deposit)
			r.Post("/balance/withdraw", h.Withdraw)

			r.Get("/products", h.GetProducts)
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(h.authMiddleware.Middleware)
		r.Use(h.authMiddleware.RequireAdmin)

		r.Get("/users", h.ListUsers)
		r.Put("/users/{userID}/policy", h.UpdateUserPolicy)
		r.Put("/users/{userID}/status", h.UpdateUserStatus)
		r.Put("/users/{userID}/level", h.UpdateUserLevel)
		r.Put("/users/{userID}/balance", h.UpdateUserBalance)
		r.Post("/users/{userID}/reset-orders", h.ResetUserOrders)

		r.Get("/transactions", h.ListTransactions)
		r.Post("/transactions", h.CreateTransaction)
		r.Post("/transactions/{txID}/approve", h.ApproveTransaction)
		r.Post("/transactions/{txID}/reject", h.RejectTransaction)
		r.Delete("/transactions/{txID}", h.DeleteTransaction)

		r.Post("/products", h.CreateProduct)
		r.Put("/products/{productID}", h.UpdateProduct)
		r.Delete("/products/{productID}", h.DeleteProduct)

		r.Get("/config", h.GetSystemConfig)
		r.Put("/config", h.UpdateSystemConfig)
		r.Get("/levels", h.ListLevelConfigs)
		r.Put("/levels", h.UpsertLevelConfig)
		r.Delete("/levels/{level}", h.DeleteLevelConfig)

		r.Get("/codes", h.ListRegistrationCodes)
		r.Post("/codes", h.CreateRegistrationCode)
		r.Post("/codes/{codeID}/expire", h.ExpireRegistrationCode)
		r.Delete("/codes/{codeID}", h.DeleteRegistrationCode)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
