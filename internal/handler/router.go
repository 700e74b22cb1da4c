package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/kleanloop/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса KleanLoop.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/profile", h.GetProfile)
			r.Get("/quote", h.Quote)

			r.Post("/transactions", h.CreateTransaction)
			r.Get("/transactions", h.GetTransactions)
			r.Get("/transactions/{id}", h.GetTransaction)
			r.Post("/transactions/{id}/cancel", h.CancelTransaction)

			r.Get("/credits/packages", h.GetCreditPackages)
			r.Post("/credits", h.PurchaseCredits)
			r.Get("/credits", h.GetCredits)
			r.Get("/credits/total", h.GetTotalCredits)

			r.Get("/notifications", h.GetNotifications)
			r.Get("/notifications/unread", h.GetUnreadCount)
			r.Post("/notifications/read", h.MarkAllNotificationsRead)
			r.Post("/notifications/{id}/read", h.MarkNotificationRead)
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(h.adminMiddleware.Middleware)

		r.Get("/transactions", h.AdminListTransactions)
		r.Post("/transactions/{id}/approve", h.ApproveTransaction)
		r.Post("/transactions/{id}/reject", h.RejectTransaction)
		r.Get("/credits", h.AdminListCredits)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
