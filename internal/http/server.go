package http

import (
	"net/http"

	"FundusCheckout/internal/auth"
	"FundusCheckout/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	Router *chi.Mux
}

func NewServer(handler *Handler, sessions auth.SessionValidator) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(metrics.Middleware)
	r.Use(cors)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(sessionAuth(sessions))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", handler.GetCart)
			r.Delete("/", handler.EmptyCart)
			r.Post("/items", handler.AddCartItem)
			r.Patch("/items/{itemId}", handler.UpdateCartItemQuantity)
			r.Delete("/items/{itemId}", handler.RemoveCartItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", handler.CreateOrder)
			r.Get("/{orderId}", handler.GetOrder)
		})

		r.Route("/payments/solana", func(r chi.Router) {
			r.Post("/intent", handler.CreateSolanaIntent)
			r.Post("/confirm", handler.ConfirmSolanaPayment)
			r.Post("/submit", handler.SubmitSignedTransaction)
		})
	})

	return &Server{Router: r}
}
