package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/seung7-arch/als-deli-website/internal/config"
	"github.com/seung7-arch/als-deli-website/internal/handlers"
)

type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handlers   *handlers.Handlers
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handlers) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		handlers: h,
	}

	router := s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

func (s *Server) Run() error {
	s.logger.Info("server starting", "port", s.cfg.Port)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) buildRouter() *mux.Router {
	h := s.handlers

	r := mux.NewRouter()
	r.Use(h.CORS)
	r.Use(h.RequestLogger)
	r.Use(h.MetricsContext)
	r.Use(h.SecurityHeaders)

	r.HandleFunc("/health", h.Health).Methods("GET").Name("health")

	r.HandleFunc("/create-checkout-session", h.CreateCheckoutSession).Methods("POST").Name("checkout.session")
	r.HandleFunc("/create-payment-intent", h.CreatePaymentIntent).Methods("POST").Name("checkout.intent")
	r.HandleFunc("/stripe-webhook", h.StripeWebhook).Methods("POST").Name("webhooks.stripe")
	r.HandleFunc("/order-status", h.OrderStatus).Methods("GET").Name("orders.status")
	r.HandleFunc("/mark-cashier", h.MarkCashier).Methods("POST").Name("orders.cashier")
	r.HandleFunc("/process-refund", h.ProcessRefund).Methods("POST").Name("orders.refund")

	r.HandleFunc("/cart/{cartID}", h.GetCart).Methods("GET").Name("cart.get")
	r.HandleFunc("/cart/{cartID}", h.ClearCart).Methods("DELETE").Name("cart.clear")
	r.HandleFunc("/cart/{cartID}/items", h.AddCartItem).Methods("POST").Name("cart.items.add")
	r.HandleFunc("/cart/{cartID}/items/{index}", h.RemoveCartItem).Methods("DELETE").Name("cart.items.remove")

	// mux skips middleware for these two, so they carry their own CORS
	// headers. OPTIONS preflights for method-matched routes land on the
	// MethodNotAllowedHandler and must be answered there.
	r.NotFoundHandler = handlers.NotFound()
	r.MethodNotAllowedHandler = handlers.MethodNotAllowed()

	return r
}
