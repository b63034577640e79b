// Package handlers provides the HTTP surface for the ordering backend.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/seung7-arch/als-deli-website/internal/cache"
	"github.com/seung7-arch/als-deli-website/internal/cart"
	"github.com/seung7-arch/als-deli-website/internal/config"
	"github.com/seung7-arch/als-deli-website/internal/logging"
	"github.com/seung7-arch/als-deli-website/internal/models"
	"github.com/seung7-arch/als-deli-website/internal/services"
)

const maxRequestBodyBytes = 1 << 20 // 1 MB

// Handlers provides HTTP request handlers for the ordering API.
type Handlers struct {
	config          *config.Config
	db              *pgxpool.Pool
	cacheProvider   cache.Provider
	cartStore       *cart.Store
	checkoutService *services.CheckoutService
	statusService   *services.StatusService
	cashierService  *services.CashierService
	refundService   *services.RefundService
	stripeRouter    *StripeEventRouter
	validate        *validator.Validate
	logger          *slog.Logger
}

type Dependencies struct {
	Config          *config.Config
	DB              *pgxpool.Pool
	CacheProvider   cache.Provider
	CartStore       *cart.Store
	CheckoutService *services.CheckoutService
	StatusService   *services.StatusService
	CashierService  *services.CashierService
	RefundService   *services.RefundService
	StripeRouter    *StripeEventRouter
	Logger          *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("handlers dependencies: db is required")
	}
	if deps.CacheProvider == nil {
		return nil, fmt.Errorf("handlers dependencies: cacheProvider is required")
	}
	if deps.CartStore == nil {
		return nil, fmt.Errorf("handlers dependencies: cartStore is required")
	}
	if deps.CheckoutService == nil {
		return nil, fmt.Errorf("handlers dependencies: checkoutService is required")
	}
	if deps.StatusService == nil {
		return nil, fmt.Errorf("handlers dependencies: statusService is required")
	}
	if deps.CashierService == nil {
		return nil, fmt.Errorf("handlers dependencies: cashierService is required")
	}
	if deps.RefundService == nil {
		return nil, fmt.Errorf("handlers dependencies: refundService is required")
	}
	if deps.StripeRouter == nil {
		return nil, fmt.Errorf("handlers dependencies: stripeRouter is required")
	}

	return &Handlers{
		config:          deps.Config,
		db:              deps.DB,
		cacheProvider:   deps.CacheProvider,
		cartStore:       deps.CartStore,
		checkoutService: deps.CheckoutService,
		statusService:   deps.StatusService,
		cashierService:  deps.CashierService,
		refundService:   deps.RefundService,
		stripeRouter:    deps.StripeRouter,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
		logger:          logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if err := h.db.Ping(ctx); err != nil {
		logger.Error("database health check failed", "error", err)
		http.Error(w, "Database unhealthy", http.StatusServiceUnavailable)
		return
	}

	h.writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}

// decodeJSON reads a size-capped JSON body into dst and runs struct
// validation on it.
func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// requestItem is a cart line as clients submit it, with the unit price in
// dollars. Everything downstream works in cents.
type requestItem struct {
	Name      string   `json:"name" validate:"required"`
	Price     float64  `json:"price" validate:"gt=0"`
	Quantity  int64    `json:"quantity" validate:"min=1"`
	Modifiers []string `json:"modifiers"`
}

func lineItemsFromRequest(items []requestItem) []models.LineItem {
	converted := make([]models.LineItem, 0, len(items))
	for _, item := range items {
		converted = append(converted, models.LineItem{
			Name:           item.Name,
			UnitPriceCents: dollarsToCents(item.Price),
			Quantity:       item.Quantity,
			Modifiers:      item.Modifiers,
		})
	}
	return converted
}

func dollarsToCents(dollars float64) int64 {
	return decimal.NewFromFloat(dollars).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func centsToDollars(cents int64) float64 {
	value, _ := decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).Float64()
	return value
}
