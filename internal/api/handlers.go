package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/trade-journal/internal/auth"
	"github.com/trogers1052/trade-journal/internal/chart"
	"github.com/trogers1052/trade-journal/internal/database"
	"github.com/trogers1052/trade-journal/internal/models"
	"github.com/trogers1052/trade-journal/internal/portfolio"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Journal is the trade journal as seen by the HTTP layer
type Journal interface {
	Create(ctx context.Context, userID string, in portfolio.TradeInput) (*models.Trade, error)
	Update(ctx context.Context, userID, id string, in portfolio.TradeInput) (*models.Trade, error)
	Delete(ctx context.Context, userID, id string) error
	Get(ctx context.Context, userID, id string) (*models.Trade, error)
	List(ctx context.Context, userID string) ([]*models.Trade, error)
	Stats(ctx context.Context, userID string) (*models.PortfolioStats, error)
	View(ctx context.Context, userID string) (*models.PortfolioView, error)
	Preview(entryPrice, exitPrice, quantity decimal.Decimal, feeDiscount *decimal.Decimal) (portfolio.CostBreakdown, error)
}

// Authenticator signs users in and resolves session tokens
type Authenticator interface {
	Register(ctx context.Context, email, password, displayName string) (*auth.Session, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	Anonymous(ctx context.Context) (*auth.Session, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	Logout(ctx context.Context, token string) error
}

// Streamer delivers live portfolio views
type Streamer interface {
	Subscribe(ctx context.Context, userID string) (<-chan *models.PortfolioView, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	journal Journal
	auth    Authenticator
	stream  Streamer
	logger  *zap.Logger
}

// NewHandler creates a new Handler
func NewHandler(journal Journal, authenticator Authenticator, stream Streamer, logger *zap.Logger) *Handler {
	return &Handler{
		journal: journal,
		auth:    authenticator,
		stream:  stream,
		logger:  logger,
	}
}

// ListTrades handles GET /trades
func (h *Handler) ListTrades(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	trades, err := h.journal.List(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, trades)
}

// GetTrade handles GET /trades/{id}
func (h *Handler) GetTrade(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	trade, err := h.journal.Get(r.Context(), user.ID, mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, trade)
}

// CreateTrade handles POST /trades with a JSON or form-encoded body
func (h *Handler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	in, err := decodeTradeInput(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	trade, err := h.journal.Create(r.Context(), user.ID, in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, trade)
}

// UpdateTrade handles PUT /trades/{id}
func (h *Handler) UpdateTrade(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	in, err := decodeTradeInput(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	trade, err := h.journal.Update(r.Context(), user.ID, mux.Vars(r)["id"], in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, trade)
}

// DeleteTrade handles DELETE /trades/{id}?confirm=true
func (h *Handler) DeleteTrade(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	if r.URL.Query().Get("confirm") != "true" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "deleting a trade is permanent; repeat with confirm=true"})
		return
	}

	if err := h.journal.Delete(r.Context(), user.ID, mux.Vars(r)["id"]); err != nil {
		h.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetStats handles GET /stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	stats, err := h.journal.Stats(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// GetDashboard handles GET /dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	view, err := h.journal.View(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// GetEquityChart handles GET /stats/chart.png
func (h *Handler) GetEquityChart(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	stats, err := h.journal.Stats(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := chart.RenderEquityCurve(stats.ChartData, w); err != nil {
		h.logger.Error("failed to render equity curve", zap.String("user_id", user.ID), zap.Error(err))
	}
}

// PreviewCosts handles GET /costs
func (h *Handler) PreviewCosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var perr error
	parse := func(name string) decimal.Decimal {
		d, err := decimal.NewFromString(q.Get(name))
		if err != nil {
			perr = multierr.Append(perr, fmt.Errorf("%w: %s must be a number", portfolio.ErrInvalidInput, name))
		}
		return d
	}
	entry := parse("entry_price")
	exit := parse("exit_price")
	qty := parse("quantity")
	var discount *decimal.Decimal
	if q.Get("fee_discount") != "" {
		d := parse("fee_discount")
		discount = &d
	}
	if perr != nil {
		h.respondError(w, r, perr)
		return
	}

	legs, err := h.journal.Preview(entry, exit, qty, discount)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, costsResponse{
		BuyFee:  legs.BuyFee,
		SellFee: legs.SellFee,
		Tax:     legs.Tax,
		Costs:   legs.Total,
	})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type costsResponse struct {
	BuyFee  decimal.Decimal `json:"buy_fee"`
	SellFee decimal.Decimal `json:"sell_fee"`
	Tax     decimal.Decimal `json:"tax"`
	Costs   decimal.Decimal `json:"costs"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func decodeTradeInput(r *http.Request) (portfolio.TradeInput, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return portfolio.TradeInput{}, fmt.Errorf("%w: %v", portfolio.ErrInvalidInput, err)
		}
		return portfolio.ParseTradeInput(portfolio.RawTradeInput{
			Symbol:      r.PostForm.Get("symbol"),
			EntryPrice:  r.PostForm.Get("entry_price"),
			ExitPrice:   r.PostForm.Get("exit_price"),
			Quantity:    r.PostForm.Get("quantity"),
			Date:        r.PostForm.Get("date"),
			FeeDiscount: r.PostForm.Get("fee_discount"),
		})
	}

	var in portfolio.TradeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return portfolio.TradeInput{}, fmt.Errorf("%w: invalid request body", portfolio.ErrInvalidInput)
	}
	return in, nil
}

// respondError maps domain errors to status codes. Unexpected errors are logged
// and reported with a generic message so the client can retry.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, portfolio.ErrInvalidInput), errors.Is(err, auth.ErrInvalidRegistration):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, database.ErrConflict):
		status = http.StatusConflict
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "the request could not be completed, please try again"})
		return
	}

	resp := errorResponse{Error: err.Error()}
	if errs := multierr.Errors(err); len(errs) > 1 {
		for _, e := range errs {
			resp.Details = append(resp.Details, e.Error())
		}
	}
	respondJSON(w, status, resp)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
