package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/trade-journal/internal/models"
	"github.com/trogers1052/trade-journal/internal/portfolio"
	"go.uber.org/zap"
)

// TradeRepository persists trades
type TradeRepository interface {
	CreateTrade(ctx context.Context, t *models.Trade) error
	GetTradeByID(ctx context.Context, userID, id string) (*models.Trade, error)
	GetTradesByUser(ctx context.Context, userID string) ([]*models.Trade, error)
	UpdateTrade(ctx context.Context, t *models.Trade) error
	DeleteTrade(ctx context.Context, userID, id string) error
}

// SnapshotCache holds a user's trade list between changes.
// SetSnapshot stores only if no invalidation happened since generation was read.
type SnapshotCache interface {
	GetSnapshot(ctx context.Context, userID string) ([]*models.Trade, bool, error)
	SnapshotGeneration(ctx context.Context, userID string) (int64, error)
	SetSnapshot(ctx context.Context, userID string, generation int64, trades []*models.Trade) (bool, error)
	InvalidateSnapshot(ctx context.Context, userID string) error
}

// EventPublisher announces journal changes
type EventPublisher interface {
	PublishTradeCreated(ctx context.Context, trade *models.Trade) error
	PublishTradeUpdated(ctx context.Context, trade *models.Trade) error
	PublishTradeDeleted(ctx context.Context, userID, tradeID string) error
}

// Options configures a Service
type Options struct {
	// DefaultFeeDiscount applies when a submission carries no discount
	DefaultFeeDiscount decimal.Decimal
	// Location decides which calendar day "today" is for period sums
	Location *time.Location
	// Now defaults to time.Now
	Now func() time.Time
}

// Service is the trade journal: submissions, edits, deletes and statistics
type Service struct {
	repo      TradeRepository
	cache     SnapshotCache
	publisher EventPublisher
	logger    *zap.Logger

	defaultDiscount decimal.Decimal
	location        *time.Location
	now             func() time.Time
}

// NewService creates a journal service
func NewService(repo TradeRepository, cache SnapshotCache, publisher EventPublisher, logger *zap.Logger, opts Options) *Service {
	s := &Service{
		repo:            repo,
		cache:           cache,
		publisher:       publisher,
		logger:          logger,
		defaultDiscount: opts.DefaultFeeDiscount,
		location:        opts.Location,
		now:             opts.Now,
	}
	if s.defaultDiscount.IsZero() {
		s.defaultDiscount = portfolio.DefaultFeeDiscount
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// DefaultFeeDiscount returns the discount used when a submission omits one
func (s *Service) DefaultFeeDiscount() decimal.Decimal {
	return s.defaultDiscount
}

// Create validates and records a closed trade for userID
func (s *Service) Create(ctx context.Context, userID string, in portfolio.TradeInput) (*models.Trade, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	trade := &models.Trade{UserID: userID}
	in.Apply(trade, in.Discount(s.defaultDiscount))

	if err := s.repo.CreateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to save trade: %w", err)
	}

	s.logger.Info("trade created",
		zap.String("user_id", userID),
		zap.String("trade_id", trade.ID),
		zap.String("symbol", trade.Symbol),
		zap.String("costs", trade.Costs.String()),
	)
	s.changed(ctx, userID)
	if err := s.publisher.PublishTradeCreated(ctx, trade); err != nil {
		s.logPublishError(err, models.EventTradeCreated, userID, trade.ID)
	}
	return trade, nil
}

// Update replaces the editable fields of a trade and recomputes its costs
// from the edited values and the discount given now.
func (s *Service) Update(ctx context.Context, userID, id string, in portfolio.TradeInput) (*models.Trade, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	trade, err := s.repo.GetTradeByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade: %w", err)
	}

	in.Apply(trade, in.Discount(s.defaultDiscount))
	if err := s.repo.UpdateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to update trade: %w", err)
	}

	s.logger.Info("trade updated",
		zap.String("user_id", userID),
		zap.String("trade_id", trade.ID),
		zap.String("costs", trade.Costs.String()),
	)
	s.changed(ctx, userID)
	if err := s.publisher.PublishTradeUpdated(ctx, trade); err != nil {
		s.logPublishError(err, models.EventTradeUpdated, userID, trade.ID)
	}
	return trade, nil
}

// Delete permanently removes a trade
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteTrade(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}

	s.logger.Info("trade deleted", zap.String("user_id", userID), zap.String("trade_id", id))
	s.changed(ctx, userID)
	if err := s.publisher.PublishTradeDeleted(ctx, userID, id); err != nil {
		s.logPublishError(err, models.EventTradeDeleted, userID, id)
	}
	return nil
}

// Get returns one of the user's trades
func (s *Service) Get(ctx context.Context, userID, id string) (*models.Trade, error) {
	trade, err := s.repo.GetTradeByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade: %w", err)
	}
	return trade, nil
}

// List returns the user's trades ordered by date with profit derived on every trade
func (s *Service) List(ctx context.Context, userID string) ([]*models.Trade, error) {
	trades, ok, err := s.cache.GetSnapshot(ctx, userID)
	if err != nil {
		s.logger.Warn("snapshot cache read failed", zap.String("user_id", userID), zap.Error(err))
	}
	if ok {
		return trades, nil
	}

	// read before the rows so a write landing in between is detected
	gen, genErr := s.cache.SnapshotGeneration(ctx, userID)
	if genErr != nil {
		s.logger.Warn("snapshot generation read failed", zap.String("user_id", userID), zap.Error(genErr))
	}

	trades, err = s.repo.GetTradesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}
	portfolio.Hydrate(trades)

	if genErr != nil {
		return trades, nil
	}
	stored, err := s.cache.SetSnapshot(ctx, userID, gen, trades)
	if err != nil {
		s.logger.Warn("snapshot cache write failed", zap.String("user_id", userID), zap.Error(err))
	} else if !stored {
		s.logger.Debug("snapshot skipped, trades changed during read", zap.String("user_id", userID))
	}
	return trades, nil
}

// Stats computes the user's portfolio statistics as of now
func (s *Service) Stats(ctx context.Context, userID string) (*models.PortfolioStats, error) {
	trades, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return portfolio.ComputeStats(trades, s.reference()), nil
}

// View returns the user's trades together with their statistics
func (s *Service) View(ctx context.Context, userID string) (*models.PortfolioView, error) {
	trades, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.PortfolioView{
		Trades: trades,
		Stats:  portfolio.ComputeStats(trades, s.reference()),
	}, nil
}

// Preview prices a hypothetical trade without recording it
func (s *Service) Preview(entryPrice, exitPrice, quantity decimal.Decimal, feeDiscount *decimal.Decimal) (portfolio.CostBreakdown, error) {
	discount := s.defaultDiscount
	if feeDiscount != nil {
		if err := portfolio.ValidateFeeDiscount(*feeDiscount); err != nil {
			return portfolio.CostBreakdown{}, err
		}
		discount = *feeDiscount
	}
	in := portfolio.TradeInput{
		Symbol:     "PREVIEW",
		EntryPrice: entryPrice,
		ExitPrice:  exitPrice,
		Quantity:   quantity,
		Date:       s.reference().Format(models.DateLayout),
	}
	if err := in.Validate(); err != nil {
		return portfolio.CostBreakdown{}, err
	}
	return portfolio.CostLegs(entryPrice, exitPrice, quantity, discount), nil
}

func (s *Service) reference() time.Time {
	return s.now().In(s.location)
}

func (s *Service) changed(ctx context.Context, userID string) {
	if err := s.cache.InvalidateSnapshot(ctx, userID); err != nil {
		s.logger.Warn("snapshot cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *Service) logPublishError(err error, eventType, userID, tradeID string) {
	s.logger.Error("failed to publish trade event",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.String("trade_id", tradeID),
		zap.Error(err),
	)
}
