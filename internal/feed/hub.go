package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/trogers1052/trade-journal/internal/models"
	"go.uber.org/zap"
)

// Loader builds the current view of a user's journal
type Loader interface {
	View(ctx context.Context, userID string) (*models.PortfolioView, error)
}

type subscription struct {
	userID string
	ch     chan *models.PortfolioView
	// seq of the last view delivered; older loads are dropped
	last uint64
}

// Hub fans out portfolio views to live subscribers.
// Each subscriber holds at most one unread view; a newer view replaces it.
type Hub struct {
	loader Loader
	logger *zap.Logger

	mu   sync.Mutex
	seq  uint64
	subs map[string]map[*subscription]struct{}
}

// NewHub creates a hub backed by loader
func NewHub(loader Loader, logger *zap.Logger) *Hub {
	return &Hub{
		loader: loader,
		logger: logger,
		subs:   make(map[string]map[*subscription]struct{}),
	}
}

// Subscribe registers a subscriber for userID and queues the current view.
// The returned channel is closed when ctx ends.
func (h *Hub) Subscribe(ctx context.Context, userID string) (<-chan *models.PortfolioView, error) {
	sub := &subscription{
		userID: userID,
		ch:     make(chan *models.PortfolioView, 1),
	}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	seq := h.nextSeqLocked()
	h.mu.Unlock()

	view, err := h.loader.View(ctx, userID)
	if err != nil {
		h.remove(sub)
		return nil, fmt.Errorf("failed to load initial view: %w", err)
	}

	h.mu.Lock()
	h.deliverLocked(sub, seq, view)
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.remove(sub)
	}()

	return sub.ch, nil
}

// Notify loads userID's view once and delivers it to every subscriber of that user
func (h *Hub) Notify(ctx context.Context, userID string) {
	h.mu.Lock()
	if len(h.subs[userID]) == 0 {
		h.mu.Unlock()
		return
	}
	seq := h.nextSeqLocked()
	h.mu.Unlock()

	view, err := h.loader.View(ctx, userID)
	if err != nil {
		h.logger.Error("failed to load view for subscribers",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[userID] {
		h.deliverLocked(sub, seq, view)
	}
}

// Subscribers returns the number of live subscriptions for userID
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

func (h *Hub) nextSeqLocked() uint64 {
	h.seq++
	return h.seq
}

// deliverLocked must be called with h.mu held; it is the only sender on sub.ch
func (h *Hub) deliverLocked(sub *subscription, seq uint64, view *models.PortfolioView) {
	if _, live := h.subs[sub.userID][sub]; !live || seq < sub.last {
		return
	}
	sub.last = seq

	select {
	case sub.ch <- view:
		return
	default:
	}
	// replace the unread view
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- view:
	default:
	}
}

func (h *Hub) remove(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userSubs := h.subs[sub.userID]
	if _, ok := userSubs[sub]; !ok {
		return
	}
	delete(userSubs, sub)
	if len(userSubs) == 0 {
		delete(h.subs, sub.userID)
	}
	close(sub.ch)
}
