// Package portfolio serves normalized portfolio view-models with
// stale-while-revalidate caching over the gateway snapshot.
package portfolio

import (
	"context"
	"sync"
	"time"

	"github.com/bobmcallan/iris/internal/common"
	"github.com/bobmcallan/iris/internal/interfaces"
	"github.com/bobmcallan/iris/internal/models"
)

const (
	DefaultRefreshInterval = 30 * time.Second
	DefaultDedupeWindow    = 5 * time.Second
)

// cacheEntry holds one user's cached view and fetch state.
type cacheEntry struct {
	view        *models.PortfolioView
	fetchedAt   time.Time // last successful fetch
	attemptedAt time.Time // last fetch attempt, success or not
	lastErr     error
	inflight    chan struct{} // non-nil while a fetch is running; closed on completion
}

// Service implements interfaces.PortfolioService.
type Service struct {
	client          interfaces.GatewayClient
	logger          *common.Logger
	refreshInterval time.Duration
	dedupeWindow    time.Duration

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

// ServiceOption configures the service.
type ServiceOption func(*Service)

// WithRefreshInterval sets the age after which a cached view is revalidated.
func WithRefreshInterval(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.refreshInterval = d
		}
	}
}

// WithDedupeWindow sets the window within which repeat fetches are suppressed.
func WithDedupeWindow(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.dedupeWindow = d
		}
	}
}

// NewService creates the portfolio service.
func NewService(client interfaces.GatewayClient, logger *common.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		client:          client,
		logger:          logger,
		refreshInterval: DefaultRefreshInterval,
		dedupeWindow:    DefaultDedupeWindow,
		entries:         make(map[string]*cacheEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// entry returns the cache entry for userID, creating it if needed.
// Caller must hold s.mu.
func (s *Service) entry(userID string) *cacheEntry {
	e, ok := s.entries[userID]
	if !ok {
		e = &cacheEntry{}
		s.entries[userID] = e
	}
	return e
}

// GetView returns the latest known view-model for a user.
//
// Cached values are served immediately. A background revalidation starts when
// the cached value is older than the refresh interval; concurrent callers
// share a single in-flight fetch. When nothing is cached, failed attempts are
// not repeated within the dedupe window.
func (s *Service) GetView(ctx context.Context, userID string) (*models.PortfolioView, error) {
	s.mu.Lock()
	e := s.entry(userID)

	if e.view != nil {
		// Stale-while-revalidate: serve the cached view now, refresh behind it.
		if !common.IsFresh(e.fetchedAt, s.refreshInterval) && e.inflight == nil {
			s.startFetch(e, userID)
		}
		view := e.view
		s.mu.Unlock()
		return view, nil
	}

	// No cached value. Suppress immediate retries of a fresh failure.
	if e.lastErr != nil && common.IsFresh(e.attemptedAt, s.dedupeWindow) && e.inflight == nil {
		err := e.lastErr
		s.mu.Unlock()
		return nil, err
	}

	if e.inflight == nil {
		s.startFetch(e, userID)
	}
	done := e.inflight
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e.view == nil {
		return nil, e.lastErr
	}
	return e.view, nil
}

// Refresh forces a synchronous refetch, bypassing the dedupe window. It joins
// an already-running fetch rather than issuing a second one.
func (s *Service) Refresh(ctx context.Context, userID string) (*models.PortfolioView, error) {
	s.mu.Lock()
	e := s.entry(userID)
	if e.inflight == nil {
		s.startFetch(e, userID)
	}
	done := e.inflight
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e.lastErr != nil {
		// A stale view may still exist; the forced refresh failure wins so
		// the caller can show the retry banner.
		return e.view, e.lastErr
	}
	return e.view, nil
}

// startFetch launches the fetch goroutine for an entry. Caller must hold s.mu.
// The fetch is detached from any single caller's context: a revalidation
// outlives the request that triggered it.
func (s *Service) startFetch(e *cacheEntry, userID string) {
	done := make(chan struct{})
	e.inflight = done

	go func() {
		snapshot, err := s.client.GetPortfolio(context.Background(), userID)
		var view *models.PortfolioView
		if err == nil {
			view = Normalize(snapshot)
		}

		s.mu.Lock()
		e.attemptedAt = time.Now()
		if err != nil {
			e.lastErr = err
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("Portfolio fetch failed")
		} else {
			e.view = view
			e.fetchedAt = e.attemptedAt
			e.lastErr = nil
			s.logger.Debug().Str("user_id", userID).Int("groups", len(view.Snapshot.BrokerGroups)).Msg("Portfolio snapshot refreshed")
		}
		e.inflight = nil
		s.mu.Unlock()
		close(done)
	}()
}
