package application

import (
	"context"
	"log/slog"
	"time"
)

// reloadRequest represents a manual reload trigger.
type reloadRequest struct {
	done chan reloadResult
}

type reloadResult struct {
	count int
	err   error
}

// ReloadService rebuilds the credential store periodically and on demand.
type ReloadService struct {
	auth      *AuthService
	interval  time.Duration
	triggerCh chan reloadRequest
}

// NewReloadService creates a ReloadService. An interval of zero disables
// periodic reloads; manual triggers still work while Start is running.
func NewReloadService(auth *AuthService, interval time.Duration) *ReloadService {
	return &ReloadService{
		auth:      auth,
		interval:  interval,
		triggerCh: make(chan reloadRequest),
	}
}

// Start reloads on the configured interval and serves manual triggers. The
// caller publishes the first store before starting, so Start does not reload
// until the first tick or trigger. Start blocks until the context is canceled.
func (s *ReloadService) Start(ctx context.Context) {
	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("reload service stopped")
			return
		case <-tick:
			if _, err := s.auth.Reload(ctx); err != nil {
				slog.Error("periodic credential reload failed", "error", err)
			}
		case req := <-s.triggerCh:
			count, err := s.auth.Reload(ctx)
			req.done <- reloadResult{count: count, err: err}
		}
	}
}

// Trigger requests an immediate reload and waits for its result. It blocks
// until the reload completes or the context is canceled.
func (s *ReloadService) Trigger(ctx context.Context) (int, error) {
	req := reloadRequest{done: make(chan reloadResult, 1)}

	select {
	case s.triggerCh <- req:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	select {
	case res := <-req.done:
		return res.count, res.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
