package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/models"
	"github.com/Malcan-Technologies/creditxpress-aws-sub003/internal/utils"
)

// Poller re-fetches the loan snapshot on a fixed interval while any loan is
// awaiting administrative finalization (PENDING_EARLY_SETTLEMENT or
// PENDING_DISCHARGE). The loop is scoped to the bound context and stops
// itself once no qualifying loan remains, so no ticker outlives its purpose.
type Poller struct {
	client   *Client
	interval time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	baseCtx context.Context
	cancel  context.CancelFunc
	running bool

	// OnRefresh, when set, receives every snapshot the poller fetches.
	OnRefresh func([]models.Loan)
}

// NewPoller creates a poller over the given client, scoped to ctx (the
// server lifetime, not a request).
func NewPoller(ctx context.Context, client *Client, interval time.Duration) *Poller {
	return &Poller{
		client:   client,
		interval: interval,
		log:      utils.GetLogger(),
		baseCtx:  ctx,
	}
}

// NeedsPolling reports whether any loan in the snapshot is in a state that
// warrants polling.
func NeedsPolling(loans []models.Loan) bool {
	for i := range loans {
		if loans[i].Status.IsSettlementPending() {
			return true
		}
	}
	return false
}

// Start launches the polling loop if the snapshot warrants it and one is not
// already running. Starting is idempotent.
func (p *Poller) Start(loans []models.Loan) {
	if !NeedsPolling(loans) {
		return
	}

	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(p.baseCtx)
	p.cancel = cancel
	p.running = true
	p.mu.Unlock()

	go p.run(ctx)
}

// Kick fetches a fresh snapshot and starts polling if it warrants it, used
// after a mutation that may have moved a loan into a pending state. Runs in
// the background; safe to call from a request handler.
func (p *Poller) Kick() {
	go func() {
		ctx, cancel := context.WithTimeout(p.baseCtx, p.interval)
		defer cancel()
		loans, err := p.client.Loans(ctx)
		if err != nil {
			p.log.Warn("poll kick fetch failed", zap.Error(err))
			return
		}
		p.Start(loans)
	}()
}

// Stop cancels a running poll loop. Safe to call when none is running.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.running = false
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	defer p.Stop()

	p.log.Info("settlement polling started", zap.Duration("interval", p.interval))

	for {
		select {
		case <-ctx.Done():
			p.log.Info("settlement polling cancelled")
			return
		case <-ticker.C:
			loans, err := p.client.Loans(ctx)
			if err != nil {
				p.log.Warn("poll fetch failed", zap.Error(err))
				continue
			}
			if p.OnRefresh != nil {
				p.OnRefresh(loans)
			}
			if !NeedsPolling(loans) {
				p.log.Info("no loan awaiting finalization, polling stopped")
				return
			}
		}
	}
}
