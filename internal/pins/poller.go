package pins

import (
	"context"
	"sync"
	"time"
)

// Poller periodically lists state so input edges are detected without a client asking.
type Poller struct {
	manager  *Manager
	interval time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewPoller creates a poller. It does nothing until Start.
func NewPoller(manager *Manager, interval time.Duration) *Poller {
	return &Poller{
		manager:  manager,
		interval: interval,
	}
}

// Start begins polling. A non-positive interval disables the poller.
func (p *Poller) Start(ctx context.Context) {
	if p.interval <= 0 {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.run(ctx)
}

// Stop stops the poller and waits for the goroutine to finish.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.manager.ListState()
		}
	}
}
