package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
)

// TotalsSyncer persists live totals of one service date.
type TotalsSyncer interface {
	SyncTotals(ctx context.Context, serviceDate string) (int, error)
}

// TotalsSyncProcessor keeps stored group totals in line with the booking
// feed for the upcoming service dates.
type TotalsSyncProcessor struct {
	syncer     TotalsSyncer
	interval   time.Duration
	days       int
	location   *time.Location
	startDelay time.Duration
	now        func() time.Time

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// TotalsSyncConfig holds configuration for the totals sync job
type TotalsSyncConfig struct {
	Syncer     TotalsSyncer
	Interval   time.Duration    // default 5 minutes
	Days       int              // service dates covered starting today, default 2
	Location   *time.Location   // operator time zone, default UTC
	StartDelay time.Duration    // wait before the first pass
	Now        func() time.Time // Optional, defaults to time.Now
}

// NewTotalsSyncProcessor creates a new totals sync job
func NewTotalsSyncProcessor(cfg TotalsSyncConfig) *TotalsSyncProcessor {
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Days <= 0 {
		cfg.Days = 2
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TotalsSyncProcessor{
		syncer:     cfg.Syncer,
		interval:   cfg.Interval,
		days:       cfg.Days,
		location:   cfg.Location,
		startDelay: cfg.StartDelay,
		now:        cfg.Now,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the totals sync job
func (p *TotalsSyncProcessor) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run()
	slog.Info("totals sync started",
		slog.Duration("interval", p.interval),
		slog.Int("days", p.days),
	)
}

// Stop gracefully stops the totals sync job
func (p *TotalsSyncProcessor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	close(p.stopCh)
	p.wg.Wait()
	slog.Info("totals sync stopped")
}

// run is the main loop
func (p *TotalsSyncProcessor) run() {
	defer p.wg.Done()

	select {
	case <-time.After(p.startDelay):
	case <-p.stopCh:
		return
	}
	p.process()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.process()
		case <-p.stopCh:
			return
		}
	}
}

func (p *TotalsSyncProcessor) process() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	updated, err := p.RunOnce(ctx)
	if err != nil {
		slog.Error("totals sync failed", slog.String("error", err.Error()))
	}
	if updated > 0 {
		slog.Info("totals sync pass", slog.Int("updated", updated))
	}
}

// RunOnce syncs every covered service date once. A failing date does not
// stop the others; their errors are joined.
func (p *TotalsSyncProcessor) RunOnce(ctx context.Context) (int, error) {
	total := 0
	var errs []error
	for _, date := range p.ServiceDates() {
		n, err := p.syncer.SyncTotals(ctx, date)
		total += n
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", date, err))
		}
	}
	return total, errors.Join(errs...)
}

// ServiceDates returns the covered dates, today first, in the operator's
// time zone.
func (p *TotalsSyncProcessor) ServiceDates() []string {
	today := p.now().In(p.location)
	dates := make([]string, 0, p.days)
	for i := 0; i < p.days; i++ {
		dates = append(dates, today.AddDate(0, 0, i).Format(model.ServiceDateLayout))
	}
	return dates
}

// IsRunning returns whether the processor is running
func (p *TotalsSyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
