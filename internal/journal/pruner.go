package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/commerceapi/internal/logfields"
)

// Pruner periodically drops journal entries older than the retention window.
type Pruner struct {
	store     *Store
	retention time.Duration
	scheduler gocron.Scheduler
	logger    *slog.Logger
	now       func() time.Time
}

// NewPruner schedules a prune of store every interval. Nothing runs until Start.
func NewPruner(store *Store, retention, interval time.Duration, logger *slog.Logger) (*Pruner, error) {
	if retention <= 0 || interval <= 0 {
		return nil, fmt.Errorf("retention and interval must be positive (got %s, %s)", retention, interval)
	}
	if logger == nil {
		logger = slog.Default()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	p := &Pruner{
		store:     store,
		retention: retention,
		scheduler: s,
		logger:    logger,
		now:       time.Now,
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(p.run),
		gocron.WithName("journal-prune"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("schedule prune job: %w", err)
	}
	return p, nil
}

// Start begins the prune schedule.
func (p *Pruner) Start() {
	p.scheduler.Start()
	p.logger.Info("Journal pruning scheduled", "retention", p.retention)
}

// Stop ends the schedule and waits for a running prune to finish.
func (p *Pruner) Stop() error {
	return p.scheduler.Shutdown()
}

// PruneNow removes entries older than the retention window immediately.
func (p *Pruner) PruneNow(ctx context.Context) (int64, error) {
	return p.store.Prune(ctx, p.now().Add(-p.retention))
}

func (p *Pruner) run() {
	n, err := p.PruneNow(context.Background())
	if err != nil {
		p.logger.Warn("Journal prune failed", logfields.Error(err))
		return
	}
	if n > 0 {
		p.logger.Info("Journal pruned", "removed", n)
	}
}
