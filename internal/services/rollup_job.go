package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// rebuildDays covers yesterday's late arrivals plus today.
const rebuildDays = 2

type RollupRebuilder interface {
	Rebuild(ctx context.Context, since time.Time) (int, error)
}

// RollupJob periodically recomputes recent daily rollups from the click log,
// repairing increments that were lost when a rollup upsert failed.
type RollupJob struct {
	store  RollupRebuilder
	cron   *cron.Cron
	now    func() time.Time
	logger *slog.Logger
}

func NewRollupJob(store RollupRebuilder, logger *slog.Logger) *RollupJob {
	return &RollupJob{
		store:  store,
		cron:   cron.New(cron.WithLocation(time.UTC)),
		now:    time.Now,
		logger: logger,
	}
}

// Schedule registers the rebuild under a standard five field cron expression.
func (j *RollupJob) Schedule(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("invalid rollup schedule %q: %w", expr, err)
	}
	_, err := j.cron.AddFunc(expr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		_, _ = j.RunOnce(ctx)
	})
	return err
}

func (j *RollupJob) RunOnce(ctx context.Context) (int, error) {
	since := j.now().UTC().AddDate(0, 0, -(rebuildDays - 1))
	n, err := j.store.Rebuild(ctx, since)
	if err != nil {
		j.logger.Error("Rollup rebuild failed", "error", err)
		return 0, err
	}
	j.logger.Info("Rollups rebuilt", "rows", n, "since", since.Format("2006-01-02"))
	return n, nil
}

// Start runs the scheduler until ctx is cancelled and then waits for a
// running rebuild to finish.
func (j *RollupJob) Start(ctx context.Context) {
	j.cron.Start()
	<-ctx.Done()
	<-j.cron.Stop().Done()
}
