package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/inxsource/sales-assistant-go/internal/repository"
	"github.com/inxsource/sales-assistant-go/internal/session"
)

// CleanupJob periodically evicts idle sessions and expires stale pending
// orders. The session store also sweeps on access, so this only matters
// for phones that go quiet entirely.
type CleanupJob struct {
	store     *session.Store
	orderRepo repository.OrderRepository
	interval  time.Duration
	done      chan struct{}
}

func NewCleanupJob(store *session.Store, orderRepo repository.OrderRepository, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		store:     store,
		orderRepo: orderRepo,
		interval:  interval,
		done:      make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	j.runCleanup(ctx, "idle sessions", func(context.Context) (int64, error) {
		return int64(j.store.Sweep(time.Now())), nil
	})
	if j.orderRepo != nil {
		j.runCleanup(ctx, "pending orders", j.orderRepo.ExpirePending)
	}
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
