package background

import (
	"context"
	"log"
	"sync"
	"time"

	"clubsync/internal/caching"
	"clubsync/internal/repositories"

	"github.com/go-co-op/gocron/v2"
)

const attemptRetention = 24 * time.Hour

// JobScheduler runs the housekeeping jobs. Session expiry is deliberately
// not here: it is computed lazily from stored timestamps on the next read,
// so that presence semantics never depend on a timer firing.
type JobScheduler struct {
	scheduler   gocron.Scheduler
	cacheSvc    caching.CacheService
	attemptRepo repositories.LoginAttemptRepository
	jobs        map[string]gocron.Job
	mu          sync.RWMutex
}

func NewJobScheduler(cacheSvc caching.CacheService, attemptRepo repositories.LoginAttemptRepository) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:   scheduler,
		cacheSvc:    cacheSvc,
		attemptRepo: attemptRepo,
		jobs:        make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	// Login attempts only matter within the rate-limit window; prune the
	// journal well past it, hourly.
	pruneJob, err := js.scheduler.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(js.pruneLoginAttempts, context.Background()),
		gocron.WithName("login-attempt-prune"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create login attempt prune job: %v", err)
	} else {
		js.registerJob("login-attempt-prune", pruneJob)
	}

	// Daily cache sweep so stale customer snapshots cannot outlive a
	// redis restart with a wrong TTL.
	sweepJob, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.sweepCache, context.Background()),
		gocron.WithName("cache-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create cache sweep job: %v", err)
	} else {
		js.registerJob("cache-sweep", sweepJob)
	}
}

func (js *JobScheduler) registerJob(name string, job gocron.Job) {
	js.mu.Lock()
	defer js.mu.Unlock()
	js.jobs[name] = job
}

func (js *JobScheduler) pruneLoginAttempts(ctx context.Context) {
	cutoff := time.Now().Add(-attemptRetention)
	deleted, err := js.attemptRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("ERROR: pruning login attempts: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("pruned %d login attempts older than %s", deleted, attemptRetention)
	}
}

func (js *JobScheduler) sweepCache(ctx context.Context) {
	if err := js.cacheSvc.InvalidateAll(ctx); err != nil {
		log.Printf("WARNING: cache sweep failed: %v", err)
	}
}
