package jobs

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Runner is the unit of work the scheduler triggers. In production it
// is the core App; tests substitute their own.
type Runner interface {
	RunOnce(ctx context.Context) error
}

// Start starts the background scheduler that re-runs the mirror every
// interval. SingletonModeAll ensures a slow run is never overlapped by
// the next tick. The returned scheduler keeps running until Stop is
// called or the process exits.
func Start(ctx context.Context, runner Runner, interval time.Duration) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	log.Printf("Scheduling sync to run every %s", interval)
	_, err := s.Every(interval).Do(func() {
		log.Println("Scheduler is triggering sync run")
		if err := runner.RunOnce(ctx); err != nil {
			log.Printf("Scheduled sync run failed: %v", err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling sync job: %v", err)
	}

	s.StartAsync()
	return s
}
