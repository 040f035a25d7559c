package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/wortschatz/internal/database"
	"github.com/example/wortschatz/internal/logger"
)

// Scheduler runs the periodic orphan-catalog-word sweep. The request path
// only collects orphans on the word-switch update; removing a user word
// leaves its catalog word behind. This job gives operators eventual cleanup
// of those leftovers and is disabled unless explicitly started.
type Scheduler struct {
	scheduler *gocron.Scheduler
	words     *database.WordRepository
	log       *logger.Logger
}

// New creates a scheduler instance.
func New(words *database.WordRepository, log *logger.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		words:     words,
		log:       log.With("component", "scheduler"),
	}
}

// Start begins running the daily sweep in the background.
func (s *Scheduler) Start() {
	s.scheduler.Every(1).Day().At("03:00").Do(s.sweepOrphans)
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) sweepOrphans() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := s.words.DeleteOrphans(ctx)
	if err != nil {
		s.log.Error("orphan sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		s.log.Info("orphan sweep finished", "deleted", deleted)
	}
}
