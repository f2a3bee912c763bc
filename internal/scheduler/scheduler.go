package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"cre-pipeline/internal/config"
	syncsvc "cre-pipeline/internal/sync"
)

// Scheduler runs the nightly dataset refresh
type Scheduler struct {
	cron      *cron.Cron
	sync      *syncsvc.Service
	config    *config.Config
	isRunning bool
}

// NewScheduler creates a new scheduler
func NewScheduler(sync *syncsvc.Service, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		sync:   sync,
		config: cfg,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Sync.NightlyEnabled {
		log.Println("Scheduler: Nightly dataset refresh is disabled in configuration")
		return nil
	}

	// Parse nightly run time (HH:MM format in config)
	cronSpec := s.parseNightlyRunTime(s.config.Sync.NightlyRunTime)

	_, err := s.cron.AddFunc(cronSpec, func() {
		log.Println("Scheduler: Starting nightly dataset refresh...")
		if err := s.runRefresh(); err != nil {
			log.Printf("Scheduler: Nightly dataset refresh failed: %v", err)
		} else {
			log.Println("Scheduler: Nightly dataset refresh completed successfully")
		}
	})

	if err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Scheduler: Started with nightly run at %s (cron: %s)", s.config.Sync.NightlyRunTime, cronSpec)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Println("Scheduler: Stopped")
	}
}

// runRefresh executes one dataset download
func (s *Scheduler) runRefresh() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Sync.GetTimeout())
	defer cancel()

	lastPercent := -1
	return s.sync.Download(ctx, func(p syncsvc.Progress) {
		// Progress arrives per chunk; only log on whole-percent steps
		if p.Percent >= 0 && p.Percent != lastPercent && p.Percent%10 == 0 {
			lastPercent = p.Percent
			log.Printf("Scheduler: Dataset download %d%% (%d bytes)", p.Percent, p.BytesDownloaded)
		}
	})
}

// RunNow immediately executes the dataset refresh (for manual trigger)
func (s *Scheduler) RunNow() error {
	log.Println("Scheduler: Manual trigger - starting dataset refresh...")
	return s.runRefresh()
}

// parseNightlyRunTime converts HH:MM format to cron specification
// Example: "02:00" -> "0 2 * * *" (run at 2:00 AM every day)
func (s *Scheduler) parseNightlyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 && hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	// Default to 2:00 AM if parsing fails
	log.Printf("Scheduler: Failed to parse time '%s', using default 02:00", timeStr)
	return "0 2 * * *"
}
