// Package scheduler
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/podmatch/podmatch/app/middleware"
	businessflow "github.com/podmatch/podmatch/business_flow"
	"github.com/podmatch/podmatch/config"
)

// RescoreScheduler periodically recomputes matches for all active campaigns
// so rankings track fresh embeddings, analytics, and social stats
type RescoreScheduler struct {
	scoringFlow businessflow.ScoringFlow
	logger      *log.Logger
	interval    time.Duration

	logFile *os.File
}

func NewRescoreScheduler(scoringFlow businessflow.ScoringFlow, cfg config.SchedulerConfig) *RescoreScheduler {
	interval := cfg.RescoringInterval
	if interval <= 0 {
		interval = time.Hour
	}

	s := &RescoreScheduler{
		scoringFlow: scoringFlow,
		interval:    interval,
	}

	// Initialize scheduler-specific logger (to stdout and persistent file)
	if err := s.initSchedulerLogger(); err != nil {
		// Fallback to default stdout logger if file logger init fails
		s.logger = log.Default()
		s.logger.Printf("rescore: failed to initialize file logger: %v", err)
	}

	return s
}

// initSchedulerLogger configures a logger that writes to both stdout and a persistent file under data/ (or /data)
func (s *RescoreScheduler) initSchedulerLogger() error {
	// Prefer relative data/ then fallback to /data for containerized environments
	candidates := []string{
		filepath.Join("data"),
		"/data",
	}
	for _, dir := range candidates {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			continue
		}
		logPath := filepath.Join(dir, "rescore.log")
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			continue
		}
		s.logFile = f
		mw := io.MultiWriter(os.Stdout, f)
		// log.Logger is goroutine-safe; include timestamps with microseconds and UTC
		s.logger = log.New(mw, "rescore ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
		return nil
	}
	return fmt.Errorf("could not create rescore log file in any candidate directory")
}

// Start launches the scheduler loop in a background goroutine and returns a stop function
func (s *RescoreScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return func() {
		cancel()
		if s.logFile != nil {
			_ = s.logFile.Close()
		}
	}
}

func (s *RescoreScheduler) runOnce(ctx context.Context) {
	start := time.Now()
	s.logger.Printf("rescore: sweep started")

	results, err := s.scoringFlow.RescoreActiveCampaigns(ctx)
	elapsed := time.Since(start)

	var persisted, failed int
	for _, result := range results {
		persisted += len(result.Succeeded)
		failed += len(result.Failed)
	}

	if err != nil {
		middleware.RecordScoringRun("error", persisted, failed, elapsed)
		s.logger.Printf("rescore: sweep failed after %d campaigns: %v", len(results), err)
		return
	}

	middleware.RecordScoringRun("success", persisted, failed, elapsed)
	s.logger.Printf("rescore: sweep finished: campaigns=%d matches=%d failures=%d elapsed=%s",
		len(results), persisted, failed, elapsed)
}
