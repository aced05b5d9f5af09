package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/lesson-engine/internal/models"
	"github.com/noah-isme/lesson-engine/internal/scheduling"
)

// cronParser accepts standard 5-field expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// SweepResult summarises one sweep over upcoming sessions.
type SweepResult struct {
	From     string                `json:"from"`
	To       string                `json:"to"`
	Sessions int                   `json:"sessions"`
	Report   models.ConflictReport `json:"report"`
	RanAt    time.Time             `json:"ran_at"`
}

// ConflictSweeper periodically detects conflicts among stored sessions in the
// next DaysAhead days and publishes the result as logs and metrics.
type ConflictSweeper struct {
	sessions  sessionReader
	metrics   *MetricsService
	logger    *zap.Logger
	daysAhead int
	now       func() time.Time

	mu   sync.RWMutex
	last *SweepResult
	cron *cron.Cron
}

// NewConflictSweeper builds a sweeper. daysAhead below 1 scans today only.
func NewConflictSweeper(sessions sessionReader, metrics *MetricsService, daysAhead int, logger *zap.Logger) *ConflictSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if daysAhead < 1 {
		daysAhead = 1
	}
	return &ConflictSweeper{
		sessions:  sessions,
		metrics:   metrics,
		logger:    logger,
		daysAhead: daysAhead,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start schedules the sweep on expr. Overlapping runs are skipped.
func (s *ConflictSweeper) Start(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("parse sweep schedule %q: %w", expr, err)
	}
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.Recover(cron.PrintfLogger(zap.NewStdLog(s.logger))), cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(expr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("conflict sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule conflict sweep: %w", err)
	}
	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()
	c.Start()
	s.logger.Info("conflict sweep scheduled", zap.String("schedule", expr), zap.Int("days_ahead", s.daysAhead))
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *ConflictSweeper) Stop() {
	s.mu.RLock()
	c := s.cron
	s.mu.RUnlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}

// RunOnce performs a single sweep.
func (s *ConflictSweeper) RunOnce(ctx context.Context) (*SweepResult, error) {
	today := s.now().Truncate(24 * time.Hour)
	until := today.AddDate(0, 0, s.daysAhead-1)

	sessions, err := s.sessions.List(ctx, models.SessionFilter{DateFrom: today, DateTo: until})
	if err != nil {
		s.metrics.RecordSweep("error")
		return nil, fmt.Errorf("load sessions for sweep: %w", err)
	}
	start := time.Now()
	report, err := scheduling.DetectConflicts(sessions)
	if err != nil {
		s.metrics.RecordSweep("error")
		return nil, err
	}
	s.metrics.ObserveConflictReport("sweep", report, time.Since(start))
	s.metrics.RecordSweep("ok")

	for _, dim := range models.AllDimensions {
		for _, group := range report[dim] {
			s.logger.Warn("scheduling conflict",
				zap.String("dimension", string(dim)),
				zap.String("resource_id", group.ResourceID),
				zap.String("date", group.Date),
				zap.String("start", group.StartTime),
				zap.String("end", group.EndTime),
				zap.Strings("session_ids", group.SessionIDs),
			)
		}
	}

	result := &SweepResult{
		From:     today.Format(models.DateLayout),
		To:       until.Format(models.DateLayout),
		Sessions: len(sessions),
		Report:   report,
		RanAt:    s.now(),
	}
	s.mu.Lock()
	s.last = result
	s.mu.Unlock()
	s.logger.Info("conflict sweep finished", zap.Int("sessions", result.Sessions), zap.Int("groups", report.Total()))
	return result, nil
}

// Last returns the most recent sweep result, or nil before the first run.
func (s *ConflictSweeper) Last() *SweepResult {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
