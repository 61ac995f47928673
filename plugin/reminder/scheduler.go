package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler runs the firing loop on a fixed interval.
type Scheduler struct {
	service       *Service
	interval      time.Duration
	running       bool
	stopCh        chan struct{}
	wg            sync.WaitGroup
	mu            sync.Mutex
	logger        *slog.Logger
	processedChan chan CycleResult // For testing: reports each cycle
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	Interval time.Duration // How often to look for due records
}

// DefaultSchedulerConfig returns default scheduler configuration.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval: 5 * time.Second,
	}
}

// NewScheduler creates a new firing loop scheduler.
func NewScheduler(service *Service, config SchedulerConfig) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultSchedulerConfig().Interval
	}

	return &Scheduler{
		service:  service,
		interval: config.Interval,
		stopCh:   make(chan struct{}),
		logger:   slog.Default(),
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("firing loop started", "interval", s.interval)
	return nil
}

// Stop gracefully stops the scheduler and waits for the current cycle.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("firing loop stopped")
}

// IsRunning returns whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Interval returns the cycle interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// SetLogger sets a custom logger.
func (s *Scheduler) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// EnableTestMode enables test mode with a channel of cycle results.
func (s *Scheduler) EnableTestMode() <-chan CycleResult {
	s.processedChan = make(chan CycleResult, 100)
	return s.processedChan
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Process immediately on start
	s.processCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("firing loop context cancelled")
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.processCycle(ctx)
		}
	}
}

// processCycle runs one cycle. Errors are logged and the loop continues.
func (s *Scheduler) processCycle(ctx context.Context) {
	result, err := s.service.ProcessDue(ctx)
	if err != nil {
		s.logger.Error("firing cycle failed", "error", err)
	}

	if result.Delivered > 0 || result.Failed > 0 {
		s.logger.Info("processed due records",
			"due", result.Due,
			"delivered", result.Delivered,
			"failed", result.Failed,
		)
	}

	if s.processedChan != nil {
		select {
		case s.processedChan <- result:
		default:
		}
	}
}

// RunOnce processes due records once (for manual triggering).
func (s *Scheduler) RunOnce(ctx context.Context) (CycleResult, error) {
	return s.service.ProcessDue(ctx)
}

// HealthCheck provides health check for the scheduler.
type HealthCheck struct {
	scheduler  *Scheduler
	metrics    *MetricsCollector
	lastCheck  time.Time
	checkCount int64
	mu         sync.Mutex
}

// NewHealthCheck creates a new health check for the scheduler.
func NewHealthCheck(scheduler *Scheduler) *HealthCheck {
	return &HealthCheck{
		scheduler: scheduler,
		metrics:   scheduler.service.Metrics(),
	}
}

// Check returns the health status. The loop is healthy while it runs and
// its last cycle is no older than three intervals.
func (h *HealthCheck) Check() HealthStatus {
	h.mu.Lock()
	h.lastCheck = time.Now()
	h.checkCount++
	lastCheck, checkCount := h.lastCheck, h.checkCount
	h.mu.Unlock()

	stats := h.metrics.GetStats()
	healthy := h.scheduler.IsRunning()
	if healthy && !stats.LastRunAt.IsZero() && lastCheck.Sub(stats.LastRunAt) > 3*h.scheduler.Interval() {
		healthy = false
	}

	return HealthStatus{
		Healthy:    healthy,
		LastCheck:  lastCheck,
		CheckCount: checkCount,
		LastRunAt:  stats.LastRunAt,
		LastError:  stats.LastError,
	}
}

// HealthStatus represents the health of the scheduler.
type HealthStatus struct {
	Healthy    bool      `json:"healthy"`
	LastCheck  time.Time `json:"last_check"`
	CheckCount int64     `json:"check_count"`
	LastRunAt  time.Time `json:"last_run_at"`
	LastError  string    `json:"last_error,omitempty"`
}
