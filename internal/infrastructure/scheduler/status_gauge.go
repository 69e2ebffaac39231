package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/cargarage/execution-service/internal/core/ports"
	"github.com/cargarage/execution-service/internal/domain"
	"github.com/cargarage/execution-service/internal/infrastructure/logger"
	"github.com/robfig/cron/v3"
)

const DefaultRefreshSchedule = "@every 30s"

// TaskCountSetter receives the per-status totals.
type TaskCountSetter interface {
	SetTaskCount(status domain.ExecutionStatus, count int64)
}

type StatusGaugeConfig struct {
	Repository ports.ExecutionTaskRepository
	Gauge      TaskCountSetter
	Schedule   string
	Timeout    time.Duration
	Logger     *logger.Logger
}

// StatusGaugeRefresher periodically recounts tasks per status.
type StatusGaugeRefresher struct {
	repo     ports.ExecutionTaskRepository
	gauge    TaskCountSetter
	schedule string
	timeout  time.Duration
	log      *logger.Logger
	cron     *cron.Cron
}

func NewStatusGaugeRefresher(cfg StatusGaugeConfig) (*StatusGaugeRefresher, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultRefreshSchedule
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}

	r := &StatusGaugeRefresher{
		repo:     cfg.Repository,
		gauge:    cfg.Gauge,
		schedule: cfg.Schedule,
		timeout:  cfg.Timeout,
		log:      cfg.Logger,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}

	if _, err := r.cron.AddFunc(cfg.Schedule, func() { r.Refresh(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", cfg.Schedule, err)
	}
	return r, nil
}

func (r *StatusGaugeRefresher) Start() {
	r.Refresh(context.Background())
	r.cron.Start()
	r.log.Infow("status_gauge_refresher_started", "schedule", r.schedule)
}

// Stop waits for a running refresh to finish.
func (r *StatusGaugeRefresher) Stop() {
	<-r.cron.Stop().Done()
}

func (r *StatusGaugeRefresher) Refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	for _, status := range domain.AllStatuses() {
		page, err := r.repo.FindByStatus(ctx, status, domain.PageRequest{Page: 0, Size: 1})
		if err != nil {
			r.log.Warnw("status_gauge_refresh_failed", "status", status, "error", err)
			continue
		}
		r.gauge.SetTaskCount(status, page.TotalElements)
	}
}
