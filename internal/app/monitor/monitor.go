// Package monitor checks storage reachability on a cron schedule.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/R3E-Network/heroapps/internal/app/domain/apps"
	"github.com/R3E-Network/heroapps/internal/app/metrics"
	"github.com/R3E-Network/heroapps/internal/app/storage"
	"github.com/R3E-Network/heroapps/internal/app/system"
	"github.com/R3E-Network/heroapps/pkg/logger"
)

// DefaultSchedule runs a check every thirty seconds.
const DefaultSchedule = "@every 30s"

const checkTimeout = 5 * time.Second

// UnreachableMessage is the Status.Error published for a failed check. The driver
// error is only logged.
const UnreachableMessage = "storage unreachable"

var _ system.Service = (*Monitor)(nil)

// Backend is what the monitor needs from a store.
type Backend interface {
	storage.Pinger
	CountApps(ctx context.Context, f apps.Filter) (int64, error)
}

// Status is the outcome of the latest check.
type Status struct {
	Healthy   bool      `json:"healthy"`
	TotalApps int64     `json:"totalApps"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Monitor pings the store and counts its records on a schedule, publishing
// the result as metrics and through Status.
type Monitor struct {
	backend  Backend
	schedule string
	log      *logger.Logger

	mu      sync.RWMutex
	cron    *cron.Cron
	status  Status
	running bool
}

// New creates a monitor. An empty schedule uses DefaultSchedule.
func New(backend Backend, schedule string, log *logger.Logger) *Monitor {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if log == nil {
		log = logger.NewDefault("storage-monitor")
	}
	return &Monitor{backend: backend, schedule: schedule, log: log}
}

func (m *Monitor) Name() string { return "storage-monitor" }

// Start runs one check immediately, then schedules the rest.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(m.schedule, func() { m.Check(context.Background()) }); err != nil {
		m.mu.Unlock()
		return err
	}
	m.cron = c
	m.running = true
	m.mu.Unlock()

	m.Check(ctx)
	c.Start()
	m.log.WithField("schedule", m.schedule).Info("storage monitor started")
	return nil
}

// Stop halts the schedule and waits for a running check to finish.
func (m *Monitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	c := m.cron
	m.running = false
	m.cron = nil
	m.mu.Unlock()

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	m.log.Info("storage monitor stopped")
	return nil
}

// Check performs one health check and records its outcome.
func (m *Monitor) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	st := Status{CheckedAt: time.Now().UTC()}
	err := m.backend.Ping(ctx)
	if err == nil {
		st.TotalApps, err = m.backend.CountApps(ctx, apps.Filter{})
	}
	if err != nil {
		st.Error = UnreachableMessage
		m.log.WithError(err).Warn("storage health check failed")
	} else {
		st.Healthy = true
	}
	metrics.SetStorageHealth(st.Healthy, st.TotalApps)

	m.mu.Lock()
	m.status = st
	m.mu.Unlock()
	return st
}

// Status returns the latest check result.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}
