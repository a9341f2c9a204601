package monitor

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/Appraisal/internal/config"
	"github.com/MikeSquared-Agency/Appraisal/internal/hermes"
	"github.com/MikeSquared-Agency/Appraisal/internal/review"
	"github.com/MikeSquared-Agency/Appraisal/internal/store"
)

// Monitor keeps store gauges fresh and remembers the most recent anomaly
// events seen on the bus.
type Monitor struct {
	store    store.Store
	hermes   hermes.Client
	interval time.Duration
	logger   *slog.Logger

	recentMu sync.RWMutex
	recent   []hermes.AnomalyDetectedEvent
	capacity int

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func New(s store.Store, h hermes.Client, cfg *config.Config, logger *slog.Logger) *Monitor {
	return &Monitor{
		store:    s,
		hermes:   h,
		interval: cfg.StatsInterval(),
		logger:   logger,
		capacity: cfg.Monitor.RecentAnomalies,
		stopCh:   make(chan struct{}),
	}
}

func (m *Monitor) Start(ctx context.Context) {
	m.wg.Add(1)
	go m.statsLoop(ctx)
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}

func (m *Monitor) statsLoop(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.refresh(ctx)
	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.refresh(ctx)
		}
	}
}

func (m *Monitor) refresh(ctx context.Context) {
	if err := m.Refresh(ctx); err != nil {
		m.logger.Error("failed to refresh stats", "error", err)
	}
}

// Refresh copies the store totals into the gauges.
func (m *Monitor) Refresh(ctx context.Context) error {
	stats, err := m.store.GetStats(ctx)
	if err != nil {
		return err
	}
	targetsGauge.Set(float64(stats.TotalTargets))
	storedReviews.WithLabelValues(string(review.KindScalar)).Set(float64(stats.ScalarReviews))
	storedReviews.WithLabelValues(string(review.KindHistogram)).Set(float64(stats.HistogramReviews))
	return nil
}

// SetupSubscriptions registers the anomaly feed. It is a no-op without a bus.
func (m *Monitor) SetupSubscriptions() error {
	if m.hermes == nil {
		return nil
	}
	return m.hermes.Subscribe(hermes.SubjectAnomalyWildcard, m.handleAnomaly)
}

func (m *Monitor) handleAnomaly(subject string, data []byte) {
	var evt hermes.AnomalyDetectedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		m.logger.Warn("invalid anomaly event", "subject", subject, "error", err)
		return
	}
	// appraisal.anomaly.<target>.detected
	if evt.Target == "" {
		if parts := strings.Split(subject, "."); len(parts) >= 4 {
			evt.Target = parts[2]
		}
	}

	m.recentMu.Lock()
	m.recent = append(m.recent, evt)
	if over := len(m.recent) - m.capacity; over > 0 {
		m.recent = append(m.recent[:0:0], m.recent[over:]...)
	}
	m.recentMu.Unlock()
}

// Recent returns up to limit anomalies, newest first. limit <= 0 means all.
func (m *Monitor) Recent(limit int) []hermes.AnomalyDetectedEvent {
	m.recentMu.RLock()
	defer m.recentMu.RUnlock()

	n := len(m.recent)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]hermes.AnomalyDetectedEvent, 0, n)
	for i := len(m.recent) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.recent[i])
	}
	return out
}
