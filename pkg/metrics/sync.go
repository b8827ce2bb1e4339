package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SyncMetrics records metadata sync and journal activity.
//
// A nil *SyncMetrics is valid and records nothing, so callers never
// need to guard their instrumentation sites.
type SyncMetrics struct {
	syncsTotal         *prometheus.CounterVec
	syncDuration       *prometheus.HistogramVec
	syncObjects        *prometheus.CounterVec
	journalEntries     prometheus.Counter
	journalForcedFlush prometheus.Counter
	ufsOperations      *prometheus.CounterVec
	ufsDuration        *prometheus.HistogramVec
}

// NewSyncMetrics creates a Prometheus-backed SyncMetrics instance.
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewSyncMetrics() *SyncMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &SyncMetrics{
		syncsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mirrorfs_syncs_total",
				Help: "Total number of sync passes by outcome",
			},
			[]string{"status"},
		),
		syncDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "mirrorfs_sync_duration_milliseconds",
				Help: "Duration of sync passes in milliseconds",
				Buckets: []float64{
					1,     // 1ms - freshness short-circuit
					10,    // 10ms - single object
					50,    // 50ms
					100,   // 100ms - shallow listing
					500,   // 500ms
					1000,  // 1s
					5000,  // 5s - deep recursive passes
					30000, // 30s
				},
			},
			[]string{"policy"},
		),
		syncObjects: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mirrorfs_sync_objects_total",
				Help: "Total namespace objects touched by sync passes, by action",
			},
			[]string{"action"},
		),
		journalEntries: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "mirrorfs_journal_entries_total",
				Help: "Total journal entries appended to the underlying writer",
			},
		),
		journalForcedFlush: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "mirrorfs_journal_forced_flushes_total",
				Help: "Total forced drains of the merge buffer at the entry threshold",
			},
		),
		ufsOperations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mirrorfs_ufs_operations_total",
				Help: "Total under-store operations by store, operation and status",
			},
			[]string{"ufs", "operation", "status"},
		),
		ufsDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "mirrorfs_ufs_operation_duration_milliseconds",
				Help: "Duration of under-store operations in milliseconds",
				Buckets: []float64{
					1,    // 1ms - memory store
					10,   // 10ms - local fs
					50,   // 50ms
					100,  // 100ms - object store round trip
					500,  // 500ms
					1000, // 1s
					5000, // 5s
				},
			},
			[]string{"ufs", "operation"},
		),
	}
}

// ObserveSync records a completed sync pass.
func (m *SyncMetrics) ObserveSync(policy, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.syncsTotal.WithLabelValues(status).Inc()
	m.syncDuration.WithLabelValues(policy).Observe(duration.Seconds() * 1000)
}

// RecordSyncObjects records how many objects a pass created, updated
// and deleted.
func (m *SyncMetrics) RecordSyncObjects(created, updated, deleted, failed int) {
	if m == nil {
		return
	}
	if created > 0 {
		m.syncObjects.WithLabelValues("created").Add(float64(created))
	}
	if updated > 0 {
		m.syncObjects.WithLabelValues("updated").Add(float64(updated))
	}
	if deleted > 0 {
		m.syncObjects.WithLabelValues("deleted").Add(float64(deleted))
	}
	if failed > 0 {
		m.syncObjects.WithLabelValues("failed").Add(float64(failed))
	}
}

// RecordJournalEntries records entries handed to the underlying
// journal writer.
func (m *SyncMetrics) RecordJournalEntries(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.journalEntries.Add(float64(n))
}

// RecordForcedFlush records a forced drain of the merge buffer.
func (m *SyncMetrics) RecordForcedFlush() {
	if m == nil {
		return
	}
	m.journalForcedFlush.Inc()
}

// ObserveUFSOperation records a single under-store call.
func (m *SyncMetrics) ObserveUFSOperation(ufs, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ufsOperations.WithLabelValues(ufs, operation, status).Inc()
	m.ufsDuration.WithLabelValues(ufs, operation).Observe(duration.Seconds() * 1000)
}
