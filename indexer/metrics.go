package indexer

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/screwyprof/racer/pkg/racer"
)

var (
	syncHeightGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "racer",
		Subsystem: "indexer",
		Name:      "sync_height",
		Help:      "Last reorg-safe height committed per chain.",
	}, []string{"chain_id"})

	reconciliationsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "racer",
		Subsystem: "indexer",
		Name:      "reconciliations_total",
		Help:      "Reconciliations per chain by result.",
	}, []string{"chain_id", "result"})

	appliedEventsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "racer",
		Subsystem: "indexer",
		Name:      "applied_events_total",
		Help:      "Contract events applied per chain by event name.",
	}, []string{"chain_id", "event"})

	reconcileDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "racer",
		Subsystem: "indexer",
		Name:      "reconcile_duration_seconds",
		Help:      "Wall time of successful reconciliations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"chain_id"})
)

func observeSuccess(r RangeReconciled) {
	chain := strconv.FormatUint(r.ChainID, 10)
	syncHeightGauge.WithLabelValues(chain).Set(float64(r.SyncHeight))
	reconciliationsCounter.WithLabelValues(chain, "ok").Inc()
	appliedEventsCounter.WithLabelValues(chain, racer.EventCycleCreated).Add(float64(r.Applied.Cycles))
	appliedEventsCounter.WithLabelValues(chain, racer.EventVotePlaced).Add(float64(r.Applied.Votes))
	appliedEventsCounter.WithLabelValues(chain, racer.EventVoteClaimed).Add(float64(r.Applied.Claims))
	reconcileDuration.WithLabelValues(chain).Observe(r.Duration.Seconds())
}

func observeFailure(chainID uint64) {
	reconciliationsCounter.WithLabelValues(strconv.FormatUint(chainID, 10), "failed").Inc()
}
