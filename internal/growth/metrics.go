package growth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tickTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zentok_growth_ticks_total",
		Help: "Growth clock ticks by result",
	}, []string{"result"})

	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "zentok_growth_tick_duration_seconds",
		Help:    "Duration of one growth tick",
		Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
	})

	activeRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zentok_growth_active_records",
		Help: "Growth records currently owned by the clock",
	})

	recordsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zentok_growth_records_skipped_total",
		Help: "Records skipped in a tick because of malformed state",
	})

	commentsRevealed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zentok_growth_comments_revealed_total",
		Help: "Pool comments promoted to the visible list",
	})

	poolFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zentok_comment_pool_fallbacks_total",
		Help: "Comment pools built from the fallback list",
	})
)
