package artifacts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	artifactsStoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rigcheck_artifacts_stored_total",
		Help: "Archives uploaded and recorded for the first time.",
	})
	artifactsDedupedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rigcheck_artifacts_deduped_total",
		Help: "Store calls that matched an existing fingerprint and only refreshed it.",
	})
	sweeperRowsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rigcheck_sweeper_rows_deleted_total",
		Help: "Expired artifact records removed by the sweeper.",
	})
)
