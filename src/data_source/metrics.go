package datasource

import "github.com/prometheus/client_golang/prometheus"

var (
	pollCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsetmc_poll_cycles_total",
			Help: "Poll cycles by loop and outcome",
		},
		[]string{"loop", "outcome"},
	)
	pollRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsetmc_poll_records_total",
			Help: "Records received from upstream by loop",
		},
		[]string{"loop"},
	)
	repositoryChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsetmc_repository_changes_total",
			Help: "Changes reported by repository merges by topic",
		},
		[]string{"topic"},
	)
)

func init() {
	prometheus.MustRegister(pollCyclesTotal)
	prometheus.MustRegister(pollRecordsTotal)
	prometheus.MustRegister(repositoryChangesTotal)
}
