package maindag

import "github.com/prometheus/client_golang/prometheus"

var missingParentSkips = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "ubixd",
	Subsystem: "main_dag_index",
	Name:      "missing_parent_skips",
	Help:      "Parent references skipped because the parent's block info was unavailable",
})

var pageCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "ubixd",
	Subsystem: "main_dag_index",
	Name:      "page_cache_hits",
})

var pageCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "ubixd",
	Subsystem: "main_dag_index",
	Name:      "page_cache_misses",
})

var pageCacheEvictions = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "ubixd",
	Subsystem: "main_dag_index",
	Name:      "page_cache_evictions",
})

var reindexedBlocks = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "ubixd",
	Subsystem: "main_dag_index",
	Name:      "reindexed_blocks",
	Help:      "Blocks re-added to the index during startup reconstruction",
})

func init() {
	prometheus.MustRegister(
		missingParentSkips,
		pageCacheHits,
		pageCacheMisses,
		pageCacheEvictions,
		reindexedBlocks,
	)
}
