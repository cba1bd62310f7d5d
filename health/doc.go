// Package health aggregates dependency probes into one composite report.
//
// The gateway has one primary dependency, the relational store, and one
// secondary dependency, the GraphQL engine. Auxiliary checkers (uptime, heap,
// disk) are registered alongside them. The overall status follows a fixed
// precedence:
//
//   - down when the database is down
//   - degraded when the database is up but the engine is down, or when an
//     auxiliary check is not up
//   - up otherwise
//
// Probes never fail the check. Errors, timeouts and panics become down
// results with an error string.
//
// # Basic Usage
//
//	engine := health.Unavailable[health.Engine]()
//	if client != nil {
//	    engine = health.Configured[health.Engine](client)
//	}
//
//	agg := health.NewAggregator(dbProbe, engine, health.AggregatorConfig{
//	    ProbeTimeout: 5 * time.Second,
//	    Environment:  "staging",
//	})
//	agg.Register(health.NewUptimeChecker(startedAt))
//	agg.Register(health.NewHeapChecker(health.HeapCheckerConfig{}))
//	agg.Register(health.NewDiskChecker(health.DiskCheckerConfig{}))
//
// When the engine answers, version metadata is fetched best-effort and a
// snapshot of the report is written in a detached goroutine. Call Wait during
// shutdown to let pending writes finish.
//
// # Fallback
//
// Reporter wraps the aggregator. If aggregation returns an error or panics,
// Check returns a reduced report built from the database probe alone:
//
//	reporter := health.NewReporter(agg, dbProbe, health.WithLogger(logger))
//	http.Handle("/api/health", health.Handler(reporter, health.HandlerConfig{}))
//
// The handler answers 503 for down and 200 for degraded or up.
package health
