// Package telemetry provides logging and metrics for the foremast CLI.
//
// # Logging
//
// Logger wraps zerolog with component and source helpers:
//
//	logger, _ := telemetry.NewLogger(cfg.Logging)
//	loader := logger.NewComponentLogger("source")
//	loader.WithSource("file", "/etc/foremast/foremast.cfg").Debug("Configuration file read")
//
// A nil *Logger is never dereferenced by the other packages; they call
// OrNop first.
//
// # Metrics
//
// Metrics keeps a private Prometheus registry with counters for merge
// strategy decisions and configuration source lookups. It satisfies
// merge.Observer, so it can be handed to the merge engine directly:
//
//	metrics, _ := telemetry.NewMetrics(cfg.Metrics)
//	merger := merge.New(merge.WithObserver(metrics))
//
// A short-lived CLI has no scrape endpoint, so the registry is exported with
// WriteTextfile for the node_exporter textfile collector.
package telemetry
