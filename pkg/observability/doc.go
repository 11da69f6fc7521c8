/*
Package observability turns engine lifecycle hooks into metrics and audit logs.

Metrics records prometheus counters and histograms; LoggingHooks writes one
structured log line per executor call. Combine both with LifecycleHooks.Merge.
*/
package observability
