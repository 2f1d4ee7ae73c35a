// Package middleware provides observability for composition pipelines.
//
// Both observers attach to a pipeline through compose.Hooks:
//
//	pipe, _ := compose.New(compose.Options[L, C, O, P]{
//	    ...
//	    Hooks: compose.JoinHooks(
//	        middleware.Metrics(middleware.WithNamespace("myapp")),
//	        middleware.OTel(middleware.WithTracerName("myapp")),
//	    ),
//	})
//
// # Prometheus metrics
//
// Metrics() collects:
//   - stratum_stage_duration_seconds: stage duration histogram by stage and status
//   - stratum_cache_lookups_total: page-stage cache lookups by result (hit/miss)
//   - stratum_short_circuits_total: redirect/not-found terminations by stage and kind
//   - stratum_pipeline_errors_total: errors reaching the pipeline boundary
//
// Expose them with promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
//
// # OpenTelemetry tracing
//
// OTel() records one span per completed pipeline stage, parented on the
// request's context, with route and error status attributes.
package middleware
