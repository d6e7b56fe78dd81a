/*
Package observability exposes the render pipeline's lifecycle hooks as Prometheus
metrics and structured log lines.

	metrics := observability.NewMetrics()
	p, _ := brief.New(brief.WithLifecycleHooks(metrics.Hooks(logger)))
	http.Handle("/metrics", metrics.Handler())
*/
package observability
