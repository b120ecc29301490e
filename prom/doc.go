// Package prom exports kanon run metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	a, _ := kanon.New(oracle, 5, kanon.WithMetricsCollector(prom.NewCollector(reg)))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prom
