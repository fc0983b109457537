// Package observe provides reactive.Observer implementations: Prometheus
// metrics, OpenTelemetry spans, and a fan-out combining several observers.
//
//	reg := prometheus.NewRegistry()
//	rt := reactive.New(reactive.WithObserver(observe.Multi(
//		observe.NewMetrics(observe.WithRegistry(reg)),
//		observe.NewTracer(),
//	)))
package observe
