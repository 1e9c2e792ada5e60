// Package metrics provides the observability hooks for scanbinder runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics cost nothing unless enabled:
//
//	svc := build.NewService(registry, console).WithRecorder(metrics.NoopRecorder{})
//
// The Prometheus implementation registers its collectors on a private registry.
// scanbinder never listens on the network; when --metrics-file is given the
// registry is written once per run in the node_exporter textfile format:
//
//	reg := prom.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	// ... run ...
//	err := metrics.WriteTextfile("/var/lib/node_exporter/scanbinder.prom", reg)
package metrics
