// Package metrics provides generation metrics behind a small Recorder interface.
//
// Components receive a Recorder and default to NoopRecorder, so nothing needs nil checks:
//
//	coordinator := generator.New(registry, generator.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// Long-running commands expose the registry over HTTP with HTTPHandler; one-shot commands
// write it to a node_exporter textfile with WriteTextfile.
package metrics
