// Package server exposes the Prometheus metrics of picalc over HTTP. The
// server is optional and only started when a metrics address is configured.
package server
