// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bureau-foundation/lsp-proxy/lib/relay"
)

// Metrics are the session counters exported to a Prometheus textfile
// (for node_exporter's textfile collector) when the session ends. A
// nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	bytes         *prometheus.CounterVec
	frames        *prometheus.CounterVec
	framingErrors *prometheus.CounterVec
	invalidFrames *prometheus.CounterVec
	droppedWrites *prometheus.CounterVec

	duration prometheus.Gauge
	exitCode prometheus.Gauge
}

// NewMetrics registers the session metrics on a private registry.
func NewMetrics() *Metrics {
	streamCounter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lsp_proxy",
			Name:      name,
			Help:      help,
		}, []string{"stream"})
	}

	metrics := &Metrics{
		registry:      prometheus.NewRegistry(),
		bytes:         streamCounter("stream_bytes_total", "Bytes relayed per stream."),
		frames:        streamCounter("frames_total", "Protocol frames parsed per stream."),
		framingErrors: streamCounter("framing_errors_total", "Framing failures that demoted a stream to raw logging."),
		invalidFrames: streamCounter("invalid_frames_total", "Frames skipped from structured logs because the body was not JSON."),
		droppedWrites: streamCounter("dropped_log_writes_total", "Log writes dropped after a sink failed."),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lsp_proxy",
			Name:      "session_duration_seconds",
			Help:      "Wall time from session start to backend exit.",
		}),
		exitCode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lsp_proxy",
			Name:      "backend_exit_code",
			Help:      "Exit status the proxy reported for the backend.",
		}),
	}
	metrics.registry.MustRegister(
		metrics.bytes,
		metrics.frames,
		metrics.framingErrors,
		metrics.invalidFrames,
		metrics.droppedWrites,
		metrics.duration,
		metrics.exitCode,
	)
	return metrics
}

// Stream returns the counters a relay tee updates for stream.
func (metrics *Metrics) Stream(stream Stream) relay.StreamMetrics {
	if metrics == nil {
		return relay.StreamMetrics{}
	}
	label := stream.String()
	return relay.StreamMetrics{
		Bytes:         metrics.bytes.WithLabelValues(label),
		Frames:        metrics.frames.WithLabelValues(label),
		FramingErrors: metrics.framingErrors.WithLabelValues(label),
		InvalidFrames: metrics.invalidFrames.WithLabelValues(label),
	}
}

// ObserveDropped records log writes a broken sink discarded.
func (metrics *Metrics) ObserveDropped(stream Stream, dropped int64) {
	if metrics == nil || dropped == 0 {
		return
	}
	metrics.droppedWrites.WithLabelValues(stream.String()).Add(float64(dropped))
}

// ObserveExit records the session outcome.
func (metrics *Metrics) ObserveExit(exitCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.exitCode.Set(float64(exitCode))
	metrics.duration.Set(duration.Seconds())
}

// Gatherer exposes the registry, for tests and embedding.
func (metrics *Metrics) Gatherer() prometheus.Gatherer {
	return metrics.registry
}

// WriteTextfile writes the metrics in the Prometheus text format,
// atomically replacing path.
func (metrics *Metrics) WriteTextfile(path string) error {
	if metrics == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, metrics.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
