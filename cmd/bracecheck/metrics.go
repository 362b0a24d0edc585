// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kraklabs/bracecheck/pkg/braces"
)

// scanMetrics holds the Prometheus collectors for a scan target.
type scanMetrics struct {
	registry     *prometheus.Registry
	depth        prometheus.Gauge
	unclosed     prometheus.Gauge
	lines        prometheus.Gauge
	commentLines prometheus.Gauge
	braces       *prometheus.GaugeVec
	scans        *prometheus.CounterVec
	duration     prometheus.Histogram
	lastScan     prometheus.Gauge
}

func newScanMetrics(target, mode string) *scanMetrics {
	labels := prometheus.Labels{"target": target, "mode": mode}
	m := &scanMetrics{
		registry: prometheus.NewRegistry(),
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "bracecheck_final_depth",
			Help:        "Brace nesting depth at the end of the last scan.",
			ConstLabels: labels,
		}),
		unclosed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "bracecheck_open_markers",
			Help:        "Opening braces still on the marker stack after the last scan.",
			ConstLabels: labels,
		}),
		lines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "bracecheck_lines",
			Help:        "Lines read by the last scan.",
			ConstLabels: labels,
		}),
		commentLines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "bracecheck_comment_lines",
			Help:        "Lines skipped as // comments by the last scan.",
			ConstLabels: labels,
		}),
		braces: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "bracecheck_braces",
			Help:        "Braces counted by the last scan, by kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "bracecheck_scans_total",
			Help:        "Scans run, by outcome.",
			ConstLabels: labels,
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "bracecheck_scan_duration_seconds",
			Help:        "Time spent scanning the target.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		lastScan: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "bracecheck_last_scan_timestamp_seconds",
			Help:        "Unix time of the last successful scan.",
			ConstLabels: labels,
		}),
	}
	m.registry.MustRegister(
		m.depth, m.unclosed, m.lines, m.commentLines,
		m.braces, m.scans, m.duration, m.lastScan,
	)
	return m
}

func (m *scanMetrics) observe(res braces.Result, elapsed time.Duration) {
	m.depth.Set(float64(res.Depth))
	m.unclosed.Set(float64(len(res.Open)))
	m.lines.Set(float64(res.Lines))
	m.commentLines.Set(float64(res.CommentLines))
	m.braces.WithLabelValues("open").Set(float64(res.Opened))
	m.braces.WithLabelValues("close").Set(float64(res.Closed))
	m.duration.Observe(elapsed.Seconds())
	m.lastScan.SetToCurrentTime()

	result := "balanced"
	if !res.Balanced() {
		result = "unbalanced"
	}
	m.scans.WithLabelValues(result).Inc()
}

func (m *scanMetrics) observeError() {
	m.scans.WithLabelValues("error").Inc()
}

// writeTextfile writes the registry in the node_exporter textfile format.
func (m *scanMetrics) writeTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *scanMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// serveMetrics exposes /metrics on addr until ctx is cancelled.
func serveMetrics(ctx context.Context, addr string, m *scanMetrics) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
