// Package metrics holds the prometheus collectors of the scanner.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tweakscan"

var (
	BlocksScanned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blocks_scanned_total",
		Help:      "Number of blocks scanned to completion",
	})

	ScanFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scan_failures_total",
		Help:      "Number of block scans aborted by a fatal error",
	})

	TweaksEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tweaks_emitted_total",
		Help:      "Number of tweaks produced",
	})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scan_duration_seconds",
		Help:      "Wall clock time of a single block scan",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
	})

	// source is "memo" when the per-scan cache served the lookup, "provider" otherwise
	PrevOutLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "prevout_lookups_total",
		Help:      "Previous output lookups by source",
	}, []string{"source"})

	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_requests_total",
		Help:      "Chain data provider requests by backend, method and outcome",
	}, []string{"backend", "method", "outcome"})

	ProviderCacheEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_cache_events_total",
		Help:      "Provider cache hits and misses by cache layer",
	}, []string{"layer", "event"})
)
