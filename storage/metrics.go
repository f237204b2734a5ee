// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package storage

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	highestHeight prometheus.Gauge
	appliedBlocks prometheus.Counter
	flushDuration prometheus.Histogram
	flushFailures prometheus.Counter
}

// newMetrics creates the collectors of a store. They are registered with reg
// unless it is nil.
func newMetrics(namespace string, reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		highestHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "highest_height",
			Help:      "height of the highest confirmed state",
		}),
		appliedBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "applied_blocks",
			Help:      "cumulative number of blocks applied",
		}),
		flushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_duration_seconds",
			Help:      "time spent persisting the store",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		flushFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flush_failures",
			Help:      "cumulative number of failed attempts to persist the store",
		}),
	}
	if reg == nil {
		return m, nil
	}
	return m, errors.Join(
		reg.Register(m.highestHeight),
		reg.Register(m.appliedBlocks),
		reg.Register(m.flushDuration),
		reg.Register(m.flushFailures),
	)
}
