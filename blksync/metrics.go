// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package blksync

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects statistics of block synchronization.
type Metrics struct {
	blocksFetched prometheus.Counter
	txsFetched    prometheus.Counter
	cacheHits     prometheus.Counter
	inFlight      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg unless it
// is nil.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		blocksFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_blocks_fetched",
			Help:      "cumulative number of blocks fetched from peers",
		}),
		txsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_txs_fetched",
			Help:      "cumulative number of transactions fetched from peers",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_tx_cache_hits",
			Help:      "cumulative number of transactions resolved locally",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sync_tx_fetches_in_flight",
			Help:      "number of transaction requests currently in flight",
		}),
	}
	if reg == nil {
		return m, nil
	}
	return m, errors.Join(
		reg.Register(m.blocksFetched),
		reg.Register(m.txsFetched),
		reg.Register(m.cacheHits),
		reg.Register(m.inFlight),
	)
}

func newUnregisteredMetrics() *Metrics {
	m, _ := NewMetrics("", nil)
	return m
}
