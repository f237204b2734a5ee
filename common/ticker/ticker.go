// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ticker

import "time"

//go:generate mockgen -source ticker.go -destination ticker_mocks.go -package ticker

// Ticker delivers ticks at intervals defined by its implementation. It is
// the scheduling primitive of periodic background tasks, abstracted so
// that tests can drive those tasks tick by tick.
type Ticker interface {

	// C returns the channel on which the ticks are delivered.
	C() <-chan time.Time

	// Stop turns off a ticker. After Stop, no more ticks will be sent.
	Stop()
}

// Factory creates a ticker firing at the given interval.
type Factory func(time.Duration) Ticker

// TimeTicker is a Ticker backed by the standard time.Ticker.
type TimeTicker struct {
	ticker *time.Ticker
}

// NewTimeTicker creates a new TimeTicker firing every d.
func NewTimeTicker(d time.Duration) Ticker {
	return TimeTicker{time.NewTicker(d)}
}

func (t TimeTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t TimeTicker) Stop() {
	t.ticker.Stop()
}

// ManualTicker is a Ticker firing only when Tick is called.
type ManualTicker struct {
	c chan time.Time
}

// NewManualTicker creates a ticker with a buffer for the given number of
// undelivered ticks.
func NewManualTicker(buffer int) *ManualTicker {
	return &ManualTicker{c: make(chan time.Time, buffer)}
}

// Tick emits a tick, blocking while the buffer is full.
func (t *ManualTicker) Tick() {
	t.c <- time.Now()
}

func (t *ManualTicker) C() <-chan time.Time {
	return t.c
}

func (t *ManualTicker) Stop() {}
