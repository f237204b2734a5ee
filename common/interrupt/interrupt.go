// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package interrupt

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ledgerlab/ledgerstore/common"
	"go.uber.org/zap"
)

const ErrCanceled = common.ConstError("interrupted")

// IsCancelled returns true if the given context's CancelFunc has been called.
// Otherwise, returns false.
func IsCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Register catches SIGTERM and SIGINT signals and cancels the returned
// context so that long running tools can persist their state and shut
// down cleanly. The returned CancelFunc releases the signal handler.
func Register(parent context.Context, log *zap.Logger) (context.Context, context.CancelFunc) {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		defer signal.Stop(c)
		select {
		case sig := <-c:
			log.Warn("closing, please wait until the store has been persisted", zap.Stringer("signal", sig))
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
