package tvclient

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// sessionFunc runs one connection until it fails. connected reports whether
// the connection was established before the failure.
type sessionFunc func(ctx context.Context) (connected bool, err error)

// runWithReconnect repeats session until ctx is done, waiting with an
// exponential backoff between attempts. The backoff starts over after every
// connection that was established.
func runWithReconnect(ctx context.Context, log *zap.Logger, session sessionFunc) error {
	backoff := minBackoff
	for {
		connected, err := session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			backoff = minBackoff
		}

		log.Info("connection lost, reconnecting", zap.Error(err), zap.Duration("backoff", backoff))

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}

		backoff = min(backoff*2, maxBackoff)
	}
}
