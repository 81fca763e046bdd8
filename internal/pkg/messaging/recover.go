package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/benefactorum/authotp/internal/pkg/stacktrace"
)

// dispatch runs h and settles msg exactly once: ack on success or permanent
// failure, nack otherwise. A panicking handler counts as a retryable failure.
func dispatch(ctx context.Context, driver string, msg *Message, h Handler, ack, nack func() error) error {
	herr := callWithRecover(ctx, driver, func() error { return h(ctx, msg) })

	if !msg.settled.CompareAndSwap(false, true) {
		return nil
	}

	if herr == nil {
		return ack()
	}

	if IsPermanent(herr) {
		slog.WarnContext(ctx, "dropping message after permanent failure",
			"driver", driver, "topic", msg.Topic, "id", msg.ID, "error", herr)
		return ack()
	}

	slog.ErrorContext(ctx, "message handler failed, requesting redelivery",
		"driver", driver, "topic", msg.Topic, "id", msg.ID, "attempt", msg.Attempt, "error", herr)
	return nack()
}

func callWithRecover(ctx context.Context, driver string, fn func() error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			if paths := stacktrace.Internal(1); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "panic", rvr, "stack", string(debug.Stack()))
			}
			err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
		}
	}()

	return fn()
}
