package logging

import (
	"context"
	"log/slog"
	"time"
)

// Op tracks a named unit of work and logs its duration when finished.
type Op struct {
	logger *slog.Logger
	start  time.Time
}

// StartOp derives a logger scoped to the named operation and returns the
// enriched context along with a handle used to record completion.
func StartOp(ctx context.Context, name string, attrs ...slog.Attr) (context.Context, *Op) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx).With(slog.String("op", name))
	for _, attr := range attrs {
		logger = logger.With(attr)
	}

	ctx = WithLogger(ctx, logger)

	return ctx, &Op{logger: logger, start: time.Now()}
}

// Done emits a completion entry; a non-nil err marks the operation failed.
func (o *Op) Done(err error) {
	if o == nil {
		return
	}
	if err != nil {
		o.logger.Error("operation failed", slog.Duration("duration", time.Since(o.start)), "error", err)
		return
	}
	o.logger.Info("operation completed", slog.Duration("duration", time.Since(o.start)))
}
