package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/suteetoe/tenant-auth-service/pkg/events"
	"github.com/suteetoe/tenant-auth-service/pkg/logger"
)

// publish emits event and only logs failures; events never fail a request
func publish(ctx context.Context, p events.Publisher, subject string, event events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, subject, event); err != nil {
		logger.FromStdContext(ctx).Warn("Failed to publish event",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}
