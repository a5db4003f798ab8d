package iot

import (
	"context"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
)

// RunAnalyticsLoop recomputes the fleet rollup every interval until ctx is
// done. Each successful run goes through the Notifier, so listeners only
// hear about snapshots whose counts moved. Failed runs are logged and
// publish nothing.
func (i *IOT) RunAnalyticsLoop(ctx context.Context, interval time.Duration) {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTScheduler),
	)

	if interval <= 0 {
		interval = DefaultAnalyticsInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Analytics loop started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			logger.Info("Analytics loop stopped")
			return
		case <-ticker.C:
			if _, err := i.Analytics.Compute(ctx, i.Options.StalenessWindow); err != nil {
				logger.Warn("Scheduled analytics failed", zap.Error(err))
			}
		}
	}
}
