// Package retention sweeps stale typing rows out of the store on a cron
// schedule. The read path already filters them by timestamp; the sweep only
// reclaims space and is safe to leave disabled.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"conversadb/pkg/config"
	"conversadb/pkg/logger"
	"conversadb/pkg/store"
)

// defaultMaxAge keeps typing rows for an hour before they are eligible for
// the sweep. Rows stop being visible to readers after three seconds
// regardless.
const defaultMaxAge = time.Hour

// Start starts the retention scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, cfg *config.Config) (context.CancelFunc, error) {
	ret := cfg.Retention

	if !ret.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}

	// map empty cron to default daily @02:00
	cronExpr := ret.Cron
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("retention_invalid_cron", "cron", ret.Cron)
		return nil, fmt.Errorf("invalid retention cron expression: %s", ret.Cron)
	}

	maxAge := defaultMaxAge
	if ret.MaxAge != "" {
		d, err := time.ParseDuration(ret.MaxAge)
		if err != nil {
			logger.Error("retention_invalid_max_age", "max_age", ret.MaxAge)
			return nil, fmt.Errorf("invalid retention max_age: %s", ret.MaxAge)
		}
		maxAge = d
	}

	logger.Info("retention_enabled", "cron", cronExpr, "max_age", maxAge.String())
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr, maxAge)
	return cancel, nil
}

// RunOnce performs a single sweep, removing typing rows older than maxAge.
func RunOnce(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge).UnixMilli()
	return store.PurgeTypingBefore(cutoff)
}

// runScheduler uses gronx to compute the next tick for the configured cron
// expression and sleeps until that time.
func runScheduler(ctx context.Context, cronExpr string, maxAge time.Duration) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		wait := time.Until(next)
		if wait <= 0 {
			sweep(maxAge)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(wait):
			sweep(maxAge)
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		}
	}
}

func sweep(maxAge time.Duration) {
	n, err := RunOnce(maxAge)
	if err != nil {
		logger.Error("retention_run_error", "error", err)
		return
	}
	logger.Info("retention_swept", "typing_rows", n)
}
