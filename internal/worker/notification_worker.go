package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/repository"
)

// NotificationJanitor periodically deletes read notifications past the
// retention window.
type NotificationJanitor struct {
	store     repository.Store
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
	stop      chan struct{}
	done      chan struct{}
}

// NewNotificationJanitor constructs the janitor. Non-positive durations fall
// back to hourly sweeps and 30 day retention.
func NewNotificationJanitor(store repository.Store, interval, retention time.Duration, logger *zap.Logger) *NotificationJanitor {
	if interval <= 0 {
		interval = time.Hour
	}
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &NotificationJanitor{
		store:     store,
		interval:  interval,
		retention: retention,
		logger:    logger,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (j *NotificationJanitor) Start() {
	go j.run()
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (j *NotificationJanitor) Stop() {
	close(j.stop)
	<-j.done
}

func (j *NotificationJanitor) run() {
	defer close(j.done)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-j.stop:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *NotificationJanitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-j.retention)
	deleted, err := j.store.Notifications().DeleteReadBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("notification sweep failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		j.logger.Info("swept read notifications", zap.Int64("deleted", deleted))
	}
}
