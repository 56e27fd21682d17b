// Package notifier polls the due-soon endpoint as a fallback reminder path
// for sessions where the push channel is unavailable.
package notifier

import (
	"context"
	"time"

	"taskclient/internal/logger"
	"taskclient/internal/models"
	"taskclient/internal/services"

	"go.uber.org/zap"
)

const (
	defaultInterval      = 5 * time.Minute
	defaultWindowMinutes = 30
)

type DueSoonNotifier struct {
	tasks    *services.TaskService
	interval time.Duration
	window   int
	notify   func([]models.Task)

	// seen suppresses repeat reminders for a task within the session.
	seen map[int64]struct{}
}

func New(tasks *services.TaskService, interval time.Duration, windowMinutes int, notify func([]models.Task)) *DueSoonNotifier {
	if interval <= 0 {
		interval = defaultInterval
	}
	if windowMinutes <= 0 {
		windowMinutes = defaultWindowMinutes
	}
	return &DueSoonNotifier{
		tasks:    tasks,
		interval: interval,
		window:   windowMinutes,
		notify:   notify,
		seen:     make(map[int64]struct{}),
	}
}

// Start blocks until ctx is cancelled, checking on every tick.
func (n *DueSoonNotifier) Start(ctx context.Context) {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	n.Check(ctx)
	for {
		select {
		case <-ticker.C:
			n.Check(ctx)
		case <-ctx.Done():
			logger.Info("notifier: stopping")
			return
		}
	}
}

// Check runs one due-soon poll. Fetch failures are logged and skipped; the
// next tick tries again.
func (n *DueSoonNotifier) Check(ctx context.Context) {
	tasks, err := n.tasks.DueSoon(ctx, n.window)
	if err != nil {
		logger.Warn("notifier: due-soon fetch failed", zap.Error(err))
		return
	}

	var fresh []models.Task
	for _, t := range tasks {
		if _, ok := n.seen[t.ID]; ok {
			continue
		}
		n.seen[t.ID] = struct{}{}
		fresh = append(fresh, t)
	}
	if len(fresh) == 0 {
		return
	}

	logger.Info("notifier: tasks due soon", zap.Int("count", len(fresh)))
	if n.notify != nil {
		n.notify(fresh)
	}
}
