// Package notify fans owner-facing notifications out to subscribers and
// keeps the most recent ones for the dashboard.
package notify

import (
	"slices"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/xid"
)

const topic = "notification"

const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

const DefaultKeep = 50

type Hub struct {
	bus    EventBus.Bus
	logger *zap.Logger
	now    func() time.Time
	keep   int

	mu     sync.RWMutex
	recent []domain.Notification
}

func New(logger *zap.Logger, keep int) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if keep <= 0 {
		keep = DefaultKeep
	}
	h := &Hub{
		bus:    EventBus.New(),
		logger: logger.Named("notify"),
		now:    time.Now,
		keep:   keep,
	}
	if err := h.bus.Subscribe(topic, h.record); err != nil {
		h.logger.Error("subscribe recorder", zap.Error(err))
	}
	return h
}

// Notify publishes a notification to every subscriber synchronously.
func (h *Hub) Notify(level string, title string, message string) domain.Notification {
	n := domain.Notification{
		ID:        xid.New("ntf"),
		Level:     level,
		Title:     title,
		Message:   message,
		CreatedAt: h.now(),
	}
	h.bus.Publish(topic, n)
	return n
}

func (h *Hub) Subscribe(fn func(domain.Notification)) error {
	return h.bus.Subscribe(topic, fn)
}

func (h *Hub) Unsubscribe(fn func(domain.Notification)) error {
	return h.bus.Unsubscribe(topic, fn)
}

// Recent returns up to n notifications, newest first. n <= 0 returns all
// kept notifications.
func (h *Hub) Recent(n int) []domain.Notification {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := slices.Clone(h.recent)
	slices.Reverse(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func (h *Hub) record(n domain.Notification) {
	fields := []zap.Field{zap.String("title", n.Title), zap.String("message", n.Message)}
	switch n.Level {
	case LevelError:
		h.logger.Error("notification", fields...)
	case LevelWarning:
		h.logger.Warn("notification", fields...)
	default:
		h.logger.Info("notification", fields...)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.recent = append(h.recent, n)
	if over := len(h.recent) - h.keep; over > 0 {
		h.recent = slices.Delete(h.recent, 0, over)
	}
}
