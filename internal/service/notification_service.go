package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/gds-portal-api/internal/models"
	"github.com/noah-isme/gds-portal-api/pkg/config"
	"github.com/noah-isme/gds-portal-api/pkg/jobs"
)

// Notification is a queued workflow event message.
type Notification struct {
	RequestID   string               `json:"request_id"`
	StudentName string               `json:"student_name"`
	FromState   models.WorkflowState `json:"from_state"`
	ToState     models.WorkflowState `json:"to_state"`
	Reason      string               `json:"reason,omitempty"`
	ActorID     string               `json:"actor_id"`
	OccurredAt  time.Time            `json:"occurred_at"`
}

// Notifier delivers workflow event notifications.
type Notifier interface {
	NotifyTransition(ctx context.Context, n Notification)
}

// NotificationService fans workflow events out to interested parties via a
// background worker queue. Delivery is fire and forget: a transition never
// fails because a notification could not be sent.
type NotificationService struct {
	queue   *jobs.Queue
	logger  *zap.Logger
	enabled bool

	mu   sync.RWMutex
	sent []Notification
}

// NewNotificationService builds the queue-backed notifier.
func NewNotificationService(cfg config.NotificationsConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{logger: logger, enabled: cfg.Enabled}
	s.queue = jobs.NewQueue("notifications", s.deliver, jobs.Options{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	if s.enabled {
		s.queue.Start(ctx)
	}
}

// Stop drains the queue and stops the workers.
func (s *NotificationService) Stop() {
	if s.enabled {
		s.queue.Stop()
	}
}

// NotifyTransition enqueues a workflow event for delivery.
func (s *NotificationService) NotifyTransition(_ context.Context, n Notification) {
	if !s.enabled {
		return
	}
	if n.OccurredAt.IsZero() {
		n.OccurredAt = time.Now().UTC()
	}
	err := s.queue.Enqueue(jobs.Task{
		ID:      uuid.NewString(),
		Kind:    "workflow.transition",
		Payload: n,
	})
	if err != nil {
		s.logger.Warn("notification dropped", zap.String("request_id", n.RequestID), zap.Error(err))
	}
}

func (s *NotificationService) deliver(_ context.Context, task jobs.Task) error {
	n, ok := task.Payload.(Notification)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", task.Payload)
	}
	s.mu.Lock()
	s.sent = append(s.sent, n)
	if len(s.sent) > 1000 {
		s.sent = s.sent[len(s.sent)-1000:]
	}
	s.mu.Unlock()
	s.logger.Info("workflow notification",
		zap.String("request_id", n.RequestID),
		zap.String("student", n.StudentName),
		zap.String("from", string(n.FromState)),
		zap.String("to", string(n.ToState)),
	)
	return nil
}

// Recent returns the most recent delivered notifications, newest last.
func (s *NotificationService) Recent(limit int) []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.sent) {
		limit = len(s.sent)
	}
	out := make([]Notification, limit)
	copy(out, s.sent[len(s.sent)-limit:])
	return out
}
