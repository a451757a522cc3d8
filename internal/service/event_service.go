package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/pmb-api/internal/models"
	"github.com/noah-isme/pmb-api/pkg/jobs"
)

const eventQueueName = "registration-events"

type eventPublisher interface {
	Publish(ctx context.Context, eventType string, event interface{}) error
}

// EventService hands registration events to a background queue which
// publishes them to the broker. Emitting never fails the caller.
type EventService struct {
	publisher eventPublisher
	queue     *jobs.Queue
	metrics   *MetricsService
	logger    *zap.Logger
}

// EventServiceConfig tunes the dispatcher.
type EventServiceConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

// NewEventService wires a dispatcher around publisher. A nil publisher turns
// Emit into a no-op.
func NewEventService(publisher eventPublisher, cfg EventServiceConfig, metrics *MetricsService, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &EventService{publisher: publisher, metrics: metrics, logger: logger}
	if publisher == nil {
		return svc
	}
	svc.queue = jobs.NewQueue(eventQueueName, svc.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnGiveUp: func(job jobs.Job, err error) {
			metrics.RecordEvent(job.Type, err)
		},
	})
	metrics.TrackQueue(eventQueueName, svc.queue.Stats)
	return svc
}

// Start launches the dispatcher workers. ctx should outlive the HTTP server;
// shutdown goes through Stop.
func (s *EventService) Start(ctx context.Context) {
	if s.queue != nil {
		s.queue.Start(ctx)
	}
}

// Stop stops accepting events and gives buffered ones and pending retries up
// to timeout to publish. Events still queued after that are dropped.
func (s *EventService) Stop(timeout time.Duration) {
	if s.queue != nil {
		s.queue.Stop(timeout)
	}
}

// Emit schedules event for publication.
func (s *EventService) Emit(event models.RegistrationEvent) {
	if s == nil || s.queue == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	job := jobs.Job{ID: uuid.NewString(), Type: event.Type, Payload: event}
	if err := s.queue.Enqueue(job); err != nil {
		s.metrics.RecordEvent(event.Type, err)
		s.logger.Warn("event dropped", zap.String("type", event.Type), zap.String("registration_id", event.RegistrationID), zap.Error(err))
	}
}

func (s *EventService) handle(ctx context.Context, job jobs.Job) error {
	if err := s.publisher.Publish(ctx, job.Type, job.Payload); err != nil {
		return err
	}
	s.metrics.RecordEvent(job.Type, nil)
	return nil
}
