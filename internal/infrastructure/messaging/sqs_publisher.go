package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/cargarage/execution-service/internal/core/ports"
	"github.com/cargarage/execution-service/internal/domain"
	"github.com/cargarage/execution-service/internal/infrastructure/logger"
	"github.com/google/uuid"
)

const (
	DefaultMessageGroupID = "execution-service-events"

	targetDurable             = "execution_events"
	targetExecutionCompleted  = "execution_completed"
	targetResourceUnavailable = "resource_unavailable"
)

type SQSPublisherConfig struct {
	Client                      SQSAPI
	ExecutionEventsQueueURL     string
	ExecutionCompletedQueueURL  string
	ResourceUnavailableQueueURL string
	MessageGroupID              string
	Clock                       ports.Clock
	Sink                        ports.EventSink
	Metrics                     ports.ExecutionMetrics
	Logger                      *logger.Logger
	NewEventID                  func() string
}

type sqsPublisher struct {
	client                 SQSAPI
	eventsQueue            string
	completedQueue         string
	resourceUnavailableURL string
	groupID                string
	clock                  ports.Clock
	sink                   ports.EventSink
	metrics                ports.ExecutionMetrics
	logger                 *logger.Logger
	newEventID             func() string
}

func NewSQSPublisher(cfg SQSPublisherConfig) ports.ExecutionEventPublisher {
	p := &sqsPublisher{
		client:                 cfg.Client,
		eventsQueue:            cfg.ExecutionEventsQueueURL,
		completedQueue:         cfg.ExecutionCompletedQueueURL,
		resourceUnavailableURL: cfg.ResourceUnavailableQueueURL,
		groupID:                cfg.MessageGroupID,
		clock:                  cfg.Clock,
		sink:                   cfg.Sink,
		metrics:                cfg.Metrics,
		logger:                 cfg.Logger,
		newEventID:             cfg.NewEventID,
	}
	if p.groupID == "" {
		p.groupID = DefaultMessageGroupID
	}
	if p.clock == nil {
		p.clock = ports.SystemClock{}
	}
	if p.metrics == nil {
		p.metrics = ports.NoopMetrics{}
	}
	if p.logger == nil {
		p.logger = logger.NewNop()
	}
	if p.newEventID == nil {
		p.newEventID = uuid.NewString
	}
	return p
}

func (p *sqsPublisher) PublishExecutionStarted(ctx context.Context, task *domain.ExecutionTask) error {
	return p.publishDurable(ctx, domain.EventExecutionStarted, task)
}

func (p *sqsPublisher) PublishExecutionCompleted(ctx context.Context, task *domain.ExecutionTask) error {
	if err := p.publishDurable(ctx, domain.EventExecutionCompleted, task); err != nil {
		return err
	}
	return p.publishCompat(ctx, domain.EventExecutionCompleted, targetExecutionCompleted, p.completedQueue,
		domain.OrderNotification{OrderID: task.ServiceOrderID})
}

func (p *sqsPublisher) PublishExecutionFailed(ctx context.Context, task *domain.ExecutionTask) error {
	if err := p.publishDurable(ctx, domain.EventExecutionFailed, task); err != nil {
		return err
	}
	return p.publishCompat(ctx, domain.EventExecutionFailed, targetResourceUnavailable, p.resourceUnavailableURL,
		domain.OrderNotification{OrderID: task.ServiceOrderID, Reason: task.FailureReason})
}

// publishDurable sends the ordered transition notification. On FIFO queues
// every message shares one group; the dedup id collapses re-sends of the same
// transition within the same millisecond.
func (p *sqsPublisher) publishDurable(ctx context.Context, eventType domain.ExecutionEventType, task *domain.ExecutionTask) error {
	at := p.clock.Now()
	event := domain.NewExecutionEvent(p.newEventID(), eventType, task, at)

	body, err := json.Marshal(event)
	if err != nil {
		return domain.NewError(domain.ErrTransportFailure, "failed to encode execution event", err,
			map[string]any{"task_id": task.ID, "event_type": string(eventType)})
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.eventsQueue),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(eventType)),
			},
			"serviceOrderId": {
				DataType:    aws.String("String"),
				StringValue: aws.String(strconv.FormatInt(task.ServiceOrderID, 10)),
			},
		},
	}
	if isFIFO(p.eventsQueue) {
		input.MessageGroupId = aws.String(p.groupID)
		input.MessageDeduplicationId = aws.String(fmt.Sprintf("%d-%s-%d", task.ID, eventType, at.UnixMilli()))
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		p.metrics.EventPublished(string(eventType), targetDurable, "error")
		p.logger.Errorw("execution_event_publish_failed",
			"event_type", eventType,
			"task_id", task.ID,
			"service_order_id", task.ServiceOrderID,
			"error", err,
		)
		return domain.WrapTransport(err, "failed to publish execution event",
			map[string]any{"task_id": task.ID, "event_type": string(eventType), "target": targetDurable})
	}

	p.metrics.EventPublished(string(eventType), targetDurable, "ok")
	p.logger.Infow("execution_event_published",
		"event_id", event.EventID,
		"event_type", eventType,
		"task_id", task.ID,
		"service_order_id", task.ServiceOrderID,
	)
	if p.sink != nil {
		p.sink.Broadcast(event)
	}
	return nil
}

// publishCompat sends the narrow {orderId, reason} notice. It carries no
// group or dedup key.
func (p *sqsPublisher) publishCompat(ctx context.Context, eventType domain.ExecutionEventType, target, queueURL string, notification domain.OrderNotification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return domain.NewError(domain.ErrTransportFailure, "failed to encode order notification", err,
			map[string]any{"order_id": notification.OrderID, "target": target})
	}

	if _, err := p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(body)),
	}); err != nil {
		p.metrics.EventPublished(string(eventType), target, "error")
		p.logger.Errorw("order_notification_publish_failed", "target", target, "order_id", notification.OrderID, "error", err)
		return domain.WrapTransport(err, "failed to publish order notification",
			map[string]any{"order_id": notification.OrderID, "target": target})
	}

	p.metrics.EventPublished(string(eventType), target, "ok")
	p.logger.Infow("order_notification_published", "target", target, "order_id", notification.OrderID)
	return nil
}
