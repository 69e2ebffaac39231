package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/cargarage/execution-service/internal/infrastructure/logger"
)

// MessageHandler processes one message body. A nil return acknowledges it.
type MessageHandler interface {
	Route(ctx context.Context, payload []byte) error
}

type HandlerFunc func(ctx context.Context, payload []byte) error

func (f HandlerFunc) Route(ctx context.Context, payload []byte) error { return f(ctx, payload) }

type SQSConsumerConfig struct {
	Name              string
	Client            SQSAPI
	QueueURL          string
	Handler           MessageHandler
	Workers           int
	MaxMessages       int32
	WaitTimeSeconds   int32
	VisibilityTimeout int32
	ErrorBackoff      time.Duration
	Logger            *logger.Logger
}

// SQSConsumer long-polls one queue with a fixed set of workers. Messages
// whose handler fails are left on the queue and come back after the
// visibility timeout.
type SQSConsumer struct {
	cfg    SQSConsumerConfig
	log    *logger.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSQSConsumer(cfg SQSConsumerConfig) *SQSConsumer {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxMessages <= 0 || cfg.MaxMessages > 10 {
		cfg.MaxMessages = 10
	}
	if cfg.WaitTimeSeconds < 0 || cfg.WaitTimeSeconds > 20 {
		cfg.WaitTimeSeconds = 20
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = 2 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	return &SQSConsumer{cfg: cfg, log: cfg.Logger}
}

func (c *SQSConsumer) Start(ctx context.Context) {
	pollCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.log.Infow("sqs_consumer_starting", "consumer", c.cfg.Name, "queue", c.cfg.QueueURL, "workers", c.cfg.Workers)
	for i := 0; i < c.cfg.Workers; i++ {
		c.wg.Add(1)
		go func(worker string) {
			defer c.wg.Done()
			c.run(pollCtx, worker)
		}(fmt.Sprintf("%s-%d", c.cfg.Name, i))
	}
}

// Shutdown stops polling and waits for in-flight messages up to timeout.
func (c *SQSConsumer) Shutdown(timeout time.Duration) {
	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.log.Infow("sqs_consumer_stopped", "consumer", c.cfg.Name)
	case <-time.After(timeout):
		c.log.Warnw("sqs_consumer_shutdown_timeout", "consumer", c.cfg.Name, "timeout", timeout)
	}
}

func (c *SQSConsumer) run(ctx context.Context, worker string) {
	for {
		if ctx.Err() != nil {
			return
		}

		out, err := c.cfg.Client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:              aws.String(c.cfg.QueueURL),
			MaxNumberOfMessages:   c.cfg.MaxMessages,
			WaitTimeSeconds:       c.cfg.WaitTimeSeconds,
			VisibilityTimeout:     c.cfg.VisibilityTimeout,
			MessageAttributeNames: []string{"All"},
		})
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			c.log.Errorw("sqs_consumer_receive_failed", "worker", worker, "queue", c.cfg.QueueURL, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.cfg.ErrorBackoff):
			}
			continue
		}

		for _, msg := range out.Messages {
			// in-flight messages finish even when polling is cancelled
			c.handle(context.WithoutCancel(ctx), worker, msg)
		}
	}
}

func (c *SQSConsumer) handle(ctx context.Context, worker string, msg types.Message) {
	messageID := aws.ToString(msg.MessageId)
	if err := c.cfg.Handler.Route(ctx, []byte(aws.ToString(msg.Body))); err != nil {
		c.log.Errorw("sqs_consumer_message_failed",
			"worker", worker,
			"queue", c.cfg.QueueURL,
			"message_id", messageID,
			"error", err,
		)
		return
	}

	if _, err := c.cfg.Client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.cfg.QueueURL),
		ReceiptHandle: msg.ReceiptHandle,
	}); err != nil {
		c.log.Errorw("sqs_consumer_delete_failed", "worker", worker, "message_id", messageID, "error", err)
		return
	}
	c.log.Debugw("sqs_consumer_message_done", "worker", worker, "message_id", messageID)
}
