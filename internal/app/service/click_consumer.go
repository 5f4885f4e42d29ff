package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/linklytics/linklytics/internal/app/model"
	"github.com/linklytics/linklytics/internal/app/repository"
	infraprom "github.com/linklytics/linklytics/internal/infra/prometheus"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// clickAction is the acknowledgement decision for one delivered message.
type clickAction int

const (
	// clickStored: the event was appended; ack the message.
	clickStored clickAction = iota
	// clickDropped: the event can never be applied (unknown alias); ack so
	// it is not redelivered.
	clickDropped
	// clickMalformed: the payload cannot be decoded; terminate delivery,
	// retrying would fail identically.
	clickMalformed
	// clickRetry: transient store failure; nak for redelivery until the
	// consumer's delivery budget is spent.
	clickRetry
)

// ClickConsumer drains the click stream and appends events to the record
// store. Delivery is at-least-once: a redelivered message appends a
// duplicate event, which the aggregation layer accepts by design.
type ClickConsumer struct {
	js       nats.JetStreamContext
	logger   *zap.Logger
	clicks   repository.ClickEventRepository
	links    repository.LinkRepository
	stopChan chan struct{}
}

// NewClickConsumer creates a click event consumer.
func NewClickConsumer(js nats.JetStreamContext, logger *zap.Logger, clicks repository.ClickEventRepository, links repository.LinkRepository) *ClickConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClickConsumer{
		js:       js,
		logger:   logger,
		clicks:   clicks,
		links:    links,
		stopChan: make(chan struct{}),
	}
}

// Start provisions the stream and durable consumer, then begins draining
// messages in the background.
func (c *ClickConsumer) Start() error {
	if _, err := c.js.StreamInfo(model.ClickStreamName); err != nil {
		_, err = c.js.AddStream(&nats.StreamConfig{
			Name:     model.ClickStreamName,
			Subjects: []string{model.ClickStreamSubject},
			MaxBytes: model.ClickStreamMaxBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	if _, err := c.js.ConsumerInfo(model.ClickStreamName, model.ClickConsumerName); err != nil {
		_, err = c.js.AddConsumer(model.ClickStreamName, &nats.ConsumerConfig{
			Durable:    model.ClickConsumerName,
			AckPolicy:  nats.AckExplicitPolicy,
			MaxDeliver: model.ClickMaxDeliver,
			AckWait:    30 * time.Second,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.ClickStreamSubject, model.ClickConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(sub)
	return nil
}

// Stop halts the consume loop after the in-flight fetch completes.
func (c *ClickConsumer) Stop() {
	close(c.stopChan)
}

func (c *ClickConsumer) consume(sub *nats.Subscription) {
	ctx := context.Background()
	for {
		select {
		case <-c.stopChan:
			c.logger.Info("click consumer stopped")
			return
		default:
		}

		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil && !errors.Is(err, nats.ErrTimeout) {
			c.logger.Error("failed to fetch messages", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			switch c.process(ctx, msg.Data) {
			case clickStored:
				msg.Ack()
			case clickDropped:
				msg.Ack()
			case clickMalformed:
				msg.Term()
			case clickRetry:
				msg.Nak()
			}
		}
	}
}

// process applies one message to the store and decides how to acknowledge
// it. Separated from the NATS loop so the decision table is testable.
func (c *ClickConsumer) process(ctx context.Context, data []byte) clickAction {
	var event model.ClickEvent
	if err := json.Unmarshal(data, &event); err != nil {
		c.logger.Error("failed to unmarshal click event", zap.Error(err))
		infraprom.ClicksConsumed.WithLabelValues("malformed").Inc()
		return clickMalformed
	}

	if _, err := c.links.GetByCode(ctx, event.ShortCode); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			c.logger.Warn("dropping click for unknown alias",
				zap.String("id", event.ID),
				zap.String("short_code", event.ShortCode))
			infraprom.ClicksConsumed.WithLabelValues("dropped").Inc()
			return clickDropped
		}
		c.logger.Error("failed to load link for click event",
			zap.String("id", event.ID),
			zap.String("short_code", event.ShortCode),
			zap.Error(err))
		infraprom.ClicksConsumed.WithLabelValues("retried").Inc()
		return clickRetry
	}

	if err := c.clicks.Create(ctx, &event); err != nil {
		c.logger.Error("failed to store click event",
			zap.String("id", event.ID),
			zap.String("short_code", event.ShortCode),
			zap.Error(err))
		infraprom.ClicksConsumed.WithLabelValues("retried").Inc()
		return clickRetry
	}

	c.logger.Debug("click event stored",
		zap.String("id", event.ID),
		zap.String("short_code", event.ShortCode),
		zap.String("ip", event.VisitorIP),
		zap.Time("timestamp", event.Timestamp),
	)
	infraprom.ClicksConsumed.WithLabelValues("stored").Inc()
	return clickStored
}
