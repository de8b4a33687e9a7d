package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aussiebroadwan/traceline/internal/maintenance/domain"
	"github.com/aussiebroadwan/traceline/pkg/idx"
	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultQueue = "traceline.weekly_report"

// AMQPSink publishes each report as a persistent JSON message on a durable
// queue. A connection is opened per publish; reports are weekly.
type AMQPSink struct {
	URL   string
	Queue string
}

func NewAMQPSink(url, queue string) *AMQPSink {
	if queue == "" {
		queue = DefaultQueue
	}
	return &AMQPSink{URL: url, Queue: queue}
}

func (s *AMQPSink) Publish(ctx context.Context, r domain.WeeklyReport) error {
	conn, err := amqp.Dial(s.URL)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		s.Queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		return fmt.Errorf("amqp queue declare: %w", err)
	}

	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    idx.New(),
		Timestamp:    time.Now().UTC(),
		Type:         "weekly_report",
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", s.Queue, false, false, pub); err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}
