package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/Jexxy1517/CashFlowReportApp/internal/log"
)

// AMQPSink publishes notifications to a fanout exchange. Whoever relays
// them to devices consumes from its own bound queue; this side only
// publishes.
type AMQPSink struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	logger       *log.Logger
}

func NewAMQPSink(url, exchangeName string, logger *log.Logger) (*AMQPSink, error) {
	if logger == nil {
		logger = log.New(log.Config{})
	}
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	sink := &AMQPSink{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		logger:       logger.WithComponent(log.ComponentNotify),
	}

	if err := sink.setup(); err != nil {
		sink.Close()
		return nil, fmt.Errorf("setup exchange: %w", err)
	}

	return sink, nil
}

func (s *AMQPSink) setup() error {
	err := s.channel.ExchangeDeclare(
		s.exchangeName, // name
		"fanout",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	return nil
}

// Notify publishes one notification. The message is not persistent:
// notifications are ephemeral by nature and a lost one is acceptable.
func (s *AMQPSink) Notify(ctx context.Context, title, body string) error {
	msg := NewMessage(title, body)
	payload, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = s.channel.PublishWithContext(
		ctx,
		s.exchangeName, // exchange
		"",             // routing key (ignored by fanout)
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        payload,
		},
	)
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}

	s.logger.InfoContext(ctx, "notification published", log.FieldTitle, title)
	return nil
}

func (s *AMQPSink) Close() error {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
