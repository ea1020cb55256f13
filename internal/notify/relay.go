package notify

import (
	"context"
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"github.com/Jexxy1517/CashFlowReportApp/internal/log"
)

// AMQPRelay is the consuming side of the notification fanout: it binds
// its own queue to the exchange and hands each message to a handler.
// The relay process forwards them to devices; this package only gets
// them off the broker reliably.
type AMQPRelay struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	logger       *log.Logger
}

func NewAMQPRelay(url, exchangeName, queueName string, logger *log.Logger) (*AMQPRelay, error) {
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

	relay := &AMQPRelay{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger.WithComponent(log.ComponentNotify),
	}

	if err := relay.setup(); err != nil {
		relay.Close()
		return nil, fmt.Errorf("setup queue: %w", err)
	}

	return relay, nil
}

func (r *AMQPRelay) setup() error {
	err := r.channel.ExchangeDeclare(
		r.exchangeName, // name
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

	_, err = r.channel.QueueDeclare(
		r.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = r.channel.QueueBind(
		r.queueName,    // queue name
		"",             // routing key (ignored by fanout)
		r.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Consume delivers each notification to the handler until ctx is done.
// A handler error requeues the message; a malformed payload is dropped.
func (r *AMQPRelay) Consume(ctx context.Context, handler func(context.Context, Message) error) error {
	deliveries, err := r.channel.Consume(
		r.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	r.logger.InfoContext(ctx, "consuming notifications", "queue", r.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}

			msg, err := MessageFromJSON(delivery.Body)
			if err != nil {
				r.logger.ErrorContext(ctx, "malformed notification", log.FieldError, err)
				_ = delivery.Nack(false, false)
				continue
			}

			if err := handler(ctx, *msg); err != nil {
				r.logger.ErrorContext(ctx, "notification handler failed",
					log.FieldTitle, msg.Title,
					log.FieldError, err)
				_ = delivery.Nack(false, true)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

func (r *AMQPRelay) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
