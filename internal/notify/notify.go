package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const QueueNotifications = "library.notifications"

const (
	EventPasswordReset = "password_reset"
	EventBookIssued    = "book_issued"
	EventBookReturned  = "book_returned"
)

// Event is the unit of work the notifier worker consumes off the queue.
type Event struct {
	Type    string `json:"type"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Notifier interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

type AmqpNotifier struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAmqpNotifier(conn string) (*AmqpNotifier, error) {
	c, err := amqp.Dial(conn)

	if err != nil {
		return nil, fmt.Errorf("error connecting to rabbitmq: %v", err)
	}

	ch, err := c.Channel()

	if err != nil {
		c.Close()
		return nil, fmt.Errorf("error opening channel: %v", err)
	}

	if _, err := ch.QueueDeclare(QueueNotifications, true, false, false, false, nil); err != nil {
		ch.Close()
		c.Close()
		return nil, fmt.Errorf("error declaring queue: %v", err)
	}

	return &AmqpNotifier{conn: c, ch: ch}, nil
}

func (n *AmqpNotifier) Publish(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)

	if err != nil {
		return fmt.Errorf("error marshalling event: %v", err)
	}

	if err := n.ch.PublishWithContext(ctx, "", QueueNotifications, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}); err != nil {
		return fmt.Errorf("error publishing message to queue: %v", err)
	}

	return nil
}

func (n *AmqpNotifier) Close() error {
	n.ch.Close()
	return n.conn.Close()
}
