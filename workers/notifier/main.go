package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"os"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/oseayemenre/libsy/internal/notify"
)

// sendMail delivers one event. With no SMTP_ADDR configured the mail is
// only logged, which is enough for local runs.
func sendMail(logger *slog.Logger, event *notify.Event) error {
	addr := os.Getenv("SMTP_ADDR")

	if addr == "" {
		logger.Info("mail delivery skipped, no SMTP_ADDR set",
			slog.String("type", event.Type),
			slog.String("to", event.To),
			slog.String("subject", event.Subject),
		)
		return nil
	}

	from := os.Getenv("SMTP_FROM")

	var auth smtp.Auth

	if username := os.Getenv("SMTP_USERNAME"); username != "" {
		auth = smtp.PlainAuth("", username, os.Getenv("SMTP_PASSWORD"), os.Getenv("SMTP_HOST"))
	}

	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", from, event.To, event.Subject, event.Body)

	return smtp.SendMail(addr, auth, from, []string{event.To}, []byte(body))
}

func main() {
	godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	logger.Info("connecting to queue...")
	conn, err := amqp.Dial(os.Getenv("AMQP_CONN"))
	if err != nil {
		logger.Error(fmt.Sprintf("error connecting to rabbitmq, %v", err))
		os.Exit(1)
	}
	defer conn.Close()
	logger.Info("queue connected")

	logger.Info("opening channel...")
	ch, err := conn.Channel()
	if err != nil {
		logger.Error(fmt.Sprintf("error opening channel, %v", err))
		os.Exit(1)
	}
	defer ch.Close()
	logger.Info("channel opened")

	queue, err := ch.QueueDeclare(notify.QueueNotifications, true, false, false, false, nil)
	if err != nil {
		logger.Error(fmt.Sprintf("error declaring queue, %v", err))
		os.Exit(1)
	}

	msg, err := ch.ConsumeWithContext(context.Background(), queue.Name, "", false, false, false, false, nil)
	if err != nil {
		logger.Error(fmt.Sprintf("error consuming messages from queue, %v", err))
		os.Exit(1)
	}

	for d := range msg {
		var event notify.Event
		if err := json.Unmarshal(d.Body, &event); err != nil {
			logger.Error(fmt.Sprintf("error unmarshalling event, %v", err))
			d.Nack(false, false)
			continue
		}

		if event.To == "" {
			d.Nack(false, false)
			continue
		}

		if err := sendMail(logger, &event); err != nil {
			logger.Error(fmt.Sprintf("error sending mail, %v", err))
			d.Nack(false, true)
			continue
		}

		logger.Info("mail delivered",
			slog.String("type", event.Type),
			slog.String("to", event.To),
		)

		if err := d.Ack(false); err != nil {
			logger.Error(fmt.Sprintf("error acknowledging message, %v", err))
		}
	}
}
