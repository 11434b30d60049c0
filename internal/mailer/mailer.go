// Package mailer publishes outbound-mail messages to RabbitMQ. Errors are
// logged and returned so callers can ignore failures without interrupting
// the request that triggered the mail.
package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/volunteerhub/volunteer-hub/internal/queue"
)

// Mailer dispatches verification and password-reset emails through the
// mail.outbound queue. All three URLs come from the immutable startup
// config; nothing is read from the environment after construction. The
// raw token is embedded in the link and never logged by this side.
type Mailer struct {
	APIBaseURL string
	ClientURL  string
	AMQPURL    string
}

// New returns a Mailer building links against the given base URLs and
// publishing to the given broker.
func New(apiBaseURL, clientURL, amqpURL string) *Mailer {
	return &Mailer{APIBaseURL: apiBaseURL, ClientURL: clientURL, AMQPURL: amqpURL}
}

// SendVerificationEmail queues a verification mail. The link targets the
// API directly so clicking it consumes the token server-side.
func (m *Mailer) SendVerificationEmail(ctx context.Context, to, rawToken string) error {
	link := fmt.Sprintf("%s/v1/auth/verify-email?token=%s", m.APIBaseURL, rawToken)
	return publish(ctx, m.AMQPURL, queue.MailMessage{
		ID:          uuid.NewString(),
		Kind:        queue.MailVerifyEmail,
		To:          to,
		Link:        link,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// SendPasswordResetEmail queues a reset mail. The link targets the
// frontend, which collects the new password and posts it with the token.
func (m *Mailer) SendPasswordResetEmail(ctx context.Context, to, rawToken string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", m.ClientURL, rawToken)
	return publish(ctx, m.AMQPURL, queue.MailMessage{
		ID:          uuid.NewString(),
		Kind:        queue.MailPasswordReset,
		To:          to,
		Link:        link,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// publish opens a short-lived connection and channel, declares the durable
// queue (idempotent) and publishes one persistent message. The function
// never panics; any error is logged and returned for the caller to drop.
func publish(ctx context.Context, url string, msg queue.MailMessage) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Printf("mailer: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("mailer: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.MailQueueName, true, false, false, false, nil); err != nil {
		log.Printf("mailer: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		log.Printf("mailer: marshal message failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", queue.MailQueueName, false, false, pub); err != nil {
		log.Printf("mailer: publish failed: %v", err)
		return err
	}
	return nil
}
