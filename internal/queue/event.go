// Package queue defines message payloads exchanged over the message broker.
package queue

// Mail kinds understood by the outbound-mail consumer.
const (
	MailVerifyEmail   = "verify_email"
	MailPasswordReset = "password_reset"
)

// MailQueueName is the durable queue outbound mail flows through.
const MailQueueName = "mail.outbound"

// MailMessage is published whenever the auth flows need an email delivered
// out of band. It carries everything a delivery worker needs without
// querying the primary database. The action link embeds the raw token; the
// message broker is the only place outside the client where a raw
// ephemeral token travels.
type MailMessage struct {
	ID          string `json:"id"`      // correlation id
	Kind        string `json:"kind"`    // MailVerifyEmail or MailPasswordReset
	To          string `json:"to"`      // recipient address
	Link        string `json:"link"`    // action URL containing the raw token
	RequestedAt string `json:"requested_at"`
}
