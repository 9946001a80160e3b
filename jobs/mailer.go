package jobs

import "context"

// QueueMailer satisfies the Mailer dependency of the auth and comms services
// by enqueueing a background task instead of sending inline.
type QueueMailer struct {
	client *Client
}

// NewQueueMailer constructs a QueueMailer.
func NewQueueMailer(client *Client) *QueueMailer {
	return &QueueMailer{client: client}
}

// SendEmail enqueues a send-email task.
func (m *QueueMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	_, err := m.client.EnqueueSendEmail(ctx, SendEmailPayload{To: to, Subject: subject, Body: body})
	return err
}
