// Package notify defines the outbound push-message shape and the transport
// capability Herald dispatches through. The FCM adapter lives in the fcm
// subpackage.
package notify

import "context"

// Message is one outbound push notification. Data values must already be
// plain strings; the transport protocol carries string-valued metadata only.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Notifier delivers messages to a topic's subscribers or to a single device
// token. Both return the transport's message id on success.
type Notifier interface {
	SendToTopic(ctx context.Context, topic string, msg Message) (string, error)
	SendToToken(ctx context.Context, token string, msg Message) (string, error)
}
