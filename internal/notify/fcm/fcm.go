// Package fcm delivers Herald notifications through the Firebase Cloud
// Messaging v1 API using a service-account token source.
package fcm

import (
	"context"
	"os"

	"github.com/juju/errors"
	"golang.org/x/oauth2/google"
	fcm "google.golang.org/api/fcm/v1"
	"google.golang.org/api/option"

	"github.com/pearcec/herald/internal/notify"
)

const messagingScope = "https://www.googleapis.com/auth/firebase.messaging"

// Client sends messages for a single Firebase project.
type Client struct {
	svc    *fcm.Service
	parent string
}

// New builds an FCM client for the project. With an empty credentials path
// it falls back to application default credentials.
func New(ctx context.Context, projectID, credentialsFile string) (*Client, error) {
	creds, err := loadCredentials(ctx, credentialsFile)
	if err != nil {
		return nil, errors.Annotate(err, "loading FCM credentials")
	}
	svc, err := fcm.NewService(ctx, option.WithTokenSource(creds.TokenSource))
	if err != nil {
		return nil, errors.Annotate(err, "creating FCM service")
	}
	return &Client{svc: svc, parent: "projects/" + projectID}, nil
}

func loadCredentials(ctx context.Context, path string) (*google.Credentials, error) {
	if path == "" {
		return google.FindDefaultCredentials(ctx, messagingScope)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return google.CredentialsFromJSON(ctx, data, messagingScope)
}

// SendToTopic broadcasts msg to every subscriber of the topic.
func (c *Client) SendToTopic(ctx context.Context, topic string, msg notify.Message) (string, error) {
	return c.send(ctx, &fcm.Message{Topic: topic}, msg)
}

// SendToToken delivers msg to one device registration token.
func (c *Client) SendToToken(ctx context.Context, token string, msg notify.Message) (string, error) {
	return c.send(ctx, &fcm.Message{Token: token}, msg)
}

func (c *Client) send(ctx context.Context, m *fcm.Message, msg notify.Message) (string, error) {
	m.Notification = &fcm.Notification{
		Title: msg.Title,
		Body:  msg.Body,
	}
	m.Data = msg.Data

	sent, err := c.svc.Projects.Messages.Send(c.parent, &fcm.SendMessageRequest{Message: m}).Context(ctx).Do()
	if err != nil {
		return "", errors.Annotate(err, "fcm send")
	}
	return sent.Name, nil
}
