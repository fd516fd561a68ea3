package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"orthoview/internal/config"
)

// fcmNotifier sends push notifications through Firebase Cloud Messaging.
type fcmNotifier struct {
	client *messaging.Client
}

// NewFCM builds an FCM-backed Notifier from service-account credentials.
// Callers should fall back to Noop when no credentials are configured.
func NewFCM(ctx context.Context, cfg config.FCMConfig) (Notifier, error) {
	if cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("fcm credentials file is required")
	}

	app, err := firebase.NewApp(ctx,
		&firebase.Config{ProjectID: cfg.ProjectID},
		option.WithCredentialsFile(cfg.CredentialsFile),
	)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init fcm client: %w", err)
	}

	return &fcmNotifier{client: client}, nil
}

func (f *fcmNotifier) Dispatch(ctx context.Context, n Notification) error {
	_, err := f.client.Send(ctx, &messaging.Message{
		Topic: n.Topic,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
	})
	if err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}
	return nil
}
