package service

import (
	"context"
	"log"
	"time"

	"github.com/adimehta/sharesphere/internal/model"
	"github.com/adimehta/sharesphere/internal/queue"
)

// NotificationStore persists the durable copy of each notification.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
}

// QueueNotifier is the production Notifier: it writes the notification
// row and then publishes the event to the broker. Both steps are
// best-effort: failures are logged and swallowed, because notification
// delivery must never abort or roll back the economic transition that
// triggered it. Set Publish to nil to disable broker delivery (tests,
// broker-less deployments).
type QueueNotifier struct {
	Store   NotificationStore
	Publish func(ctx context.Context, ev queue.NotificationEvent) error
}

func NewQueueNotifier(store NotificationStore) *QueueNotifier {
	return &QueueNotifier{Store: store, Publish: queue.PublishNotification}
}

func (n *QueueNotifier) Notify(ctx context.Context, userID uint64, category, title, message string, relatedID uint64) {
	row := model.Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Category:  category,
		RelatedID: relatedID,
	}
	if err := n.Store.CreateNotification(ctx, &row); err != nil {
		log.Printf("notifier: store notification for user %d failed: %v", userID, err)
	}
	if n.Publish == nil {
		return
	}
	ev := queue.NotificationEvent{
		UserID:    userID,
		Category:  category,
		Title:     title,
		Message:   message,
		RelatedID: relatedID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	// The publisher logs its own failures.
	_ = n.Publish(ctx, ev)
}
