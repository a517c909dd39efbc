// Package queue defines the message payloads exchanged over the broker
// and the background consumer that drains them.
package queue

// NotificationEvent is published for every lifecycle notification the
// core emits (request, approval, delivery, penalty, ban, ...). It carries
// enough for downstream consumers to log or relay without querying the
// primary database.
type NotificationEvent struct {
	UserID    uint64 `json:"user_id"`
	Category  string `json:"category"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	RelatedID uint64 `json:"related_id,omitempty"`
	CreatedAt string `json:"created_at"`
}
