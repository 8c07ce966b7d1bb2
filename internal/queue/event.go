// Package queue carries content-change events over RabbitMQ: the API
// publishes them after each write and the audit consumer records them.
package queue

import "time"

// ContentQueueName is the durable queue both sides declare.
const ContentQueueName = "content.changed"

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ContentChangedEvent describes one successful write to a CV resource.
type ContentChangedEvent struct {
	Resource   string `json:"resource"` // posts | education | experience
	Action     string `json:"action"`
	DocumentID string `json:"document_id"`
	Actor      string `json:"actor"`
	OccurredAt string `json:"occurred_at"`
}

// NewContentChangedEvent stamps the event with the current UTC time.
func NewContentChangedEvent(resource, action, id, actor string) ContentChangedEvent {
	return ContentChangedEvent{
		Resource:   resource,
		Action:     action,
		DocumentID: id,
		Actor:      actor,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
