package outbox

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Event is one durable notification row awaiting delivery. Topic selects the
// destination queue; rows drain in id order so per-producer ordering holds.
type Event struct {
	ID            int64
	AggregateType string
	AggregateID   string
	Topic         string
	Type          string
	Payload       []byte
	Traceparent   string
	CreatedAt     time.Time
	Status        Status
	RelayID       string
	RetryCount    int
	LastError     *string
}
