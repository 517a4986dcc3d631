package idempotency

import "time"

// Status values for ledger entries
const (
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusFailed     = "FAILED"
)

// DeliveryRecord is the shape persisted in the idempotency DynamoDB table.
// One entry per delivered message id.
type DeliveryRecord struct {
	MessageID string    `dynamodbav:"message_id"` // PK
	Status    string    `dynamodbav:"status"`
	RecordID  string    `dynamodbav:"record_id,omitempty"` // uuid of the order record
	CreatedAt time.Time `dynamodbav:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
	ExpiresAt int64     `dynamodbav:"expires_at"`  // TTL epoch seconds
	LeaseEnd  int64     `dynamodbav:"lease_until"` // epoch seconds; an IN_PROGRESS claim past this is abandoned
	Note      string    `dynamodbav:"note,omitempty"`
}
