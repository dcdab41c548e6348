package sinks

import "context"

// Sink delivers dataset snapshots to a downstream destination (SQS, SNS,
// Pub/Sub, HTTP, etc).
type Sink interface {
	ID() string
	Type() string
	Deliver(ctx context.Context, snap Snapshot) error
}
