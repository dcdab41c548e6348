package sinks

import (
	"context"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
)

func TestPubSubSinkDelivers(t *testing.T) {
	// Use the in-memory Pub/Sub emulator.
	server := pstest.NewServer()
	defer server.Close()
	t.Setenv("PUBSUB_EMULATOR_HOST", server.Addr)

	ctx := context.Background()
	client, err := pubsub.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	if _, err := client.CreateTopic(ctx, "snapshots"); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	sink, err := newPubSubSink(ctx, SinkConfig{
		ID:   "gcp-1",
		Type: TypePubSub,
		PubSub: &PubSubSinkConfig{
			ProjectID: "test-project",
			Topic:     "snapshots",
		},
	}, nil)
	if err != nil {
		t.Fatalf("newPubSubSink: %v", err)
	}

	err = sink.Deliver(ctx, Snapshot{DatasetID: "jp9i-3b7y", RowCount: 1})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	msgs := server.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(msgs))
	}
	if got := msgs[0].Attributes["dataset_id"]; got != "jp9i-3b7y" {
		t.Fatalf("dataset_id attribute = %q", got)
	}
}
