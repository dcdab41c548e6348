package sinks

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSQSSinkDeliverSuccess(t *testing.T) {
	client := &fakeSQSClient{}
	sink := &sqsSink{
		id:       "queue-1",
		typ:      TypeSQS,
		queueURL: "https://sqs.example.com/queue",
		client:   client,
		log:      noopLogger{},
	}

	err := sink.Deliver(context.Background(), Snapshot{DatasetID: "jp9i-3b7y", RowCount: 2})
	if err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://sqs.example.com/queue" {
		t.Fatalf("QueueUrl = %s", got)
	}
	attr, ok := client.input.MessageAttributes["dataset_id"]
	if !ok || attr.StringValue == nil || aws.ToString(attr.StringValue) != "jp9i-3b7y" {
		t.Fatalf("dataset_id attribute missing or wrong: %#v", attr)
	}
	if client.input.MessageBody == nil || !strings.Contains(aws.ToString(client.input.MessageBody), `"dataset_id":"jp9i-3b7y"`) {
		t.Fatalf("MessageBody missing dataset_id: %s", aws.ToString(client.input.MessageBody))
	}
}

func TestSQSSinkDeliverError(t *testing.T) {
	client := &fakeSQSClient{err: errors.New("unreachable")}
	sink := &sqsSink{
		id:       "queue-1",
		typ:      TypeSQS,
		queueURL: "https://sqs.example.com/queue",
		client:   client,
		log:      noopLogger{},
	}

	if err := sink.Deliver(context.Background(), Snapshot{DatasetID: "jp9i-3b7y"}); err == nil {
		t.Fatal("expected delivery error")
	}
}
