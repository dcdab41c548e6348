package sinks

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSNSSinkDeliverSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	sink := &snsSink{
		id:       "topic-1",
		typ:      TypeSNS,
		topicARN: "arn:aws:sns:::topic",
		client:   client,
		log:      noopLogger{},
	}

	err := sink.Deliver(context.Background(), Snapshot{DatasetID: "erm2-nwe9"})
	if err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:::topic" {
		t.Fatalf("TopicArn = %s", got)
	}
	attr, ok := client.input.MessageAttributes["dataset_id"]
	if !ok || attr.StringValue == nil || aws.ToString(attr.StringValue) != "erm2-nwe9" {
		t.Fatalf("dataset_id attribute missing or wrong: %#v", attr)
	}
	if attr.DataType == nil || aws.ToString(attr.DataType) != "String" {
		t.Fatalf("DataType should be String, got %#v", attr.DataType)
	}
	if client.input.Message == nil || !strings.Contains(aws.ToString(client.input.Message), `"dataset_id":"erm2-nwe9"`) {
		t.Fatalf("Message missing dataset_id: %s", aws.ToString(client.input.Message))
	}
}

func TestSNSSinkDeliverError(t *testing.T) {
	client := &fakeSNSClient{err: errors.New("denied")}
	sink := &snsSink{
		id:       "topic-1",
		typ:      TypeSNS,
		topicARN: "arn:aws:sns:::topic",
		client:   client,
		log:      noopLogger{},
	}

	if err := sink.Deliver(context.Background(), Snapshot{DatasetID: "erm2-nwe9"}); err == nil {
		t.Fatal("expected delivery error")
	}
}
