package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSender struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSender) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestSQSClientSendEncodesBody(t *testing.T) {
	sender := &fakeSender{}
	client := &SQSClient{client: sender, queueURL: "https://sqs.example/queue"}

	if err := client.Send(context.Background(), Message{URL: "http://x", Email: "a@b.com"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if aws.ToString(sender.input.QueueUrl) != "https://sqs.example/queue" {
		t.Fatalf("unexpected queue url %q", aws.ToString(sender.input.QueueUrl))
	}
	if aws.ToString(sender.input.MessageBody) != `{"url":"http://x","email":"a@b.com"}` {
		t.Fatalf("unexpected body %q", aws.ToString(sender.input.MessageBody))
	}
}

func TestSQSClientSendWrapsError(t *testing.T) {
	boom := errors.New("throttled")
	client := &SQSClient{client: &fakeSender{err: boom}, queueURL: "q"}
	if err := client.Send(context.Background(), Message{URL: "u", Email: "e"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestNewSQSClientRequiresQueueURL(t *testing.T) {
	if _, err := NewSQSClient(context.Background(), "us-east-1", " "); err == nil {
		t.Fatalf("expected error for empty queue url")
	}
}
