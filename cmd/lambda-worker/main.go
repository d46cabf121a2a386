package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"fraud-digest-backend/internal/bootstrap"
	"fraud-digest-backend/internal/shared/config"
	"fraud-digest-backend/internal/shared/telemetry"
	"fraud-digest-backend/internal/workerproc"
)

var (
	initOnce sync.Once
	initErr  error
	proc     workerproc.Processor
)

func initApp() {
	cfg := config.Load()
	built, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	proc = built.Pipeline
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": initErr.Error()})
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}
	return handleBatch(ctx, proc, event), nil
}

// handleBatch reports every record that must be redelivered. Parse failures are acknowledged.
func handleBatch(ctx context.Context, p workerproc.Processor, event events.SQSEvent) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		err := workerproc.HandleMessage(ctx, p, record.Body)
		if workerproc.ShouldAck(err) {
			continue
		}
		telemetry.Error("lambda.job.left_for_redelivery", map[string]any{
			"sqs_message_id": record.MessageId,
			"error":          err.Error(),
		})
		failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func main() {
	lambda.Start(handler)
}
