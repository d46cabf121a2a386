package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"fraud-digest-backend/internal/bootstrap"
	"fraud-digest-backend/internal/shared/config"
	"fraud-digest-backend/internal/shared/metrics"
	"fraud-digest-backend/internal/shared/telemetry"
	"fraud-digest-backend/internal/workerproc"
)

const (
	receiveBatchSize   = 10
	receiveWaitSeconds = 20
)

func main() {
	cfg := config.Load()
	if cfg.QueueURL == "" {
		telemetry.Error("worker.config_invalid", map[string]any{"error": "FD_SQS_QUEUE_URL is required"})
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildContext(ctx, cfg)
	if err != nil {
		telemetry.Error("worker.bootstrap_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer app.Close(context.Background())

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		telemetry.Error("worker.aws_config_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	var sqsClient sqsAPI = sqs.NewFromConfig(awsCfg)

	run(ctx, sqsClient, cfg, app.Pipeline)
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// run long-polls the queue until ctx is cancelled, then waits up to cfg.ShutdownTimeout for
// in-flight jobs. Jobs still running after that are cancelled and left for redelivery.
func run(ctx context.Context, client sqsAPI, cfg config.Config, proc workerproc.Processor) {
	concurrency := max(1, cfg.WorkerConcurrency)
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	jobCtx, cancelJobs := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelJobs()

	telemetry.Info("worker.started", map[string]any{
		"queue_url":          cfg.QueueURL,
		"concurrency":        concurrency,
		"visibility_seconds": cfg.VisibilitySeconds,
	})

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(cfg.QueueURL),
			MaxNumberOfMessages: receiveBatchSize,
			WaitTimeSeconds:     receiveWaitSeconds,
			VisibilityTimeout:   int32(cfg.VisibilitySeconds),
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			telemetry.Warn("worker.receive_failed", map[string]any{"error": err.Error()})
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				handleMessage(jobCtx, client, cfg.QueueURL, proc, m)
			}(msg)
		}
	}

	telemetry.Info("worker.draining", map[string]any{"timeout": cfg.ShutdownTimeout.String()})
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(cfg.ShutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout", nil)
		cancelJobs()
		<-waitDone
	}
}

// handleMessage processes one delivery and deletes it only when the job is finished.
func handleMessage(ctx context.Context, client sqsAPI, queueURL string, proc workerproc.Processor, msg sqstypes.Message) {
	fields := baseFields(msg)
	err := workerproc.HandleMessage(ctx, proc, aws.ToString(msg.Body))
	if !workerproc.ShouldAck(err) {
		fields["error"] = err.Error()
		telemetry.Error("worker.job.left_for_redelivery", fields)
		return
	}
	if deleteMessage(ctx, client, queueURL, msg) {
		metrics.IncMessagesDeleted()
		telemetry.Info("worker.job.acked", fields)
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.job.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg)
		fields["error"] = err.Error()
		telemetry.Error("worker.job.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message) map[string]any {
	return map[string]any{
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
}

func receiveCount(msg sqstypes.Message) int {
	raw := strings.TrimSpace(msg.Attributes["ApproximateReceiveCount"])
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}
