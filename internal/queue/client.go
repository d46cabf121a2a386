package queue

import "context"

// Client publishes job messages. Delivery is at-least-once; consumers dedup by URL.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
