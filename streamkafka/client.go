// Package streamkafka adapts a github.com/twmb/franz-go client to the
// runner.BrokerClient contract, translating poll/commit/pause calls
// into their kgo equivalents.
package streamkafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/zverev/streamrunner/protocol"
	"github.com/zverev/streamrunner/runner"
)

// Client wraps a *kgo.Client as a runner.BrokerClient. Every method is
// called from the Runner's single driver goroutine, matching the
// confinement kgo.Client itself expects for Poll/Commit sequencing.
type Client struct {
	client  *kgo.Client
	log     protocol.Logger
	groupID string

	mu         sync.Mutex
	assignment map[runner.PartitionID]struct{}
}

// New builds a Client and its underlying kgo.Client from the given
// bootstrap servers, consumer group, and offset reset policy. Topics
// are not subscribed here; Subscribe (called by the Runner on Start)
// adds them to the built client via AddConsumeTopics, so one Client can be reused
// across Configure calls before the first Start.
func New(brokers []string, groupID string, reset runner.AutoOffsetReset, log protocol.Logger, extra ...kgo.Opt) (*Client, error) {
	if log == nil {
		log = protocol.NopLogger{}
	}

	out := &Client{log: log, groupID: groupID, assignment: make(map[runner.PartitionID]struct{})}

	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(groupID),
	}

	switch reset {
	case runner.Earliest:
		opts = append(opts, kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()))
	case runner.Latest:
		opts = append(opts, kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()))
	case runner.None:
		// no reset-offset option is added, so the kgo client's own
		// default reset policy applies; this adapter adds no
		// fail-on-missing-offset behavior of its own.
	}

	opts = append(opts,
		kgo.OnPartitionsAssigned(func(ctx context.Context, _ *kgo.Client, assigned map[string][]int32) {
			out.trackAssignment(assigned, true)
			log.Info(ctx, "partitions assigned", "assigned", assigned, "group_id", groupID)
		}),
		kgo.OnPartitionsRevoked(func(ctx context.Context, _ *kgo.Client, revoked map[string][]int32) {
			out.trackAssignment(revoked, false)
			log.Info(ctx, "partitions revoked", "revoked", revoked, "group_id", groupID)
		}),
		kgo.OnPartitionsLost(func(ctx context.Context, _ *kgo.Client, lost map[string][]int32) {
			out.trackAssignment(lost, false)
			log.Warn(ctx, "partitions lost", "lost", lost, "group_id", groupID)
		}),
	)

	opts = append(opts, extra...)

	c, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	out.client = c

	return out, nil
}

func (c *Client) trackAssignment(topicPartitions map[string][]int32, present bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for topic, partitions := range topicPartitions {
		for _, p := range partitions {
			pid := runner.PartitionID{Topic: topic, Partition: p}
			if present {
				c.assignment[pid] = struct{}{}
			} else {
				delete(c.assignment, pid)
			}
		}
	}
}

// Subscribe adds the given topic set to the client via AddConsumeTopics.
func (c *Client) Subscribe(topics []string) error {
	c.client.AddConsumeTopics(topics...)
	return nil
}

// Poll blocks up to timeout for the next fetch. A zero timeout still
// performs one non-blocking PollFetches call: kgo treats a context that
// is already past its deadline the same way, so we build a short-lived
// context bound to timeout (or a 1ms one when timeout is zero, used
// for the Runner's paused-poll heartbeat).
func (c *Client) Poll(ctx context.Context, timeout time.Duration) (runner.PollBatch, error) {
	pollCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		pollCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		pollCtx, cancel = context.WithTimeout(ctx, time.Millisecond)
	}
	defer cancel()

	fetches := c.client.PollFetches(pollCtx)
	if fetches.IsClientClosed() {
		return runner.PollBatch{}, errors.New("kafka client is closed")
	}

	var batch runner.PollBatch
	batch.Partitions = make(map[runner.PartitionID]struct{})

	if errs := fetches.Errors(); len(errs) > 0 {
		for _, fe := range errs {
			if errors.Is(fe.Err, context.DeadlineExceeded) || errors.Is(fe.Err, context.Canceled) {
				continue
			}
			c.log.Error(ctx, "fetch error", "topic", fe.Topic, "partition", fe.Partition, "err", fe.Err)
		}
	}

	fetches.EachPartition(func(p kgo.FetchTopicPartition) {
		pid := runner.PartitionID{Topic: p.Topic, Partition: p.Partition}
		batch.Partitions[pid] = struct{}{}

		for _, rec := range p.Records {
			headers := make(map[string][]byte, len(rec.Headers))
			for _, h := range rec.Headers {
				headers[h.Key] = h.Value
			}
			batch.Records = append(batch.Records, runner.Record{
				Topic:     rec.Topic,
				Partition: rec.Partition,
				Offset:    rec.Offset,
				Key:       rec.Key,
				Value:     rec.Value,
				Timestamp: rec.Timestamp,
				Headers:   headers,
			})
		}
	})

	return batch, nil
}

// CommitOffsets commits the given next-offsets map by constructing one
// synthetic *kgo.Record per partition at offset-1 and handing it to
// CommitRecords, the same pattern the pack's franz-go adapters use for
// explicit offset commit.
func (c *Client) CommitOffsets(ctx context.Context, offsets map[runner.PartitionID]int64) error {
	records := make([]*kgo.Record, 0, len(offsets))
	for pid, next := range offsets {
		records = append(records, &kgo.Record{
			Topic:     pid.Topic,
			Partition: pid.Partition,
			Offset:    next - 1,
		})
	}

	err := c.client.CommitRecords(ctx, records...)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &runner.CommitTimeoutError{Cause: err}
	}
	if kerr.IsRetriable(err) {
		return &runner.CommitTimeoutError{Cause: err}
	}
	return fmt.Errorf("commit offsets: %w", err)
}

func (c *Client) PauseFetchPartitions(partitions map[string][]int32) {
	c.client.PauseFetchPartitions(partitions)
}

func (c *Client) ResumeFetchPartitions(partitions map[string][]int32) {
	c.client.ResumeFetchPartitions(partitions)
}

func (c *Client) Assignment() map[runner.PartitionID]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[runner.PartitionID]struct{}, len(c.assignment))
	for pid := range c.assignment {
		out[pid] = struct{}{}
	}
	return out
}

// Close leaves the consumer group and releases the client's
// connections.
func (c *Client) Close() error {
	c.client.LeaveGroup()
	c.client.Close()
	return nil
}
