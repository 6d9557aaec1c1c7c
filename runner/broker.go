package runner

import (
	"context"
	"time"
)

// BrokerClient is the contract the Runner consumes from the broker
// (§6 of SPEC_FULL.md). Implementations are not required to be
// thread-safe across goroutines; the Runner confines every call to its
// single driver goroutine.
type BrokerClient interface {
	// Subscribe declares the set of topics to consume. Called once,
	// before the first Poll.
	Subscribe(topics []string) error

	// Poll blocks for up to timeout waiting for records. A timeout of
	// zero performs a non-blocking "heartbeat" poll that keeps the
	// broker session alive without surfacing records (used during a
	// paused poll).
	Poll(ctx context.Context, timeout time.Duration) (PollBatch, error)

	// CommitOffsets commits the given next-offsets map. Returns a
	// *CommitTimeoutError when the broker's commit call times out.
	CommitOffsets(ctx context.Context, offsets map[PartitionID]int64) error

	// PauseFetchPartitions and ResumeFetchPartitions toggle fetch
	// delivery for the given topic->partitions map without dropping
	// the broker session.
	PauseFetchPartitions(partitions map[string][]int32)
	ResumeFetchPartitions(partitions map[string][]int32)

	// Assignment returns the partitions currently assigned to this
	// client.
	Assignment() map[PartitionID]struct{}

	Close() error
}
