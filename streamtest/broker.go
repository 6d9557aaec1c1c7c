// Package streamtest provides an in-memory BrokerClient double used to
// drive the runner package's tests without a live broker, following
// this codebase's preference for hand-rolled fakes over generated
// mocks for test doubles that need real behavior, not just call
// recording.
package streamtest

import (
	"context"
	"sync"
	"time"

	"github.com/zverev/streamrunner/runner"
)

// FakeBroker is a single-goroutine-safe BrokerClient double. Records
// are seeded with Publish and appended to a per-partition log; Poll
// returns, for every non-paused partition, the records from that
// partition's committed offset forward — so an uncommitted record is
// handed to the Runner again on the next poll, the same way a real
// broker redelivers after a pause/resume or rebalance. CommitOffsets
// records every commit it has seen and can be configured to fail or
// time out a fixed number of times.
type FakeBroker struct {
	mu sync.Mutex

	topics     []string
	partitions map[runner.PartitionID]struct{}
	log        map[runner.PartitionID][]runner.Record
	committed  map[runner.PartitionID]int64

	closed    bool
	pollCalls int

	commits      []map[runner.PartitionID]int64
	failNext     int
	failWithErr  error
	pausedTopics map[string]map[int32]bool
}

// New builds an empty FakeBroker.
func New() *FakeBroker {
	return &FakeBroker{
		partitions:   make(map[runner.PartitionID]struct{}),
		log:          make(map[runner.PartitionID][]runner.Record),
		committed:    make(map[runner.PartitionID]int64),
		pausedTopics: make(map[string]map[int32]bool),
	}
}

// Publish appends records to the broker's per-partition log and
// registers their partitions in the assignment, as if they had arrived
// from the wire. Offsets are assigned sequentially per partition if the
// caller leaves them at zero.
func (f *FakeBroker) Publish(records ...runner.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range records {
		pid := r.PartitionOf()
		if r.Offset == 0 {
			r.Offset = int64(len(f.log[pid]))
		}
		f.log[pid] = append(f.log[pid], r)
		f.partitions[pid] = struct{}{}
	}
}

// FailNextCommits arranges for the next n calls to CommitOffsets to
// return err instead of succeeding.
func (f *FakeBroker) FailNextCommits(n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = n
	f.failWithErr = err
}

func (f *FakeBroker) Subscribe(topics []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = topics
	return nil
}

// Poll returns, for each assigned and non-paused partition, every
// record from that partition's last committed offset forward. timeout
// is accepted but ignored: the fake never blocks.
func (f *FakeBroker) Poll(ctx context.Context, timeout time.Duration) (runner.PollBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pollCalls++
	batch := runner.PollBatch{Partitions: copyPartitions(f.partitions)}

	for pid := range f.partitions {
		if f.pausedTopics[pid.Topic][pid.Partition] {
			continue
		}
		from := f.committed[pid]
		for _, r := range f.log[pid] {
			if r.Offset >= from {
				batch.Records = append(batch.Records, r)
			}
		}
	}

	return batch, nil
}

func (f *FakeBroker) CommitOffsets(ctx context.Context, offsets map[runner.PartitionID]int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failNext > 0 {
		f.failNext--
		return f.failWithErr
	}

	for pid, next := range offsets {
		if next > f.committed[pid] {
			f.committed[pid] = next
		}
	}

	snapshot := make(map[runner.PartitionID]int64, len(offsets))
	for k, v := range offsets {
		snapshot[k] = v
	}
	f.commits = append(f.commits, snapshot)
	return nil
}

func (f *FakeBroker) PauseFetchPartitions(partitions map[string][]int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for topic, parts := range partitions {
		if f.pausedTopics[topic] == nil {
			f.pausedTopics[topic] = make(map[int32]bool)
		}
		for _, p := range parts {
			f.pausedTopics[topic][p] = true
		}
	}
}

func (f *FakeBroker) ResumeFetchPartitions(partitions map[string][]int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for topic, parts := range partitions {
		for _, p := range parts {
			delete(f.pausedTopics[topic], p)
		}
	}
}

func (f *FakeBroker) Assignment() map[runner.PartitionID]struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyPartitions(f.partitions)
}

func (f *FakeBroker) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (f *FakeBroker) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// PollCalls returns the number of times Poll has been called, so tests
// can assert a stopped driver does not keep polling a closed broker.
func (f *FakeBroker) PollCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pollCalls
}

// Commits returns every offsets map CommitOffsets has successfully
// accepted, in call order.
func (f *FakeBroker) Commits() []map[runner.PartitionID]int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[runner.PartitionID]int64, len(f.commits))
	copy(out, f.commits)
	return out
}

func copyPartitions(set map[runner.PartitionID]struct{}) map[runner.PartitionID]struct{} {
	out := make(map[runner.PartitionID]struct{}, len(set))
	for k := range set {
		out[k] = struct{}{}
	}
	return out
}
