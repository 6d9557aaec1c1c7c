package runner

import "time"

// PartitionID identifies one partition of one topic.
type PartitionID struct {
	Topic     string
	Partition int32
}

// Record is one immutable message delivered by a poll. DecodedKey and
// DecodedValue are populated by the configured deserializer factories
// before the record reaches a Processor.
type Record struct {
	Topic        string
	Partition    int32
	Offset       int64
	Key          []byte
	Value        []byte
	DecodedKey   any
	DecodedValue any
	Timestamp    time.Time
	Headers      map[string][]byte
}

// PartitionOf returns the PartitionID this record belongs to.
func (r Record) PartitionOf() PartitionID {
	return PartitionID{Topic: r.Topic, Partition: r.Partition}
}

// PollBatch is the result of a single poll, consumed exactly once by the
// Batch Dispatcher.
type PollBatch struct {
	Records    []Record
	Partitions map[PartitionID]struct{}
}

// Strategy selects how a PollBatch is split into ProcessUnits.
type Strategy int

const (
	// OnePerPartition produces one ProcessUnit per partition present in
	// the batch, each restricted to that partition's records in offset
	// order. This is the default.
	OnePerPartition Strategy = iota
	// All produces exactly one ProcessUnit containing the whole batch.
	All
)

// ProcessUnit is the smallest indivisible quantum handed to a Processor:
// either all records of one partition in a batch (OnePerPartition) or
// the entire batch (All).
type ProcessUnit struct {
	Index            int
	CurrentPartition PartitionID
	AllPartitions    []PartitionID
	Records          []Record
}

// ProcessResult is returned by a Processor on success. ID is opaque to
// the core and is not interpreted; the Runner does not log it and does
// not pass it to any hook (onPostCommit receives only a unit count).
type ProcessResult struct {
	ID      string
	Records []Record
}

// AutoOffsetReset controls where a new consumer group starts reading
// from. Latest is the zero value, matching most broker clients'
// default behavior.
type AutoOffsetReset int

const (
	Latest AutoOffsetReset = iota
	Earliest
	None
)

// OnUnknownHandlerFailure controls how a Processor error that is
// neither a NeedForPauseError nor a FatalError is treated. PauseDefault
// is the zero value and matches the source behavior this design
// generalizes (see design note in SPEC_FULL.md §9).
type OnUnknownHandlerFailure int

const (
	PauseDefault OnUnknownHandlerFailure = iota
	FailFatal
)
