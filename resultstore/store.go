// Package resultstore adapts the pgrepo package into an optional
// persistence sink for ProcessResult values. It is not part
// of the Commit Engine: a write here failing or lagging never affects
// offset commit, since durable consumption state lives on the broker,
// not in this table.
package resultstore

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/zverev/streamrunner/pgrepo"
	"github.com/zverev/streamrunner/protocol"
	"github.com/zverev/streamrunner/runner"
)

// Store persists ProcessResult values produced by a wrapped Processor.
type Store struct {
	db  *pgrepo.DB
	log protocol.Logger
}

// New builds a Store over an already-started pgrepo.DB.
func New(db *pgrepo.DB, log protocol.Logger) *Store {
	if log == nil {
		log = protocol.NopLogger{}
	}
	return &Store{db: db, log: log}
}

// Wrap returns a runner.Processor that calls next and, on success,
// records the result's ID and record count. The wrapped call's outcome
// (OK, NeedForPause, Fatal) is unchanged by persistence; a storage
// error is logged and swallowed so a flaky sink cannot turn into a
// cooperative pause or a fatal stop that the spec never asked for.
func (s *Store) Wrap(next runner.Processor) runner.Processor {
	return func(ctx context.Context, records []runner.Record) (runner.ProcessResult, error) {
		result, err := next(ctx, records)
		if err != nil {
			return result, err
		}

		if err := s.record(ctx, result); err != nil {
			s.log.Warn(ctx, "persist process result", "id", result.ID, "error", err)
		}

		return result, nil
	}
}

func (s *Store) record(ctx context.Context, result runner.ProcessResult) error {
	if s.db == nil || !s.db.IsStarted() {
		return nil
	}

	var firstPartition int32
	var firstOffset, lastOffset int64
	if n := len(result.Records); n > 0 {
		firstPartition = result.Records[0].Partition
		firstOffset = result.Records[0].Offset
		lastOffset = result.Records[n-1].Offset
	}

	const query = `
		INSERT INTO process_results (id, record_count, first_partition, first_offset, last_offset, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`

	_, err := pgrepo.Exec(ctx, s.db.Master(), query,
		result.ID, len(result.Records), firstPartition, firstOffset, lastOffset, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "insert process result")
	}
	return nil
}
