package runner

import (
	"strings"
	"time"
)

// Config holds the Runner's tunables. Required fields (BootstrapServers,
// GroupID, Topics, KeyDeserializer, ValueDeserializer) are checked by
// Validate; everything else has a sensible zero value or is filled in
// by DefaultConfig.
type Config struct {
	Name             string
	BootstrapServers []string
	GroupID          string
	Topics           []string

	AutoOffsetReset AutoOffsetReset
	Strategy        Strategy

	PollTimeout       time.Duration
	DelaySingleRecord time.Duration
	DelayRecords      time.Duration

	PauseBase time.Duration
	PauseMax  time.Duration

	CommitAttempts int
	ForceExit      bool

	OnUnknownHandlerFailure OnUnknownHandlerFailure
	ParallelUnits           bool

	KeyDeserializer   DeserializerFactory
	ValueDeserializer DeserializerFactory
}

// DefaultConfig returns a Config with every tunable at its spec default
// (strategy OnePerPartition, pollTimeout 1s, pauseBase 1s, pauseMax 2m,
// commitAttempts 3, forceExit true). Required fields are left empty.
// Start from this and override what you need; Configure/WithConfig only
// fills zero-valued durations and counts, it never flips a boolean or
// an explicitly-zero enum back to a "default" because Go has no way to
// tell an intentional zero from an unset one.
func DefaultConfig() Config {
	return Config{
		Strategy:       OnePerPartition,
		PollTimeout:    time.Second,
		PauseBase:      time.Second,
		PauseMax:       2 * time.Minute,
		CommitAttempts: 3,
		ForceExit:      true,
	}
}

// Validate checks that every required field is present and non-empty.
func (c Config) Validate() error {
	var missing []string
	if len(c.BootstrapServers) == 0 {
		missing = append(missing, "bootstrapServers")
	}
	if c.GroupID == "" {
		missing = append(missing, "groupId")
	}
	if len(c.Topics) == 0 {
		missing = append(missing, "topics")
	}
	if c.KeyDeserializer == nil {
		missing = append(missing, "keyDeserializer")
	}
	if c.ValueDeserializer == nil {
		missing = append(missing, "valueDeserializer")
	}
	if len(missing) > 0 {
		return &InvalidConfigError{Msg: "missing required config: " + strings.Join(missing, ", ")}
	}
	return nil
}

// withZeroValueDefaults fills only the numeric/duration fields whose
// zero value can never be an intentional setting (a zero commitAttempts
// or a zero pollTimeout would make the Runner unable to make progress).
func (c Config) withZeroValueDefaults() Config {
	if c.PollTimeout <= 0 {
		c.PollTimeout = time.Second
	}
	if c.PauseBase <= 0 {
		c.PauseBase = time.Second
	}
	if c.PauseMax <= 0 {
		c.PauseMax = 2 * time.Minute
	}
	if c.CommitAttempts <= 0 {
		c.CommitAttempts = 3
	}
	return c
}
