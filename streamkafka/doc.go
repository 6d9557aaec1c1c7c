// Package streamkafka is the runner.BrokerClient implementation backed
// by a real Kafka (or Kafka-protocol-compatible) broker, via
// github.com/twmb/franz-go. See Client.
package streamkafka
