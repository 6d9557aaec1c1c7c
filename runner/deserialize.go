package runner

import (
	"encoding/json"
	"fmt"
)

// DeserializerFactory converts a raw wire value into a decoded form.
// Config requires both a key and a value factory; deserialize failures
// are treated as Fatal since schema evolution is out of scope and a
// malformed payload is not retriable.
type DeserializerFactory func([]byte) (any, error)

// RawBytesDeserializer returns the bytes unchanged. Useful when the
// Processor wants to do its own decoding.
func RawBytesDeserializer() DeserializerFactory {
	return func(b []byte) (any, error) { return b, nil }
}

// JSONDeserializer builds a factory that unmarshals into a fresh T.
// An empty payload decodes to the zero value of T.
func JSONDeserializer[T any]() DeserializerFactory {
	return func(b []byte) (any, error) {
		var v T
		if len(b) == 0 {
			return v, nil
		}
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("json deserialize: %w", err)
		}
		return v, nil
	}
}
