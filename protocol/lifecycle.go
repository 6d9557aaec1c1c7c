package protocol

import "context"

// Lifecycle is implemented by anything that can be started and stopped under
// a context deadline. Start and Stop must be idempotent: calling either
// after the corresponding transition already happened is a no-op that
// returns nil.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
