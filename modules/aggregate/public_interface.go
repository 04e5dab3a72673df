package aggregate

import "github.com/chebyrash/promise"

type Plugin interface {
	// Runs initialization in the order plugins are passed to `Aggregate`
	Init() error
	// Runs startup and should be non blocking
	Start() *promise.Promise[any]
	// Runs cleanup once the `Aggregate` is finished, in reverse order
	Stop() error
}
