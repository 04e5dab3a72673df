package start_status

import (
	"sync"

	"staking-timetravel/lib/utils"

	"github.com/chebyrash/promise"
)

// Starter is implemented by plugins whose Start returns before they are
// ready to serve.
type Starter interface {
	Started() *promise.Promise[any]
}

// Status is a one shot readiness signal. Only the first Trigger or Fail
// counts.
type Status struct {
	once sync.Once
	done chan struct{}
	err  error

	startPromise *promise.Promise[any]
}

var _ Starter = &Status{}

func New() *Status {
	s := &Status{done: make(chan struct{})}
	s.startPromise = promise.New(func(resolve func(any), reject func(error)) {
		<-s.done
		if s.err != nil {
			reject(s.err)
			return
		}
		resolve(nil)
	})
	return s
}

func (s *Status) Trigger() {
	s.once.Do(func() { close(s.done) })
}

func (s *Status) Fail(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
}

func (s *Status) Started() *promise.Promise[any] {
	select {
	case <-s.done:
		if s.err != nil {
			return utils.PromiseReject[any](s.err)
		}
		return utils.PromiseResolve[any](nil)
	default:
		return s.startPromise
	}
}
