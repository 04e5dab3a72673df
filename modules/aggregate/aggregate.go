package aggregate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chebyrash/promise"
)

type Aggregate struct {
	ctx     context.Context
	cancel  context.CancelFunc
	plugins []Plugin
	log     *slog.Logger

	initialized int
}

var _ Plugin = &Aggregate{}

func New(plugins []Plugin, logger ...*slog.Logger) *Aggregate {
	ctx, cancel := context.WithCancel(context.Background())
	log := slog.Default()
	if len(logger) > 0 && logger[0] != nil {
		log = logger[0]
	}
	return &Aggregate{
		ctx:     ctx,
		cancel:  cancel,
		plugins: plugins,
		log:     log.With("service", "aggregate"),
	}
}

// Runs the full lifecycle: init, start (awaited) and stop.
func (a *Aggregate) Run() error {
	if err := a.Init(); err != nil {
		return err
	}

	if _, err := a.Start().Await(a.ctx); err != nil {
		a.Stop()
		return err
	}

	return a.Stop()
}

// Init implements Plugin.
func (a *Aggregate) Init() error {
	for i, p := range a.plugins {
		if err := p.Init(); err != nil {
			a.log.Error("plugin init failed", "index", i, "plugin", fmt.Sprintf("%T", p), "err", err)
			return err
		}
		a.initialized = i + 1
	}
	a.log.Debug("plugins initialized", "count", a.initialized)
	return nil
}

// Start implements Plugin.
func (a *Aggregate) Start() *promise.Promise[any] {
	promises := make([]*promise.Promise[any], len(a.plugins))
	for i, p := range a.plugins {
		promises[i] = p.Start()
	}
	return promise.Then(
		promise.All(a.ctx, promises...),
		a.ctx,
		func([]any) (any, error) {
			return nil, nil
		},
	)
}

// Stop implements Plugin.
//
// Only plugins that were initialized are stopped. The first error is
// returned but every plugin still gets its Stop call.
func (a *Aggregate) Stop() error {
	defer a.cancel()
	var first error
	for i := a.initialized - 1; i >= 0; i-- {
		if err := a.plugins[i].Stop(); err != nil {
			a.log.Error("plugin stop failed", "plugin", fmt.Sprintf("%T", a.plugins[i]), "err", err)
			if first == nil {
				first = err
			}
		}
	}
	a.initialized = 0
	return first
}
