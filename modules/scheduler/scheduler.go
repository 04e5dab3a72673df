package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"staking-timetravel/lib/logger"
	a "staking-timetravel/modules/aggregate"
	"staking-timetravel/modules/config"

	"github.com/chebyrash/promise"
	"github.com/robfig/cron/v3"
)

// Job is one analysis pass. It should return once ctx is cancelled.
type Job func(ctx context.Context) error

// Scheduler runs a job on a cron schedule. Runs never overlap: a tick that
// fires while the previous run is still going is skipped.
type Scheduler struct {
	conf *config.Config[SchedulerConfig]
	job  Job
	cron *cron.Cron
	log  *slog.Logger

	stop    chan struct{}
	running sync.Mutex
	wg      sync.WaitGroup

	mtx  sync.Mutex
	runs int
}

var _ a.Plugin = &Scheduler{}

func New(conf *config.Config[SchedulerConfig], job Job, log ...*slog.Logger) *Scheduler {
	var l *slog.Logger
	if len(log) > 0 {
		l = log[0]
	}
	return &Scheduler{
		conf: conf,
		job:  job,
		cron: cron.New(),
		log:  logger.Service(l, "scheduler"),
		stop: make(chan struct{}),
	}
}

// Init implements aggregate.Plugin.
func (s *Scheduler) Init() error {
	if _, err := cron.ParseStandard(s.conf.Get().Schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.conf.Get().Schedule, err)
	}
	return nil
}

// Runs is the number of completed job runs, failed ones included.
func (s *Scheduler) Runs() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.runs
}

func (s *Scheduler) task(ctx context.Context) {
	if !s.running.TryLock() {
		s.log.Warn("previous run still in progress, skipping")
		return
	}
	defer s.running.Unlock()

	start := time.Now()
	err := s.job(ctx)
	if err != nil {
		s.log.Error("scheduled run failed", "err", err, "took", time.Since(start))
	} else {
		s.log.Info("scheduled run finished", "took", time.Since(start))
	}

	s.mtx.Lock()
	s.runs++
	s.mtx.Unlock()
}

func (s *Scheduler) spawn(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.task(ctx)
	}()
}

// Start implements aggregate.Plugin.
func (s *Scheduler) Start() *promise.Promise[any] {
	return promise.New(func(resolve func(any), reject func(error)) {
		conf := s.conf.Get()

		// ctx is cancelled when the stop chan is closed
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-s.stop
			cancel()
		}()

		if conf.RunImmediately {
			s.spawn(ctx)
		}

		_, err := s.cron.AddFunc(conf.Schedule, func() {
			select {
			case <-s.stop:
				return
			default:
				s.spawn(ctx)
			}
		})
		if err != nil {
			reject(err)
			return
		}
		s.cron.Start()
		s.log.Info("scheduled", "schedule", conf.Schedule)
		resolve(nil)
	})
}

// Stop implements aggregate.Plugin. It waits for an in-flight run to
// return.
func (s *Scheduler) Stop() error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.cron.Stop().Done()
	s.wg.Wait()
	return nil
}
