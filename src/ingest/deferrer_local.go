package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wochenmarkt/ingestor/src/utils/config"
	"github.com/wochenmarkt/ingestor/src/utils/task"
)

var ErrStopping = errors.New("deferrer is stopping")

// In-process timers. Checks armed here are lost when the process exits.
type LocalDeferrer struct {
	*task.Task

	handler CheckHandler

	mtx    sync.Mutex
	timers map[*time.Timer]struct{}
}

func NewLocalDeferrer(config *config.Config) (self *LocalDeferrer) {
	self = new(LocalDeferrer)
	self.timers = make(map[*time.Timer]struct{})

	self.Task = task.NewTask(config, "local-deferrer").
		WithWorkerPool(config.Ingest.NumWorkers, 10*config.Ingest.NumWorkers).
		WithIdleSubtask().
		WithOnStop(self.stopTimers)

	return
}

func (self *LocalDeferrer) WithHandler(handler CheckHandler) *LocalDeferrer {
	self.handler = handler
	return self
}

func (self *LocalDeferrer) Defer(ctx context.Context, check *DeferredCheck, delay time.Duration) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if self.IsStopping.Load() {
		return ErrStopping
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		self.mtx.Lock()
		delete(self.timers, timer)
		self.mtx.Unlock()

		self.SubmitToWorker(func() {
			err := self.handler(self.Ctx, check)
			if err != nil {
				self.Log.WithError(err).WithField("sender", check.Sender).Warn("Deferred check failed")
			}
		})
	})
	self.timers[timer] = struct{}{}

	return nil
}

func (self *LocalDeferrer) stopTimers() {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	for timer := range self.timers {
		timer.Stop()
	}
	self.Log.WithField("num", len(self.timers)).Debug("Dropped pending deferred checks")
	self.timers = make(map[*time.Timer]struct{})
}
