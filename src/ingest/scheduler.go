package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/wochenmarkt/ingestor/src/utils/config"
	"github.com/wochenmarkt/ingestor/src/utils/model"
	"github.com/wochenmarkt/ingestor/src/utils/monitoring"
	"github.com/wochenmarkt/ingestor/src/utils/task"

	"go.uber.org/atomic"
)

// Result of one sweep
type Summary struct {
	Processed int       `json:"processed"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}

// Decides when pending submissions are complete and hands them to the processor.
// A submission is ready once it wasn't updated for the quiet period.
type Scheduler struct {
	*task.Task

	store     *Store
	processor *Processor
	deferrer  Deferrer
	monitor   monitoring.Monitor
	now       func() time.Time
}

func NewScheduler(config *config.Config) (self *Scheduler) {
	self = new(Scheduler)
	self.now = time.Now

	self.Task = task.NewTask(config, "scheduler").
		WithWorkerPool(config.Ingest.NumWorkers, config.Ingest.SweepBatchSize)

	if config.Sweeper.InProcessEnabled {
		self.Task = self.Task.WithPeriodicSubtaskFunc(config.Sweeper.Interval, self.sweepPeriodically)
	} else {
		self.Task = self.Task.WithIdleSubtask()
	}

	return
}

func (self *Scheduler) WithStore(store *Store) *Scheduler {
	self.store = store
	return self
}

func (self *Scheduler) WithProcessor(processor *Processor) *Scheduler {
	self.processor = processor
	return self
}

func (self *Scheduler) WithDeferrer(deferrer Deferrer) *Scheduler {
	self.deferrer = deferrer
	return self
}

func (self *Scheduler) WithMonitor(monitor monitoring.Monitor) *Scheduler {
	self.monitor = monitor
	return self
}

func (self *Scheduler) WithClock(now func() time.Time) *Scheduler {
	self.now = now
	return self
}

// Schedules a re-check of the submission once it could have gone quiet
func (self *Scheduler) Arm(ctx context.Context, submission *model.PendingSubmission) {
	if self.deferrer == nil {
		return
	}

	delay := self.Config.Ingest.QuietPeriod + self.Config.Ingest.SafetyMargin
	err := self.deferrer.Defer(ctx, &DeferredCheck{
		Sender:   submission.Sender,
		MarketID: submission.MarketID,
	}, delay)
	if err != nil {
		// Sweep will pick it up
		self.Log.WithError(err).WithField("sender", submission.Sender).Warn("Failed to arm deferred check")
		self.monitor.GetReport().Ingestor.Errors.DeferredCheckFailures.Inc()
		return
	}

	self.monitor.GetReport().Ingestor.State.DeferredChecksArmed.Inc()
}

// Processes the sender's submission if it's ready, does nothing otherwise
func (self *Scheduler) CheckReady(ctx context.Context, check *DeferredCheck) (err error) {
	self.monitor.GetReport().Ingestor.State.DeferredChecksFired.Inc()

	submission, err := self.store.FindReadyFor(ctx, check.Sender, check.MarketID, self.now().UTC(),
		self.Config.Ingest.QuietPeriod, self.Config.Ingest.MaxAccumulation)
	if err != nil {
		self.monitor.GetReport().Ingestor.Errors.StoreFailures.Inc()
		return
	}
	if submission == nil {
		self.Log.WithField("sender", check.Sender).Debug("Nothing ready, probably got a newer fragment")
		return nil
	}

	outcome, err := self.processor.Process(ctx, submission)
	if err != nil {
		self.Log.WithError(err).WithField("outcome", outcome).Warn("Processing failed")
	}

	// Processing errors aren't retried
	return nil
}

// Processes all ready submissions. Safe to run concurrently with other sweeps and deferred checks.
func (self *Scheduler) Sweep(ctx context.Context) (out *Summary, err error) {
	self.monitor.GetReport().Ingestor.State.SweepsRun.Inc()

	now := self.now().UTC()
	out = &Summary{Timestamp: now}

	var succeeded, failed atomic.Int64

	if self.Config.Ingest.ProcessingTimeout > 0 {
		var purged int64
		purged, err = self.store.PurgeStuck(ctx, now.Add(-self.Config.Ingest.ProcessingTimeout))
		if err != nil {
			self.monitor.GetReport().Ingestor.Errors.SweepFailures.Inc()
			return
		}
		self.monitor.GetReport().Ingestor.State.StuckPurged.Add(uint64(purged))
		failed.Add(purged)
	}

	ready, err := self.store.FindReady(ctx, now, self.Config.Ingest.QuietPeriod, self.Config.Ingest.MaxAccumulation, self.Config.Ingest.SweepBatchSize)
	if err != nil {
		self.monitor.GetReport().Ingestor.Errors.SweepFailures.Inc()
		return
	}

	var wg sync.WaitGroup
	for _, submission := range ready {
		submission := submission

		wg.Add(1)
		ok := self.SubmitToWorker(func() {
			defer wg.Done()

			outcome, err := self.processor.Process(ctx, submission)
			if err != nil {
				self.Log.WithError(err).WithField("id", submission.ID).Warn("Processing failed")
			}

			switch outcome {
			case OutcomeOfferCreated:
				succeeded.Inc()
			case OutcomeRejected, OutcomeFailed:
				failed.Inc()
			}
		})
		if !ok {
			wg.Done()
			break
		}
	}
	wg.Wait()

	out.Succeeded = int(succeeded.Load())
	out.Failed = int(failed.Load())
	out.Processed = out.Succeeded + out.Failed

	self.Log.WithField("ready", len(ready)).
		WithField("succeeded", out.Succeeded).
		WithField("failed", out.Failed).
		Info("Sweep finished")

	return
}

func (self *Scheduler) sweepPeriodically() error {
	_, err := self.Sweep(self.Ctx)
	if err != nil {
		self.Log.WithError(err).Error("Periodic sweep failed")
	}

	// Keep sweeping, errors are transient
	return nil
}
