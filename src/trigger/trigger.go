package trigger

import (
	"github.com/wochenmarkt/ingestor/src/gateway/response"
	"github.com/wochenmarkt/ingestor/src/utils/config"
	"github.com/wochenmarkt/ingestor/src/utils/task"

	"github.com/go-resty/resty/v2"
	"github.com/robfig/cron"
	"go.uber.org/atomic"
)

// Calls the sweep endpoint on a cron schedule, for deployments without an external scheduler
type Trigger struct {
	*task.Task

	client *resty.Client
	cron   *cron.Cron

	// Skips a tick if the previous sweep is still running
	isRunning atomic.Bool

	// Last successful sweep
	Last *response.Sweep
}

func NewTrigger(config *config.Config) (self *Trigger) {
	self = new(Trigger)

	self.client = resty.New().
		SetTimeout(config.Sweeper.TriggerTimeout).
		SetAuthToken(config.Gateway.SweepSecret).
		SetHeader("User-Agent", "wochenmarkt/ingestor-trigger").
		SetRetryCount(0)

	self.cron = cron.New()

	self.Task = task.NewTask(config, "trigger").
		WithOnBeforeStart(self.schedule).
		WithIdleSubtask().
		WithOnStop(self.cron.Stop)

	return
}

func (self *Trigger) schedule() (err error) {
	err = self.cron.AddFunc(self.Config.Sweeper.TriggerSchedule, self.onTick)
	if err != nil {
		self.Log.WithError(err).WithField("schedule", self.Config.Sweeper.TriggerSchedule).Error("Invalid schedule")
		return
	}
	self.cron.Start()
	return
}

func (self *Trigger) onTick() {
	if !self.isRunning.CompareAndSwap(false, true) {
		self.Log.Warn("Previous sweep still running, skipping")
		return
	}
	defer self.isRunning.Store(false)

	_ = self.Sweep()
}

// Single call of the sweep endpoint
func (self *Trigger) Sweep() (err error) {
	resp, err := self.client.R().
		SetContext(self.Ctx).
		SetResult(&response.Sweep{}).
		ForceContentType("application/json").
		Post(self.Config.Sweeper.TriggerUrl)
	if err != nil {
		self.Log.WithError(err).Error("Failed to trigger sweep")
		return
	}
	if !resp.IsSuccess() {
		err = &StatusError{StatusCode: resp.StatusCode()}
		self.Log.WithError(err).Error("Sweep rejected")
		return
	}

	out, ok := resp.Result().(*response.Sweep)
	if !ok {
		err = ErrFailedToParse
		return
	}
	self.Last = out

	self.Log.WithField("processed", out.Processed).
		WithField("succeeded", out.Succeeded).
		WithField("failed", out.Failed).
		Info("Sweep triggered")
	return
}
