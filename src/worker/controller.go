package worker

import (
	"context"
	"errors"

	"github.com/wochenmarkt/ingestor/src/ingest"
	"github.com/wochenmarkt/ingestor/src/utils/config"
	"github.com/wochenmarkt/ingestor/src/utils/model"
	"github.com/wochenmarkt/ingestor/src/utils/monitoring"
	monitor_ingestor "github.com/wochenmarkt/ingestor/src/utils/monitoring/ingestor"
	"github.com/wochenmarkt/ingestor/src/utils/task"
)

var ErrRedisRequired = errors.New("worker needs redis to consume deferred checks")

// Executes durable deferred checks enqueued by gateways
type Controller struct {
	*task.Task
}

func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)

	if !config.Redis.IsEnabled() {
		return nil, ErrRedisRequired
	}

	ctx := context.Background()

	db, err := model.NewConnection(ctx, config, "worker")
	if err != nil {
		return
	}

	monitor := monitor_ingestor.NewMonitor()

	pipeline, err := ingest.NewPipeline(ctx, config, db, monitor)
	if err != nil {
		return
	}

	monitoringServer := monitoring.NewServer(config).
		WithMonitor(monitor)

	self.Task = task.NewTask(config, "controller").
		WithSubtask(monitor.Task).
		WithSubtask(monitoringServer.Task).
		WithSubtask(pipeline.Task).
		WithSubtask(pipeline.NewAsynqWorker().Task)

	return
}
