package gateway

import (
	"context"

	"github.com/wochenmarkt/ingestor/src/ingest"
	"github.com/wochenmarkt/ingestor/src/utils/config"
	"github.com/wochenmarkt/ingestor/src/utils/model"
	"github.com/wochenmarkt/ingestor/src/utils/monitoring"
	monitor_ingestor "github.com/wochenmarkt/ingestor/src/utils/monitoring/ingestor"
	"github.com/wochenmarkt/ingestor/src/utils/task"
)

// Main class that orchestrates everything the serve command runs
type Controller struct {
	*task.Task
}

func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)

	ctx := context.Background()

	db, err := model.NewConnection(ctx, config, "gateway")
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

	server := NewServer(config).
		WithPipeline(pipeline).
		WithDedup(NewDedup(config)).
		WithMonitor(monitor)

	self.Task = task.NewTask(config, "controller").
		WithSubtask(monitor.Task).
		WithSubtask(monitoringServer.Task).
		WithSubtask(pipeline.Task).
		WithSubtask(server.Task)

	return
}
