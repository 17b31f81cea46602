package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/wochenmarkt/ingestor/src/utils/config"
	"github.com/wochenmarkt/ingestor/src/utils/logger"
	"github.com/wochenmarkt/ingestor/src/utils/monitoring"
	"github.com/wochenmarkt/ingestor/src/utils/storage"
	"github.com/wochenmarkt/ingestor/src/utils/task"
	"github.com/wochenmarkt/ingestor/src/utils/vision"
	"github.com/wochenmarkt/ingestor/src/utils/whatsapp"

	"gorm.io/gorm"
)

const (
	DeferredCheckBackendLocal = "local"
	DeferredCheckBackendAsynq = "asynq"
)

// All components needed to take fragments in and turn them into offers
type Pipeline struct {
	*task.Task

	Store     *Store
	Merger    *Merger
	Scheduler *Scheduler
	Processor *Processor
	Notifier  *Notifier
}

func NewPipeline(ctx context.Context, config *config.Config, db *gorm.DB, monitor monitoring.Monitor) (self *Pipeline, err error) {
	self = new(Pipeline)
	log := logger.NewSublogger("pipeline")

	self.Store = NewStore(db)

	whatsappClient := whatsapp.NewClient(&config.WhatsApp)

	var chatModel ChatModel
	arkModel, err := vision.NewChatModel(ctx, &config.Model)
	switch {
	case errors.Is(err, vision.ErrNotConfigured):
		log.Warn("Structuring model isn't configured, every submission will be rejected as unclear")
		err = nil
	case err != nil:
		return nil, fmt.Errorf("failed to create structuring model: %w", err)
	default:
		chatModel = arkModel
	}

	var uploader Uploader
	if config.Storage.Bucket != "" {
		var client *storage.Client
		client, err = storage.NewClient(ctx, &config.Storage)
		if err != nil {
			return nil, err
		}
		uploader = client
	} else {
		log.Warn("Storage isn't configured, images will only be reused from the library")
	}

	self.Notifier = NewNotifier(config).
		WithSender(whatsappClient).
		WithMonitor(monitor)

	engine := NewEngine(config).
		WithModel(chatModel).
		WithMonitor(monitor)

	resolver := NewResolver(config).
		WithStore(self.Store).
		WithUploader(uploader).
		WithMonitor(monitor)

	self.Processor = NewProcessor(config).
		WithStore(self.Store).
		WithEngine(engine).
		WithResolver(resolver).
		WithNotifier(self.Notifier).
		WithMediaFetcher(whatsappClient).
		WithMonitor(monitor)

	self.Scheduler = NewScheduler(config).
		WithStore(self.Store).
		WithProcessor(self.Processor).
		WithMonitor(monitor)

	self.Merger = NewMerger(config).
		WithStore(self.Store).
		WithMonitor(monitor)

	self.Task = task.NewTask(config, "pipeline").
		WithSubtask(self.Scheduler.Task)

	switch config.Ingest.DeferredCheckBackend {
	case DeferredCheckBackendAsynq:
		if !config.Redis.IsEnabled() {
			return nil, errors.New("asynq deferred checks need redis")
		}
		deferrer := NewAsynqDeferrer(config)
		self.Scheduler.WithDeferrer(deferrer)
		self.Task = self.Task.WithOnAfterStop(func() {
			err := deferrer.Close()
			if err != nil {
				log.WithError(err).Warn("Failed to close asynq client")
			}
		})
	default:
		deferrer := NewLocalDeferrer(config).
			WithHandler(self.Scheduler.CheckReady)
		self.Scheduler.WithDeferrer(deferrer)
		self.Task = self.Task.WithSubtask(deferrer.Task)
	}

	return
}

// Durable deferred checks executed in this process
func (self *Pipeline) NewAsynqWorker() *AsynqWorker {
	return NewAsynqWorker(self.Config).
		WithHandler(self.Scheduler.CheckReady)
}
