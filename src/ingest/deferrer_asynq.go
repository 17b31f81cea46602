package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/wochenmarkt/ingestor/src/utils/config"
	"github.com/wochenmarkt/ingestor/src/utils/logger"
	"github.com/wochenmarkt/ingestor/src/utils/task"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

const TaskDeferredCheck = "ingest:deferred_check"

func redisClientOpt(config *config.Redis) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     net.JoinHostPort(config.Host, strconv.Itoa(int(config.Port))),
		Username: config.User,
		Password: config.Password,
		DB:       config.DB,
	}
}

// Checks stored in redis, survive restarts and are executed by any worker
type AsynqDeferrer struct {
	log    *logrus.Entry
	client *asynq.Client
	queue  string
}

func NewAsynqDeferrer(config *config.Config) (self *AsynqDeferrer) {
	self = new(AsynqDeferrer)
	self.log = logger.NewSublogger("asynq-deferrer")
	self.queue = config.Ingest.DeferredCheckQueue
	self.client = asynq.NewClient(redisClientOpt(&config.Redis))
	return
}

func (self *AsynqDeferrer) Defer(ctx context.Context, check *DeferredCheck, delay time.Duration) (err error) {
	payload, err := json.Marshal(check)
	if err != nil {
		return
	}

	info, err := self.client.EnqueueContext(ctx,
		asynq.NewTask(TaskDeferredCheck, payload),
		asynq.ProcessIn(delay),
		asynq.Queue(self.queue),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return
	}

	self.log.WithField("task_id", info.ID).WithField("sender", check.Sender).Trace("Deferred check enqueued")
	return
}

func (self *AsynqDeferrer) Close() error {
	return self.client.Close()
}

// Executes deferred checks enqueued by AsynqDeferrer
type AsynqWorker struct {
	*task.Task

	server  *asynq.Server
	handler CheckHandler
}

func NewAsynqWorker(config *config.Config) (self *AsynqWorker) {
	self = new(AsynqWorker)

	self.server = asynq.NewServer(redisClientOpt(&config.Redis), asynq.Config{
		Concurrency: config.Ingest.NumWorkers,
		Queues:      map[string]int{config.Ingest.DeferredCheckQueue: 1},
		Logger:      logger.NewSublogger("asynq"),
	})

	self.Task = task.NewTask(config, "asynq-worker").
		WithSubtaskFunc(self.run)

	return
}

func (self *AsynqWorker) WithHandler(handler CheckHandler) *AsynqWorker {
	self.handler = handler
	return self
}

func (self *AsynqWorker) handle(ctx context.Context, t *asynq.Task) error {
	var check DeferredCheck
	err := json.Unmarshal(t.Payload(), &check)
	if err != nil {
		return fmt.Errorf("%w: %s", asynq.SkipRetry, err.Error())
	}
	return self.handler(ctx, &check)
}

func (self *AsynqWorker) run() (err error) {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskDeferredCheck, self.handle)

	err = self.server.Start(mux)
	if err != nil {
		return
	}

	<-self.StopChannel
	self.server.Shutdown()
	return nil
}
