package gateway

import (
	"context"
	"net/http"

	"github.com/wochenmarkt/ingestor/src/ingest"
	"github.com/wochenmarkt/ingestor/src/utils/config"
	"github.com/wochenmarkt/ingestor/src/utils/model"
	"github.com/wochenmarkt/ingestor/src/utils/monitoring"
	"github.com/wochenmarkt/ingestor/src/utils/task"

	"github.com/gin-gonic/gin"
)

type Merger interface {
	SubmitFragment(ctx context.Context, fragment *ingest.Fragment) (*model.PendingSubmission, error)
}

type Scheduler interface {
	Arm(ctx context.Context, submission *model.PendingSubmission)
	Sweep(ctx context.Context) (*ingest.Summary, error)
}

type Markets interface {
	FindMarketBySender(ctx context.Context, sender string) (*model.Market, error)
}

type Notifier interface {
	Notify(ctx context.Context, to, text string) error
}

// Public API: WhatsApp webhook and the sweep endpoint
type Server struct {
	*task.Task

	httpServer *http.Server
	Router     *gin.Engine

	merger    Merger
	scheduler Scheduler
	markets   Markets
	notifier  Notifier
	dedup     Dedup
	monitor   monitoring.Monitor
}

func NewServer(config *config.Config) (self *Server) {
	self = new(Server)

	self.Task = task.NewTask(config, "gateway").
		WithSubtaskFunc(self.run).
		WithOnStop(self.stop)

	if !config.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}

	self.Router = gin.New()
	self.Router.Use(gin.Recovery())

	webhook := self.Router.Group("webhook")
	{
		webhook.GET("", self.onVerify)
		webhook.POST("", self.onWebhook)
	}

	v1 := self.Router.Group("v1")
	{
		v1.POST("sweep", self.onSweep)
	}

	self.httpServer = &http.Server{
		Addr:         config.Gateway.ServerListenAddress,
		Handler:      self.Router,
		ReadTimeout:  config.Gateway.ServerRequestTimeout,
		WriteTimeout: config.Gateway.ServerRequestTimeout,
	}

	return
}

func (self *Server) WithPipeline(pipeline *ingest.Pipeline) *Server {
	return self.WithMerger(pipeline.Merger).
		WithScheduler(pipeline.Scheduler).
		WithMarkets(pipeline.Store).
		WithNotifier(pipeline.Notifier)
}

func (self *Server) WithMerger(merger Merger) *Server {
	self.merger = merger
	return self
}

func (self *Server) WithScheduler(scheduler Scheduler) *Server {
	self.scheduler = scheduler
	return self
}

func (self *Server) WithMarkets(markets Markets) *Server {
	self.markets = markets
	return self
}

func (self *Server) WithNotifier(notifier Notifier) *Server {
	self.notifier = notifier
	return self
}

func (self *Server) WithDedup(dedup Dedup) *Server {
	self.dedup = dedup
	return self
}

func (self *Server) WithMonitor(monitor monitoring.Monitor) *Server {
	self.monitor = monitor
	return self
}

func (self *Server) run() (err error) {
	self.Log.WithField("address", self.httpServer.Addr).Info("Starting gateway")
	err = self.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		self.Log.WithError(err).Error("Failed to start gateway")
		return
	}
	return nil
}

func (self *Server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), self.Config.StopTimeout)
	defer cancel()

	err := self.httpServer.Shutdown(ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to gracefully shutdown gateway")
	}

	if self.dedup != nil {
		err = self.dedup.Close()
		if err != nil {
			self.Log.WithError(err).Warn("Failed to close dedup")
		}
	}
}
