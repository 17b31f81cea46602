package ingest

import (
	"context"
	"time"

	"github.com/wochenmarkt/ingestor/src/utils/config"
	"github.com/wochenmarkt/ingestor/src/utils/logger"
	"github.com/wochenmarkt/ingestor/src/utils/monitoring"
	"github.com/wochenmarkt/ingestor/src/utils/vision"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
)

// Subset of the eino chat model used here
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Asks the structuring model to turn a submission into an offer
type Engine struct {
	log     *logrus.Entry
	config  *config.Model
	model   ChatModel
	limiter ratelimit.Limiter
	monitor monitoring.Monitor
}

func NewEngine(config *config.Config) (self *Engine) {
	self = new(Engine)
	self.config = &config.Model
	self.log = logger.NewSublogger("engine")

	if config.Ingest.ModelCallsPerSecond > 0 {
		self.limiter = ratelimit.New(config.Ingest.ModelCallsPerSecond)
	} else {
		self.limiter = ratelimit.NewUnlimited()
	}

	return
}

func (self *Engine) WithModel(model ChatModel) *Engine {
	self.model = model
	return self
}

func (self *Engine) WithMonitor(monitor monitoring.Monitor) *Engine {
	self.monitor = monitor
	return self
}

// Single request to the model. Errors and unparsable answers end up as UNCLEAR_MESSAGE.
func (self *Engine) Validate(ctx context.Context, caption string, image *vision.Image) Result {
	if self.model == nil {
		return self.failed(&Invalid{Reason: ReasonUnclear, Cause: vision.ErrNotConfigured})
	}

	messages := vision.NewMessages(systemPrompt, userPrompt(caption, image != nil), image)

	self.limiter.Take()
	if ctx.Err() != nil {
		return self.failed(&Invalid{Reason: ReasonUnclear, Cause: ctx.Err()})
	}

	if self.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, self.config.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	out, err := self.model.Generate(ctx, messages)
	if err != nil {
		return self.failed(&Invalid{Reason: ReasonUnclear, Cause: err})
	}

	self.log.WithField("duration", time.Since(start)).Debug("Model answered")

	result := ParseResponse(out.Content)
	if invalid, ok := result.(*Invalid); ok && invalid.Cause != nil {
		self.log.WithField("response", out.Content).Warn("Unparsable model response")
		return self.failed(invalid)
	}
	return result
}

func (self *Engine) failed(invalid *Invalid) Result {
	self.monitor.GetReport().Ingestor.Errors.ModelFailures.Inc()
	self.log.WithError(invalid.Cause).Error("Structuring model failed")
	return invalid
}
