package ingest

import (
	"context"
	"errors"

	"github.com/wochenmarkt/ingestor/src/utils/config"
	"github.com/wochenmarkt/ingestor/src/utils/logger"
	"github.com/wochenmarkt/ingestor/src/utils/monitoring"
	"github.com/wochenmarkt/ingestor/src/utils/task"
	"github.com/wochenmarkt/ingestor/src/utils/whatsapp"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

type TextSender interface {
	SendText(ctx context.Context, to, body string) (*whatsapp.SendMessageResponse, error)
}

// Sends short replies to shop owners
type Notifier struct {
	log     *logrus.Entry
	config  *config.WhatsApp
	sender  TextSender
	monitor monitoring.Monitor
}

func NewNotifier(config *config.Config) (self *Notifier) {
	self = new(Notifier)
	self.config = &config.WhatsApp
	self.log = logger.NewSublogger("notifier")
	return
}

func (self *Notifier) WithSender(sender TextSender) *Notifier {
	self.sender = sender
	return self
}

func (self *Notifier) WithMonitor(monitor monitoring.Monitor) *Notifier {
	self.monitor = monitor
	return self
}

// Retries only errors the API reports as temporary
func (self *Notifier) Notify(ctx context.Context, to, text string) (err error) {
	if self.sender == nil {
		return whatsapp.ErrNotConfigured
	}

	err = task.NewRetry().
		WithContext(ctx).
		WithMaxElapsedTime(self.config.NoticeMaxElapsedTime).
		WithMaxInterval(self.config.NoticeMaxInterval).
		WithOnError(func(err error) {
			self.log.WithError(err).WithField("to", to).Warn("Failed to send notice, retrying")
		}).
		Run(func() error {
			_, err := self.sender.SendText(ctx, to, text)
			if err == nil {
				return nil
			}

			var statusErr *whatsapp.StatusError
			if errors.As(err, &statusErr) && !statusErr.IsTemporary() {
				return backoff.Permanent(err)
			}
			return err
		})
	if err != nil {
		self.log.WithError(err).WithField("to", to).Error("Failed to send notice")
		self.monitor.GetReport().Ingestor.Errors.NoticeFailures.Inc()
		return
	}

	return
}
