package whatsapp

import (
	"fmt"
	"net/http"
	"time"

	"github.com/wochenmarkt/ingestor/src/utils/config"
	"github.com/wochenmarkt/ingestor/src/utils/logger"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type BaseClient struct {
	config  *config.WhatsApp
	log     *logrus.Entry
	client  *resty.Client
	limiter *rate.Limiter
}

func newBaseClient(config *config.WhatsApp) (self *BaseClient) {
	self = new(BaseClient)
	self.log = logger.NewSublogger("whatsapp-client")
	self.config = config

	interval := config.LimiterInterval
	if interval <= 0 {
		interval = time.Millisecond
	}
	burst := config.LimiterBurstSize
	if burst <= 0 {
		burst = 1
	}
	self.limiter = rate.NewLimiter(rate.Every(interval), burst)

	self.client = resty.New().
		SetBaseURL(config.ApiUrl).
		SetTimeout(config.RequestTimeout).
		SetAuthToken(config.AccessToken).
		SetHeader("User-Agent", "wochenmarkt/ingestor").
		SetRetryCount(0).
		OnBeforeRequest(self.onRateLimit).
		OnAfterResponse(self.onStatusToError)
	return
}

// Converts HTTP status to errors
func (self *BaseClient) onStatusToError(c *resty.Client, resp *resty.Response) error {
	// Non-success status code turns into an error
	if resp.IsSuccess() {
		return nil
	}
	if resp.StatusCode() > 399 && resp.StatusCode() < 500 {
		self.log.WithField("status", resp.StatusCode()).
			WithField("resp", string(resp.Body())).
			WithField("url", resp.Request.URL).
			Debug("Bad request")
	}
	return &StatusError{StatusCode: resp.StatusCode(), Status: resp.Status()}
}

// Blocks till the request is possible or ctx gets canceled
func (self *BaseClient) onRateLimit(c *resty.Client, req *resty.Request) (err error) {
	err = self.limiter.Wait(req.Context())
	if err != nil {
		self.log.WithError(err).Warn("Rate limiting failed")
	}
	return
}

type StatusError struct {
	StatusCode int
	Status     string
}

func (self *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %s", self.Status)
}

// Server errors and throttling are worth retrying
func (self *StatusError) IsTemporary() bool {
	return self.StatusCode >= http.StatusInternalServerError || self.StatusCode == http.StatusTooManyRequests
}
