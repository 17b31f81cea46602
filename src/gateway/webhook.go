package gateway

import (
	"context"
	"net/http"

	"github.com/wochenmarkt/ingestor/src/gateway/request"
	"github.com/wochenmarkt/ingestor/src/ingest"
	. "github.com/wochenmarkt/ingestor/src/utils/logger"
	"github.com/wochenmarkt/ingestor/src/utils/whatsapp"

	"github.com/gin-gonic/gin"
)

// Echoes the challenge if WhatsApp knows our verify token
func (self *Server) onVerify(c *gin.Context) {
	var in request.Verify
	err := c.ShouldBindQuery(&in)
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Error("Failed to parse verification request")
		return
	}

	token := self.Config.Gateway.WebhookVerifyToken
	if in.Mode != "subscribe" || token == "" || in.VerifyToken != token {
		LOGE(c, nil, http.StatusForbidden).WithField("mode", in.Mode).Warn("Webhook verification rejected")
		return
	}

	LOG(c).Info("Webhook verified")
	c.String(http.StatusOK, in.Challenge)
}

// Always acknowledges a well formed payload, problems with the content are handled asynchronously
func (self *Server) onWebhook(c *gin.Context) {
	var in whatsapp.WebhookPayload
	err := c.ShouldBindJSON(&in)
	if err != nil {
		LOGE(c, err, http.StatusBadRequest).Error("Failed to parse webhook payload")
		return
	}

	for _, message := range in.Messages() {
		self.handleMessage(c.Request.Context(), message)
	}

	c.Status(http.StatusOK)
}

func (self *Server) handleMessage(ctx context.Context, message whatsapp.Message) {
	log := self.Log.WithField("sender", message.From).WithField("message_id", message.ID)

	fragment := &ingest.Fragment{
		Sender:             message.From,
		TransportMessageID: message.ID,
	}
	switch message.Type {
	case whatsapp.MessageTypeText:
		if message.Text != nil {
			fragment.Caption = message.Text.Body
		}
	case whatsapp.MessageTypeImage:
		if message.Image != nil {
			fragment.ImageRef = message.Image.ID
			fragment.Caption = message.Image.Caption
		}
	default:
		log.WithField("type", message.Type).Debug("Ignoring unsupported message type")
		return
	}

	if message.ID != "" && self.dedup != nil {
		fresh, err := self.dedup.MarkSeen(ctx, message.ID)
		if err != nil {
			// Better process twice than lose the message
			log.WithError(err).Warn("Failed to check message id, processing anyway")
		} else if !fresh {
			log.Debug("Duplicate delivery, dropping")
			self.monitor.GetReport().Ingestor.State.DuplicatesDropped.Inc()
			return
		}
	}

	market, err := self.markets.FindMarketBySender(ctx, message.From)
	if err != nil {
		log.WithError(err).Error("Failed to find market of the sender")
		self.monitor.GetReport().Ingestor.Errors.StoreFailures.Inc()
		return
	}
	if market == nil {
		log.Info("Message from unknown sender")
		self.monitor.GetReport().Ingestor.State.UnknownSenders.Inc()
		_ = self.notifier.Notify(ctx, message.From, ingest.UnknownSenderNotice)
		return
	}
	fragment.MarketID = market.ID

	submission, err := self.merger.SubmitFragment(ctx, fragment)
	if err != nil {
		// Sender's next message or the sweep picks up the unchanged state
		log.WithError(err).Error("Failed to store fragment")
		return
	}

	self.scheduler.Arm(ctx, submission)
}
