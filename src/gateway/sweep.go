package gateway

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/wochenmarkt/ingestor/src/gateway/response"
	. "github.com/wochenmarkt/ingestor/src/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/teivah/onecontext"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
)

func (self *Server) authorizeSweep(c *gin.Context) error {
	secret := self.Config.Gateway.SweepSecret
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ErrMissingToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
		return ErrInvalidToken
	}
	return nil
}

// Processes all ready submissions, called periodically by an external trigger
func (self *Server) onSweep(c *gin.Context) {
	err := self.authorizeSweep(c)
	if err != nil {
		LOGE(c, err, http.StatusUnauthorized).Warn("Unauthorized sweep")
		return
	}

	// Stop when either the caller gives up or the gateway is stopping
	ctx, cancel := onecontext.Merge(c.Request.Context(), self.Ctx)
	defer cancel()

	summary, err := self.scheduler.Sweep(ctx)
	if err != nil {
		LOGE(c, err, http.StatusInternalServerError).Error("Sweep failed")
		return
	}

	LOG(c).WithField("processed", summary.Processed).
		WithField("succeeded", summary.Succeeded).
		WithField("failed", summary.Failed).
		Debug("Sweep done")

	c.JSON(http.StatusOK, response.SummaryToResponse(summary))
}
