package logger

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var requestLogger = NewSublogger("http")

// Logger with request fields
func LOG(c *gin.Context) *logrus.Entry {
	return requestLogger.
		WithField("method", c.Request.Method).
		WithField("path", c.FullPath()).
		WithField("ip", c.ClientIP())
}

// Aborts the request with the status and returns a logger with the error attached
func LOGE(c *gin.Context, err error, status int) *logrus.Entry {
	c.AbortWithStatus(status)
	entry := LOG(c).WithField("status", status)
	if err != nil {
		entry = entry.WithError(err)
	}
	return entry
}
