package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-pos/utils"
)

// DocumentLoggerMiddleware logs the outcome of PDF endpoints (receipts,
// reports), which bypass the JSON error envelope.
func DocumentLoggerMiddleware(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"document":  kind,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"bytes":     c.Writer.Size(),
			"latency":   time.Since(start).String(),
			"requestId": c.GetString(RequestIDKey),
		}
		if c.Writer.Status() == 200 {
			utils.InfoLogger.WithFields(fields).Info("document generated")
		} else {
			utils.ErrorLogger.WithFields(fields).Error("document generation failed")
		}
	}
}
