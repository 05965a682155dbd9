package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/kds"
	"github.com/yeremiapane/cafe-pos/utils"
)

// NotificationController exposes the most recent published events so a
// client that reconnects can catch up.
type NotificationController struct {
	Recorder *kds.Recorder
}

func NewNotificationController(recorder *kds.Recorder) *NotificationController {
	return &NotificationController{Recorder: recorder}
}

// GetRecentEvents supports ?event= to filter by event name.
func (nc *NotificationController) GetRecentEvents(c *gin.Context) {
	var messages []kds.Message
	if event := c.Query("event"); event != "" {
		messages = nc.Recorder.Events(event)
	} else {
		messages = nc.Recorder.Messages()
	}
	if messages == nil {
		messages = []kds.Message{}
	}
	utils.RespondJSON(c, http.StatusOK, "Recent events", messages)
}
