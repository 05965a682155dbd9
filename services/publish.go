package services

import (
	"context"
	"time"

	"github.com/yeremiapane/cafe-pos/kds"
	"github.com/yeremiapane/cafe-pos/utils"
)

// PublishTimeout bounds how long a committed operation waits on its event
// sinks before answering the caller.
var PublishTimeout = 2 * time.Second

// publishEvent delivers an event after commit. The request context is only
// used for its values, so a cancelled request still publishes; errors are
// logged and never returned.
func publishEvent(ctx context.Context, p kds.Publisher, event string, payload interface{}) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PublishTimeout)
	defer cancel()
	if err := p.Publish(pctx, event, payload); err != nil {
		utils.ErrorLogger.Errorf("Failed to publish %s: %v", event, err)
	}
}
