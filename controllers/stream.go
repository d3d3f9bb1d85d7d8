package controllers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailorly-api/logger"
	"github.com/kendall-kelly/tailorly-api/metrics"
	"github.com/kendall-kelly/tailorly-api/realtime"
	"go.uber.org/zap"
)

// streamHeartbeat keeps idle proxies from closing an open event stream.
var streamHeartbeat = 25 * time.Second

// streamSubscription writes each event of sub to the client as a server-sent
// event named after the event type. It returns when the client goes away or
// the subscription ends.
func streamSubscription(c *gin.Context, sub *realtime.Subscription, kind string) {
	defer sub.Close()

	gauge := metrics.RealtimeSubscribers.WithLabelValues(kind)
	gauge.Inc()
	defer gauge.Dec()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(streamHeartbeat)
	defer ticker.Stop()

	logger.Info(c.Request.Context(), "Stream opened", zap.String("topic", sub.Topic()))
	c.Stream(func(w io.Writer) bool {
		select {
		case evt, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent(string(evt.Type), evt.Payload)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
	logger.Info(c.Request.Context(), "Stream closed", zap.String("topic", sub.Topic()))
}

