package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
	streamBuffer     = 16
)

// StreamAnalytics upgrades to a websocket, sends the current snapshot and
// then every changed snapshot the engine publishes. A client that falls
// behind loses intermediate snapshots, not the connection.
func (rs *RestfulServer) StreamAnalytics(c *gin.Context) {
	logger := common.GetLoggerWith(common.LoggerNameRestfulServer)

	conn, err := rs.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	snapshot, err := rs.Iot.Analytics.Compute(c.Request.Context(), 0)
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err != nil {
		err = conn.WriteJSON(gin.H{"error": "data unavailable"})
	} else {
		err = conn.WriteJSON(snapshot)
	}
	if err != nil {
		return
	}

	updates := make(chan models.AnalyticsSnapshot, streamBuffer)
	unsubscribe := rs.Iot.Notifier.OnSnapshotChanged(func(s models.AnalyticsSnapshot) {
		select {
		case updates <- s:
		default:
		}
	})
	defer unsubscribe()

	// catch a change published between the first compute and subscribing
	if last, ok := rs.Iot.Notifier.Last(); ok && snapshot != nil && !last.SameCounts(*snapshot) {
		select {
		case updates <- last:
		default:
		}
	}

	// the read side only exists to notice the client going away
	closed := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	logger.Info("Analytics stream opened", zap.String("remote", c.Request.RemoteAddr))
	defer logger.Info("Analytics stream closed", zap.String("remote", c.Request.RemoteAddr))

	for {
		select {
		case <-closed:
			return
		case s := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(s); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
