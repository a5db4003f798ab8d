package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
	"liyu1981.xyz/tablet-telemetry-service/pkg/iot"
)

type RestfulServer struct {
	Server           *gin.Engine
	Iot              *iot.IOT
	RateLimiterStore *iot.RateLimiterStore
	Upgrader         websocket.Upgrader
}

func NewRestfulServer(iotCore *iot.IOT, limiters *iot.RateLimiterStore) *RestfulServer {
	rs := &RestfulServer{
		Server:           gin.New(),
		Iot:              iotCore,
		RateLimiterStore: limiters,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// dashboards are served from other origins
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	rs.Server.Use(gin.Recovery(), requestLogger())
	rs.Setup()
	return rs
}

func (rs *RestfulServer) CheckDeviceLimiter(deviceID string) bool {
	return rs.RateLimiterStore.Allow(deviceID)
}

// SetLimiter reports false when no limiter store is in use.
func (rs *RestfulServer) SetLimiter(deviceID string, deviceRate float64, deviceBurst int) bool {
	if rs.RateLimiterStore == nil {
		return false
	}
	rs.RateLimiterStore.SetLimiter(deviceID, rate.Limit(deviceRate), deviceBurst)
	return true
}

func (rs *RestfulServer) Setup() {
	rs.Server.GET("/healthz", rs.HealthCheck)

	rs.Server.POST("/telemetry", rs.PostTelemetry)
	rs.Server.GET("/devices", rs.GetDevices)
	rs.Server.GET("/analytics", rs.GetAnalytics)
	rs.Server.GET("/analytics/stream", rs.StreamAnalytics)
	rs.Server.GET("/analytics/session-issues", rs.GetSessionIssues)

	devices := rs.Server.Group("/devices/:device_id")
	{
		devices.GET("/metrics", rs.GetDeviceMetrics)
		devices.GET("/sessions", rs.GetDeviceSessions)
		devices.POST("/limiter", rs.PostLimiter)
	}
}
