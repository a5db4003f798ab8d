package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"

	"liyu1981.xyz/tablet-telemetry-service/pkg/common"
	"liyu1981.xyz/tablet-telemetry-service/pkg/iot"
	"liyu1981.xyz/tablet-telemetry-service/pkg/models"
)

const (
	defaultHistoryHours = 24
	maxHistoryHours     = 24 * 30
)

var historyHoursSchema = z.Int().Required().GTE(1).LTE(maxHistoryHours)

// writeError maps engine errors onto status codes. Read-path failures are
// reported as unavailable, never as empty data.
func writeError(c *gin.Context, err error) {
	var ve *iot.ValidationError
	var lt *iot.LockTimeoutError
	var se *iot.StoreError

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation error",
			"field":  ve.Field,
			"value":  ve.Value,
			"reason": ve.Reason,
		})
	case errors.As(err, &lt):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error(), "retryable": true})
	case errors.As(err, &se):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "retryable": true})
	case iot.IsAggregationUnavailable(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "data unavailable"})
	case errors.Is(err, iot.ErrDeviceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		common.GetLoggerWith(common.LoggerNameRestfulServer).Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (rs *RestfulServer) PostTelemetry(c *gin.Context) {
	var payload iot.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload: " + err.Error()})
		return
	}

	if !rs.CheckDeviceLimiter(payload.DeviceID) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded", "retryable": true})
		return
	}

	result, err := rs.Iot.Ingestion.Ingest(c.Request.Context(), &payload)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (rs *RestfulServer) GetDevices(c *gin.Context) {
	views, err := rs.Iot.Analytics.ListDeviceViews(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (rs *RestfulServer) GetAnalytics(c *gin.Context) {
	var window time.Duration
	if raw := c.Query("window"); raw != "" {
		var err error
		if window, err = time.ParseDuration(raw); err != nil || window <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window must be a positive duration like 5m"})
			return
		}
	}

	snapshot, err := rs.Iot.Analytics.Compute(c.Request.Context(), window)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// queryHours reads the optional hours parameter and writes the 400 itself
// when it is out of range.
func queryHours(c *gin.Context) (int, bool) {
	hours := defaultHistoryHours
	if raw := c.Query("hours"); raw != "" {
		var err error
		if hours, err = strconv.Atoi(raw); err != nil || len(historyHoursSchema.Validate(&hours)) != 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be between 1 and 720"})
			return 0, false
		}
	}
	return hours, true
}

func (rs *RestfulServer) GetSessionIssues(c *gin.Context) {
	hours, ok := queryHours(c)
	if !ok {
		return
	}

	report, err := rs.Iot.Analytics.SessionIssues(c.Request.Context(), c.Query("device_id"), hours)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (rs *RestfulServer) GetDeviceMetrics(c *gin.Context) {
	deviceID := iot.NormalizeDeviceID(c.Param("device_id"))

	hours, ok := queryHours(c)
	if !ok {
		return
	}

	if _, err := rs.Iot.Registry.GetDevice(c.Request.Context(), deviceID); err != nil {
		writeError(c, err)
		return
	}

	since := rs.Iot.Clock.Now().Add(-time.Duration(hours) * time.Hour)
	history, err := rs.Iot.Metric.GetDeviceMetrics(c.Request.Context(), deviceID, since)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

type SessionsResponse struct {
	State  *models.DeviceSession `json:"state"`
	Events []models.SessionEvent `json:"events"`
}

func (rs *RestfulServer) GetDeviceSessions(c *gin.Context) {
	deviceID := iot.NormalizeDeviceID(c.Param("device_id"))
	ctx := c.Request.Context()

	if _, err := rs.Iot.Registry.GetDevice(ctx, deviceID); err != nil {
		writeError(c, err)
		return
	}

	state, err := rs.Iot.Session.GetSessionState(ctx, deviceID)
	if err != nil {
		writeError(c, err)
		return
	}
	events, err := rs.Iot.Session.GetSessionEvents(ctx, deviceID)
	if err != nil {
		writeError(c, err)
		return
	}
	if events == nil {
		events = []models.SessionEvent{}
	}

	c.JSON(http.StatusOK, SessionsResponse{State: state, Events: events})
}

type LimiterRequest struct {
	Rate  float64 `json:"rate"`
	Burst int     `json:"burst"`
}

var limiterRequestSchema = z.Struct(z.Shape{
	"rate":  z.Float64().Required().GT(0),
	"burst": z.Int().Required().GTE(1),
})

func (rs *RestfulServer) PostLimiter(c *gin.Context) {
	deviceID := iot.NormalizeDeviceID(c.Param("device_id"))

	var req LimiterRequest
	if err := limiterRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	config := models.LimiterConfig{DeviceID: deviceID, Rate: req.Rate, Burst: req.Burst}
	if err := rs.Iot.Config.UpsertLimiterConfig(c.Request.Context(), &config); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	applied := rs.SetLimiter(deviceID, req.Rate, req.Burst)
	c.JSON(http.StatusOK, gin.H{"device_id": deviceID, "rate": req.Rate, "burst": req.Burst, "applied": applied})
}

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
