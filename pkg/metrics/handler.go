package metrics

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) Metrics(c *gin.Context) {
	body := gin.H{}
	for k, v := range Snapshot() {
		body[k] = v
	}
	for k, v := range GetSystemMetrics() {
		body[k] = v
	}
	body["uptime_seconds"] = int64(GetUptime().Seconds())
	c.JSON(http.StatusOK, body)
}

// Middleware records latency and server-side failures for every request.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		RecordRequest(time.Since(start).Milliseconds(), c.Writer.Status() >= http.StatusInternalServerError)
	}
}
