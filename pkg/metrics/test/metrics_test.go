package metrics_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shelfmates/bookshelf/pkg/metrics"
)

func TestMetrics_InitialState(t *testing.T) {
	metrics.Reset()

	metricsHandler := metrics.NewHandler()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/metrics", metricsHandler.Metrics)

	req := httptest.NewRequest("GET", "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != 200 {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"friend_requests_sent", "friendships_accepted", "club_joins", "messages_posted", "tx_retries"} {
		v, ok := result[key].(float64)
		if !ok {
			t.Fatalf("missing counter %s in %v", key, result)
		}
		if v != 0 {
			t.Fatalf("expected %s=0, got %v", key, v)
		}
	}
	if _, ok := result["uptime_seconds"]; !ok {
		t.Fatalf("expected uptime_seconds in %v", result)
	}
}

func TestMetrics_CountersAreConcurrencySafe(t *testing.T) {
	metrics.Reset()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metrics.IncrementFriendRequestsSent()
			metrics.IncrementMessagesPosted()
			metrics.IncrementPersonalCopies()
		}()
	}
	wg.Wait()

	snap := metrics.Snapshot()
	if snap["friend_requests_sent"] != 50 {
		t.Fatalf("expected friend_requests_sent=50, got %d", snap["friend_requests_sent"])
	}
	if snap["messages_posted"] != 50 {
		t.Fatalf("expected messages_posted=50, got %d", snap["messages_posted"])
	}
	if snap["personal_copies_provisioned"] != 50 {
		t.Fatalf("expected personal_copies_provisioned=50, got %d", snap["personal_copies_provisioned"])
	}

	metrics.Reset()
	if metrics.Snapshot()["messages_posted"] != 0 {
		t.Fatalf("reset did not clear counters")
	}
}

func TestMiddleware_RecordsRequests(t *testing.T) {
	metrics.Reset()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(metrics.Middleware())
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, path := range []string{"/ok", "/ok", "/fail", "/missing"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	sys := metrics.GetSystemMetrics()
	if sys["requests_processed"] != 4 {
		t.Fatalf("expected requests_processed=4, got %d", sys["requests_processed"])
	}
	if sys["requests_failed"] != 1 {
		t.Fatalf("expected requests_failed=1, got %d", sys["requests_failed"])
	}
}
