package progress_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shelfmates/bookshelf/internal/library"
	"github.com/shelfmates/bookshelf/internal/progress"
	"github.com/shelfmates/bookshelf/pkg/database"
	"github.com/shelfmates/bookshelf/pkg/logger"
	"github.com/shelfmates/bookshelf/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProgressTest(t *testing.T) (*progress.Aggregator, *gin.Engine) {
	t.Helper()
	logger.Init(logger.ERROR, false, nil)
	require.NoError(t, database.InitDatabase(t.TempDir()+"/test.db"))
	t.Cleanup(func() { database.Close() })

	ctx := context.Background()
	users := library.NewDirectory(database.DB, 10)
	lib := library.NewLibrary(database.DB)
	_, err := users.CreateUser(ctx, models.CreateUserRequest{Username: "alice"})
	require.NoError(t, err)

	books := []*models.Book{
		{ISBN: "1", Title: "Whole Year", PageCount: 365, ReadStatus: models.StatusRead,
			Period: models.RangePeriod{Start: date(2023, time.January, 1), End: ptr(date(2023, time.December, 31))}},
		{ISBN: "2", Title: "Straddler", PageCount: 100, ReadStatus: models.StatusRead,
			Period: models.RangePeriod{Start: date(2022, time.December, 30), End: ptr(date(2023, time.January, 2))}},
		{ISBN: "3", Title: "Year Only", PageCount: 300, ReadStatus: models.StatusRead,
			Period: models.YearPeriod{Year: 2023}},
		{ISBN: "4", Title: "In Progress", PageCount: 500, ReadStatus: models.StatusReading,
			Period: models.RangePeriod{Start: date(2023, time.May, 1)}},
		{ISBN: "5", Title: "Unread", PageCount: 250},
	}
	for _, b := range books {
		_, err := lib.AddBook(ctx, "alice", b)
		require.NoError(t, err)
	}

	agg := progress.NewAggregator(database.DB)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/pages-read/:year", progress.NewHandler(agg).PagesRead)
	return agg, router
}

func TestAggregator_PagesReadInYear(t *testing.T) {
	agg, _ := setupProgressTest(t)
	ctx := context.Background()

	total, err := agg.PagesReadInYear(ctx, "alice", 2023)
	require.NoError(t, err)
	assert.Equal(t, 715, total)

	total, err = agg.PagesReadInYear(ctx, "alice", 2022)
	require.NoError(t, err)
	assert.Equal(t, 50, total)

	total, err = agg.PagesReadInYear(ctx, "alice", 1999)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestPagesRead_Report(t *testing.T) {
	_, router := setupProgressTest(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest("GET", "/pages-read/2023?username=alice", nil))
	if resp.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var report progress.Report
	if err := json.Unmarshal(resp.Body.Bytes(), &report); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if report.Year != 2023 || report.TotalPages != 715 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Books) != 3 {
		t.Fatalf("expected 3 contributing books, got %+v", report.Books)
	}
	sum := 0
	for _, b := range report.Books {
		sum += b.Pages
	}
	if sum != report.TotalPages {
		t.Fatalf("contributions add up to %d, total is %d", sum, report.TotalPages)
	}
}

func TestPagesRead_Errors(t *testing.T) {
	_, router := setupProgressTest(t)

	cases := []struct {
		path string
		want int
	}{
		{"/pages-read/abc?username=alice", 400},
		{"/pages-read/0?username=alice", 400},
		{"/pages-read/2023", 400},
		{"/pages-read/2023?username=ghost", 404},
	}
	for _, tc := range cases {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest("GET", tc.path, nil))
		if resp.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.want, resp.Code)
		}
	}
}
