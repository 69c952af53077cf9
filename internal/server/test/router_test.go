package server_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shelfmates/bookshelf/internal/server"
	"github.com/shelfmates/bookshelf/pkg/database"
	"github.com/shelfmates/bookshelf/pkg/logger"
	"github.com/shelfmates/bookshelf/pkg/metrics"
	"github.com/shelfmates/bookshelf/pkg/models"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	logger.Init(logger.ERROR, false, nil)
	if err := database.InitDatabase(t.TempDir() + "/test.db"); err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	metrics.Reset()

	gin.SetMode(gin.TestMode)
	return server.NewRouter(database.DB, server.Options{SearchLimit: 10})
}

func call(t *testing.T, router *gin.Engine, method, path, body string, want int, out interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != want {
		t.Fatalf("%s %s: expected %d, got %d: %s", method, path, want, resp.Code, resp.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: unmarshal: %v", method, path, err)
		}
	}
}

func TestBookClubScenario(t *testing.T) {
	router := setupRouter(t)

	call(t, router, "POST", "/users", `{"username":"alice"}`, 201, nil)
	call(t, router, "POST", "/users", `{"username":"bob"}`, 201, nil)

	var book models.Book
	call(t, router, "POST", "/books",
		`{"username":"alice","isbn":"9780441013593","title":"Dune","authors":["Frank Herbert"],"pageCount":604}`,
		201, &book)

	var club models.BookClub
	call(t, router, "POST", "/bookclub/create",
		`{"name":"Sci-Fi Night","bookId":"`+book.ID+`","username":"alice","startDate":"2024-05-01"}`,
		201, &club)

	var failure struct {
		Error string `json:"error"`
	}
	call(t, router, "POST", "/bookclub/create",
		`{"name":"No Date","bookId":"`+book.ID+`","username":"alice","startDate":""}`,
		400, &failure)
	if failure.Error != "startDate is required" {
		t.Fatalf("unexpected error for blank startDate: %q", failure.Error)
	}

	var join struct {
		BookClub    models.BookClub `json:"BookClub"`
		CopyCreated bool            `json:"copyCreated"`
	}
	call(t, router, "PATCH", "/bookclub/join?username=bob&bookClubName=Sci-Fi%20Night", "", 201, &join)
	if !join.CopyCreated || join.BookClub.ID != club.ID {
		t.Fatalf("unexpected join result: %+v", join)
	}
	call(t, router, "PATCH", "/bookclub/join?username=bob&bookClubName=Sci-Fi%20Night", "", 409, nil)

	var m models.Membership
	call(t, router, "GET", "/bookclub/check-membership?username=bob", "", 200, &m)
	if !m.IsMember || m.Book == nil {
		t.Fatalf("expected membership with a personal copy, got %+v", m)
	}
	if m.Book.ISBN != book.ISBN || m.Book.ReadStatus != models.StatusReading || m.Book.ID == book.ID {
		t.Fatalf("unexpected personal copy: %+v", m.Book)
	}
	if m.Book.UserID == book.UserID {
		t.Fatalf("personal copy must belong to bob")
	}

	var posted struct {
		MessageBoard []models.Message `json:"messageBoard"`
	}
	call(t, router, "POST", "/bookclub/"+club.ID+"/message", `{"message":"hi","username":"bob"}`, 201, &posted)
	if len(posted.MessageBoard) != 1 {
		t.Fatalf("expected one message, got %+v", posted.MessageBoard)
	}

	m = models.Membership{}
	call(t, router, "GET", "/bookclub/check-membership?username=bob", "", 200, &m)
	if len(m.MessageBoard) != 1 || m.MessageBoard[0].PostedBy.Username != "bob" || m.MessageBoard[0].Message != "hi" {
		t.Fatalf("unexpected message board: %+v", m.MessageBoard)
	}

	// Finishing the club copy makes it count towards the year.
	var finished models.Book
	call(t, router, "PATCH", "/books/"+book.ISBN,
		`{"username":"bob","readStatus":"read","endDate":"2024-05-31"}`, 200, &finished)
	if finished.ID != m.Book.ID || finished.ReadStatus != models.StatusRead {
		t.Fatalf("unexpected finished copy: %+v", finished)
	}
	var report struct {
		TotalPages int `json:"totalPages"`
	}
	call(t, router, "GET", "/pages-read/2024?username=bob", "", 200, &report)
	if report.TotalPages != 604 {
		t.Fatalf("expected 604 pages for the finished club book, got %d", report.TotalPages)
	}

	call(t, router, "POST", "/bookclub/missing/message", `{"message":"hi","username":"bob"}`, 404, nil)
	call(t, router, "POST", "/bookclub/"+club.ID+"/message", `{"username":"bob"}`, 400, nil)
	call(t, router, "GET", "/bookclub/check-membership", "", 400, nil)
	call(t, router, "PATCH", "/bookclub/join?username=bob&bookClubName=Nope", "", 404, nil)

	var clubs []models.ClubSummary
	call(t, router, "GET", "/bookclub/search?search=sci", "", 200, &clubs)
	if len(clubs) != 1 || clubs[0].MemberCount != 2 || clubs[0].BookTitle != "Dune" {
		t.Fatalf("unexpected search: %+v", clubs)
	}

	snap := metrics.Snapshot()
	if snap["clubs_created"] != 1 || snap["club_joins"] != 1 || snap["personal_copies_provisioned"] != 1 || snap["messages_posted"] != 1 {
		t.Fatalf("unexpected counters: %v", snap)
	}
}

func TestFriendsAndStatsScenario(t *testing.T) {
	router := setupRouter(t)

	call(t, router, "POST", "/users", `{"username":"alice"}`, 201, nil)
	call(t, router, "POST", "/users", `{"username":"bob"}`, 201, nil)

	call(t, router, "POST", "/friends/send-request", `{"fromUsername":"alice","toUsername":"bob"}`, 200, nil)
	call(t, router, "POST", "/friends/decline", `{"username":"bob","requesterId":"alice"}`, 200, nil)

	var reqs struct {
		Requests []models.FriendRequestView `json:"requests"`
	}
	call(t, router, "GET", "/friends/requests/sent?username=alice", "", 200, &reqs)
	if len(reqs.Requests) != 0 {
		t.Fatalf("declined request still listed: %+v", reqs.Requests)
	}

	var sent struct {
		Status string `json:"status"`
	}
	call(t, router, "POST", "/friends/send-request", `{"fromUsername":"bob","toUsername":"alice"}`, 200, &sent)
	if sent.Status != "pending" {
		t.Fatalf("expected pending, got %s", sent.Status)
	}
	call(t, router, "POST", "/friends/accept", `{"username":"alice","requesterId":"bob"}`, 200, nil)

	var friends struct {
		Friends []models.UserSummary `json:"friends"`
	}
	call(t, router, "GET", "/friends?username=bob", "", 200, &friends)
	if len(friends.Friends) != 1 || friends.Friends[0].Username != "alice" {
		t.Fatalf("unexpected friends: %+v", friends.Friends)
	}

	call(t, router, "POST", "/books",
		`{"username":"alice","isbn":"1","pageCount":100,"readStatus":"read","dateFormat":"date","startDate":"2022-12-30","endDate":"2023-01-02"}`,
		201, nil)
	call(t, router, "POST", "/books",
		`{"username":"alice","isbn":"2","pageCount":300,"readStatus":"read","dateFormat":"date","startDate":"2023-02-01"}`,
		400, nil)
	var report struct {
		TotalPages int `json:"totalPages"`
	}
	call(t, router, "GET", "/pages-read/2023?username=alice", "", 200, &report)
	if report.TotalPages != 50 {
		t.Fatalf("expected 50 pages, got %d", report.TotalPages)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	router := setupRouter(t)

	call(t, router, "GET", "/health", "", 200, nil)
	call(t, router, "GET", "/healthz", "", 200, nil)
	call(t, router, "GET", "/readyz", "", 200, nil)

	var m map[string]interface{}
	call(t, router, "GET", "/metrics", "", 200, &m)
	if _, ok := m["requests_processed"]; !ok {
		t.Fatalf("expected request counters in %v", m)
	}

	req := httptest.NewRequest("OPTIONS", "/users", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected permissive CORS, got headers %v", resp.Header())
	}
}
