package library_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shelfmates/bookshelf/internal/apperr"
	"github.com/shelfmates/bookshelf/internal/library"
	"github.com/shelfmates/bookshelf/pkg/database"
	"github.com/shelfmates/bookshelf/pkg/logger"
	"github.com/shelfmates/bookshelf/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLibraryTest(t *testing.T) (*library.Directory, *library.Library) {
	t.Helper()
	logger.Init(logger.ERROR, false, nil)
	require.NoError(t, database.InitDatabase(t.TempDir()+"/test.db"))
	t.Cleanup(func() { database.Close() })
	return library.NewDirectory(database.DB, 2), library.NewLibrary(database.DB)
}

func TestCreateUser(t *testing.T) {
	users, _ := setupLibraryTest(t)
	ctx := context.Background()

	u, err := users.CreateUser(ctx, models.CreateUserRequest{Username: "alice", ImageURL: "http://img/a.png", DarkMode: true})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)

	got, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "http://img/a.png", got.ImageURL)
	assert.True(t, got.DarkMode)

	_, err = users.CreateUser(ctx, models.CreateUserRequest{Username: "alice"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = users.CreateUser(ctx, models.CreateUserRequest{Username: "  "})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = users.GetByUsername(ctx, "ghost")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestSearch_BoundedPrefix(t *testing.T) {
	users, _ := setupLibraryTest(t)
	ctx := context.Background()
	for _, name := range []string{"sam", "Samwise", "samantha", "frodo", "s_m"} {
		_, err := users.CreateUser(ctx, models.CreateUserRequest{Username: name})
		require.NoError(t, err)
	}

	results, err := users.Search(ctx, "SAM")
	require.NoError(t, err)
	assert.Len(t, results, 2, "search limit applies")

	results, err = users.Search(ctx, "s_")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "s_m", results[0].Username)

	results, err = users.Search(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindUserByRef(t *testing.T) {
	users, _ := setupLibraryTest(t)
	ctx := context.Background()
	u, err := users.CreateUser(ctx, models.CreateUserRequest{Username: "alice"})
	require.NoError(t, err)

	byID, err := library.FindUserByRef(ctx, database.DB, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byName, err := library.FindUserByRef(ctx, database.DB, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	_, err = library.FindUserByRef(ctx, database.DB, "nobody")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAddBook_RoundTripsPeriod(t *testing.T) {
	users, lib := setupLibraryTest(t)
	ctx := context.Background()
	_, err := users.CreateUser(ctx, models.CreateUserRequest{Username: "alice"})
	require.NoError(t, err)

	end := models.NewDate(2023, time.February, 10)
	pages := 120
	added, err := lib.AddBook(ctx, "alice", &models.Book{
		ISBN:           "111",
		Title:          "Dune",
		Authors:        []string{"Frank Herbert"},
		PageCount:      600,
		ReadFormat:     models.FormatDigital,
		EbookPageCount: &pages,
		ReadStatus:     models.StatusRead,
		Period:         models.RangePeriod{Start: models.NewDate(2023, time.January, 5), End: &end},
	})
	require.NoError(t, err)

	_, err = lib.AddBook(ctx, "alice", &models.Book{ISBN: "222", ReadStatus: models.StatusRead, Period: models.YearPeriod{Year: 2019}})
	require.NoError(t, err)

	books, err := lib.ListBooks(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, books, 2)

	var dune *models.Book
	for i := range books {
		if books[i].ID == added.ID {
			dune = &books[i]
		}
	}
	require.NotNil(t, dune)
	assert.Equal(t, []string{"Frank Herbert"}, dune.Authors)
	assert.Equal(t, models.FormatDigital, dune.ReadFormat)
	require.NotNil(t, dune.EbookPageCount)
	assert.Equal(t, 120, *dune.EbookPageCount)
	period, ok := dune.Period.(models.RangePeriod)
	require.True(t, ok)
	assert.Equal(t, "2023-01-05", period.Start.String())
	require.NotNil(t, period.End)
	assert.Equal(t, "2023-02-10", period.End.String())

	for _, b := range books {
		if b.ISBN == "222" {
			assert.Equal(t, models.YearPeriod{Year: 2019}, b.Period)
			assert.Equal(t, models.FormatPhysical, b.ReadFormat)
		}
	}
}

func TestAddBook_Errors(t *testing.T) {
	users, lib := setupLibraryTest(t)
	ctx := context.Background()
	_, err := users.CreateUser(ctx, models.CreateUserRequest{Username: "alice"})
	require.NoError(t, err)

	_, err = lib.AddBook(ctx, "alice", &models.Book{ISBN: "111"})
	require.NoError(t, err)

	_, err = lib.AddBook(ctx, "alice", &models.Book{ISBN: "111"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = lib.AddBook(ctx, "alice", &models.Book{ISBN: "333", ReadStatus: models.StatusRead})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = lib.AddBook(ctx, "alice", &models.Book{
		ISBN:       "555",
		PageCount:  300,
		ReadStatus: models.StatusRead,
		Period:     models.RangePeriod{Start: models.NewDate(2024, time.February, 1)},
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "finished range needs an end date")

	_, err = lib.AddBook(ctx, "ghost", &models.Book{ISBN: "444"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateBook_FinishesReading(t *testing.T) {
	users, lib := setupLibraryTest(t)
	ctx := context.Background()
	_, err := users.CreateUser(ctx, models.CreateUserRequest{Username: "alice"})
	require.NoError(t, err)

	start := models.NewDate(2024, time.March, 1)
	added, err := lib.AddBook(ctx, "alice", &models.Book{
		ISBN:       "777",
		PageCount:  250,
		ReadStatus: models.StatusReading,
		Period:     models.RangePeriod{Start: start},
	})
	require.NoError(t, err)

	read := models.StatusRead
	end := models.NewDate(2024, time.March, 20)
	updated, err := lib.UpdateBook(ctx, "alice", "777", models.BookUpdate{ReadStatus: &read, EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, added.ID, updated.ID)

	books, err := lib.ListBooks(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, models.StatusRead, books[0].ReadStatus)
	r, ok := books[0].Period.(models.RangePeriod)
	require.True(t, ok)
	assert.Equal(t, start, r.Start)
	require.NotNil(t, r.End)
	assert.Equal(t, end, *r.End)

	year := 2019
	updated, err = lib.UpdateBook(ctx, "alice", "777", models.BookUpdate{DateFormat: models.DateFormatYear, ReadYear: &year})
	require.NoError(t, err)
	assert.Equal(t, models.YearPeriod{Year: 2019}, updated.Period)
}

func TestUpdateBook_Errors(t *testing.T) {
	users, lib := setupLibraryTest(t)
	ctx := context.Background()
	_, err := users.CreateUser(ctx, models.CreateUserRequest{Username: "alice"})
	require.NoError(t, err)
	_, err = lib.AddBook(ctx, "alice", &models.Book{
		ISBN:       "777",
		ReadStatus: models.StatusReading,
		Period:     models.RangePeriod{Start: models.NewDate(2024, time.March, 1)},
	})
	require.NoError(t, err)

	read := models.StatusRead
	_, err = lib.UpdateBook(ctx, "alice", "777", models.BookUpdate{ReadStatus: &read})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "read without an end date")

	before := models.NewDate(2024, time.February, 1)
	_, err = lib.UpdateBook(ctx, "alice", "777", models.BookUpdate{ReadStatus: &read, EndDate: &before})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "end before start")

	year := 2020
	_, err = lib.UpdateBook(ctx, "alice", "777", models.BookUpdate{ReadYear: &year})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "readYear without dateFormat")

	_, err = lib.UpdateBook(ctx, "alice", "999", models.BookUpdate{ReadStatus: &read})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = lib.UpdateBook(ctx, "ghost", "777", models.BookUpdate{ReadStatus: &read})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	// Failed updates leave the entry as it was.
	books, err := lib.ListBooks(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReading, books[0].ReadStatus)
}

func TestHandler_AddBookAndUserInfo(t *testing.T) {
	users, lib := setupLibraryTest(t)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := library.NewHandler(users, lib)
	router.POST("/users", h.CreateUser)
	router.GET("/userinfo", h.GetUserInfo)
	router.POST("/books", h.AddBook)
	router.GET("/books", h.ListBooks)

	send := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	if resp := send("POST", "/users", `{"username":"alice","darkMode":true}`); resp.Code != 201 {
		t.Fatalf("create user: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if resp := send("POST", "/users", `{"username":"alice"}`); resp.Code != 409 {
		t.Fatalf("duplicate user: expected 409, got %d", resp.Code)
	}
	if resp := send("POST", "/users", `{}`); resp.Code != 400 {
		t.Fatalf("missing username: expected 400, got %d", resp.Code)
	}

	resp := send("GET", "/userinfo?username=alice", "")
	if resp.Code != 200 || resp.Body.String() != `{"username":"alice","imageUrl":"","darkMode":true}` {
		t.Fatalf("userinfo: unexpected %d %s", resp.Code, resp.Body.String())
	}
	if resp := send("GET", "/userinfo?username=ghost", ""); resp.Code != 404 {
		t.Fatalf("unknown userinfo: expected 404, got %d", resp.Code)
	}

	book := `{"username":"alice","isbn":"9780","title":"Emma","pageCount":400,"readStatus":"reading","dateFormat":"date","startDate":"2024-01-02"}`
	if resp := send("POST", "/books", book); resp.Code != 201 {
		t.Fatalf("add book: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if resp := send("POST", "/books", book); resp.Code != 409 {
		t.Fatalf("duplicate book: expected 409, got %d", resp.Code)
	}
	if resp := send("POST", "/books", `{"username":"alice","isbn":"1","dateFormat":"year"}`); resp.Code != 400 {
		t.Fatalf("year without readYear: expected 400, got %d", resp.Code)
	}
	if resp := send("POST", "/books", `{"isbn":"1"}`); resp.Code != 400 {
		t.Fatalf("missing username: expected 400, got %d", resp.Code)
	}

	resp = send("GET", "/books?username=alice", "")
	if resp.Code != 200 || !strings.Contains(resp.Body.String(), `"startDate":"2024-01-02"`) {
		t.Fatalf("list books: unexpected %d %s", resp.Code, resp.Body.String())
	}
}
