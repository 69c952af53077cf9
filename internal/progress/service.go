package progress

import (
	"context"
	"fmt"

	"github.com/shelfmates/bookshelf/internal/apperr"
	"github.com/shelfmates/bookshelf/internal/library"
	"github.com/shelfmates/bookshelf/pkg/database"
	"github.com/shelfmates/bookshelf/pkg/logger"
	"github.com/shelfmates/bookshelf/pkg/models"
)

// Contribution is one book's share of a yearly total.
type Contribution struct {
	BookID string `json:"bookId"`
	ISBN   string `json:"isbn"`
	Title  string `json:"title"`
	Pages  int    `json:"pages"`
}

type Report struct {
	Year       int            `json:"year"`
	TotalPages int            `json:"totalPages"`
	Books      []Contribution `json:"books"`
}

// Aggregator computes yearly reading totals. It never writes.
type Aggregator struct {
	db  *database.Conn
	log *logger.Logger
}

func NewAggregator(db *database.Conn) *Aggregator {
	return &Aggregator{
		db:  db,
		log: logger.GetLogger().WithContext("component", "progress_aggregator"),
	}
}

// PagesReadInYear returns the pages username read during year.
func (a *Aggregator) PagesReadInYear(ctx context.Context, username string, year int) (int, error) {
	report, err := a.Report(ctx, username, year)
	if err != nil {
		return 0, err
	}
	return report.TotalPages, nil
}

func (a *Aggregator) Report(ctx context.Context, username string, year int) (*Report, error) {
	user, err := library.FindUserByUsername(ctx, a.db, username)
	if err != nil {
		return nil, err
	}

	books, err := a.candidates(ctx, user.ID, year)
	if err != nil {
		return nil, err
	}

	report := &Report{Year: year, Books: []Contribution{}}
	for i := range books {
		pages := PagesForBook(&books[i], year)
		if pages == 0 {
			continue
		}
		report.TotalPages += pages
		report.Books = append(report.Books, Contribution{
			BookID: books[i].ID,
			ISBN:   books[i].ISBN,
			Title:  books[i].Title,
			Pages:  pages,
		})
	}

	a.log.Debug("pages_read_computed", "user_id", user.ID, "year", year, "candidates", len(books), "total_pages", report.TotalPages)
	return report, nil
}

// candidates selects the books whose reading period can overlap year.
func (a *Aggregator) candidates(ctx context.Context, userID string, year int) ([]models.Book, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT `+library.BookColumns+` FROM books
		WHERE user_id = ?
		  AND ((date_format = ? AND read_year = ?)
		    OR (date_format = ? AND end_date IS NOT NULL AND start_date <= ? AND end_date >= ?))`,
		userID,
		string(models.DateFormatYear), year,
		string(models.DateFormatDate), models.YearEnd(year).String(), models.YearStart(year).String())
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("select candidate books: %w", err))
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		b, err := library.ScanBook(rows)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return books, nil
}
