package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shelfmates/bookshelf/internal/apperr"
	"github.com/shelfmates/bookshelf/pkg/database"
	"github.com/shelfmates/bookshelf/pkg/logger"
	"github.com/shelfmates/bookshelf/pkg/models"
)

const BookColumns = `id, user_id, isbn, title, authors, published_date, thumbnail, description,
	page_count, ebook_page_count, audio_length, read_status, read_format, current_page,
	date_format, read_year, start_date, end_date, created_at`

// Library is the per-user book store.
type Library struct {
	db  *database.Conn
	log *logger.Logger
}

func NewLibrary(db *database.Conn) *Library {
	return &Library{
		db:  db,
		log: logger.GetLogger().WithContext("component", "library"),
	}
}

// AddBook stores book as a new entry in username's library.
func (l *Library) AddBook(ctx context.Context, username string, book *models.Book) (*models.Book, error) {
	user, err := FindUserByUsername(ctx, l.db, username)
	if err != nil {
		return nil, err
	}

	book.ApplyDefaults()
	if err := book.Validate(); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	book.ID = uuid.New().String()
	book.UserID = user.ID
	book.CreatedAt = time.Now().UTC()

	inserted, err := InsertBook(ctx, l.db, book)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, apperr.Conflict("Book with ISBN %s is already in the library", book.ISBN)
	}

	l.log.Info("book_added", "user_id", user.ID, "book_id", book.ID, "isbn", book.ISBN)
	return book, nil
}

func (l *Library) ListBooks(ctx context.Context, username string) ([]models.Book, error) {
	user, err := FindUserByUsername(ctx, l.db, username)
	if err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT `+BookColumns+` FROM books WHERE user_id = ? ORDER BY created_at DESC`, user.ID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list books: %w", err))
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		b, err := ScanBook(rows)
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

// InsertBook writes book unless its owner already has an entry with the same
// ISBN, in which case it reports false and writes nothing.
func InsertBook(ctx context.Context, q database.Querier, b *models.Book) (bool, error) {
	authors := b.Authors
	if authors == nil {
		authors = []string{}
	}
	authorsJSON, err := json.Marshal(authors)
	if err != nil {
		return false, apperr.Internal(err)
	}

	dateFormat, readYear, startDate, endDate := periodColumns(b.Period)
	res, err := q.ExecContext(ctx, `
		INSERT INTO books (id, user_id, isbn, title, authors, published_date, thumbnail, description,
			page_count, ebook_page_count, audio_length, read_status, read_format, current_page,
			date_format, read_year, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, isbn) DO NOTHING`,
		b.ID, b.UserID, b.ISBN, b.Title, string(authorsJSON), b.PublishedDate, b.Thumbnail, b.Description,
		b.PageCount, nullInt(b.EbookPageCount), nullInt(b.AudioLength), string(b.ReadStatus), string(b.ReadFormat),
		nullInt(b.CurrentPage), dateFormat, readYear, startDate, endDate, b.CreatedAt)
	if err != nil {
		return false, apperr.Internal(fmt.Errorf("insert book: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Internal(err)
	}
	return n == 1, nil
}

// UpdateBook applies update to username's entry for isbn.
func (l *Library) UpdateBook(ctx context.Context, username, isbn string, update models.BookUpdate) (*models.Book, error) {
	var book *models.Book
	err := l.db.WithTx(ctx, func(tx *database.Tx) error {
		user, err := FindUserByUsername(ctx, tx, username)
		if err != nil {
			return err
		}
		row := tx.QueryRowContext(ctx,
			`SELECT `+BookColumns+` FROM books WHERE user_id = ? AND isbn = ?`+l.db.ForUpdate(), user.ID, isbn)
		b, err := ScanBook(row)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("Book with ISBN %s is not in the library", isbn)
		}
		if err != nil {
			return apperr.Internal(err)
		}

		if err := update.Apply(b); err != nil {
			return apperr.Validation("%s", err.Error())
		}
		if err := b.Validate(); err != nil {
			return apperr.Validation("%s", err.Error())
		}

		dateFormat, readYear, startDate, endDate := periodColumns(b.Period)
		if _, err := tx.ExecContext(ctx, `
			UPDATE books SET read_status = ?, page_count = ?, current_page = ?,
				date_format = ?, read_year = ?, start_date = ?, end_date = ?
			WHERE id = ?`,
			string(b.ReadStatus), b.PageCount, nullInt(b.CurrentPage),
			dateFormat, readYear, startDate, endDate, b.ID); err != nil {
			return apperr.Internal(fmt.Errorf("update book %s: %w", b.ID, err))
		}
		book = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.log.Info("book_updated", "user_id", book.UserID, "book_id", book.ID, "read_status", book.ReadStatus)
	return book, nil
}

func FindBookByID(ctx context.Context, q database.Querier, id string) (*models.Book, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+BookColumns+` FROM books WHERE id = ?`, id)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load book %s: %w", id, err))
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, apperr.Internal(err)
		}
		return nil, apperr.NotFound("Book not found")
	}
	b, err := ScanBook(rows)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return b, nil
}

// FindBookByISBN returns userID's entry for isbn, or nil if there is none.
func FindBookByISBN(ctx context.Context, q database.Querier, userID, isbn string) (*models.Book, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+BookColumns+` FROM books WHERE user_id = ? AND isbn = ?`, userID, isbn)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load book by isbn: %w", err))
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, apperr.Internal(err)
		}
		return nil, nil
	}
	b, err := ScanBook(rows)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return b, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// ScanBook reads one row selected with BookColumns.
func ScanBook(row scanner) (*models.Book, error) {
	var (
		b                                   models.Book
		authorsJSON, readStatus, readFormat string
		ebookPages, audioLength, current    sql.NullInt64
		dateFormat, startDate, endDate      sql.NullString
		readYear                            sql.NullInt64
	)
	err := row.Scan(&b.ID, &b.UserID, &b.ISBN, &b.Title, &authorsJSON, &b.PublishedDate, &b.Thumbnail,
		&b.Description, &b.PageCount, &ebookPages, &audioLength, &readStatus, &readFormat, &current,
		&dateFormat, &readYear, &startDate, &endDate, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan book: %w", err)
	}

	if authorsJSON != "" {
		if err := json.Unmarshal([]byte(authorsJSON), &b.Authors); err != nil {
			return nil, fmt.Errorf("decode authors of book %s: %w", b.ID, err)
		}
	}
	b.ReadStatus = models.ReadStatus(readStatus)
	b.ReadFormat = models.ReadFormat(readFormat)
	b.EbookPageCount = intPtr(ebookPages)
	b.AudioLength = intPtr(audioLength)
	b.CurrentPage = intPtr(current)

	switch models.DateFormat(dateFormat.String) {
	case models.DateFormatYear:
		if !readYear.Valid {
			return nil, fmt.Errorf("book %s: year format without read_year", b.ID)
		}
		b.Period = models.YearPeriod{Year: int(readYear.Int64)}
	case models.DateFormatDate:
		if !startDate.Valid {
			return nil, fmt.Errorf("book %s: date format without start_date", b.ID)
		}
		start, err := models.ParseDate(startDate.String)
		if err != nil {
			return nil, fmt.Errorf("book %s: %w", b.ID, err)
		}
		r := models.RangePeriod{Start: start}
		if endDate.Valid {
			end, err := models.ParseDate(endDate.String)
			if err != nil {
				return nil, fmt.Errorf("book %s: %w", b.ID, err)
			}
			r.End = &end
		}
		b.Period = r
	case "":
	default:
		return nil, fmt.Errorf("book %s: unknown date_format %q", b.ID, dateFormat.String)
	}
	return &b, nil
}

func periodColumns(p models.ReadPeriod) (dateFormat sql.NullString, readYear sql.NullInt64, startDate, endDate sql.NullString) {
	switch p := p.(type) {
	case models.YearPeriod:
		dateFormat = sql.NullString{String: string(models.DateFormatYear), Valid: true}
		readYear = sql.NullInt64{Int64: int64(p.Year), Valid: true}
	case models.RangePeriod:
		dateFormat = sql.NullString{String: string(models.DateFormatDate), Valid: true}
		startDate = sql.NullString{String: p.Start.String(), Valid: true}
		if p.End != nil {
			endDate = sql.NullString{String: p.End.String(), Valid: true}
		}
	}
	return dateFormat, readYear, startDate, endDate
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
