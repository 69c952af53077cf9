package bookclub

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shelfmates/bookshelf/internal/apperr"
	"github.com/shelfmates/bookshelf/internal/library"
	"github.com/shelfmates/bookshelf/pkg/database"
	"github.com/shelfmates/bookshelf/pkg/logger"
	"github.com/shelfmates/bookshelf/pkg/metrics"
	"github.com/shelfmates/bookshelf/pkg/models"
)

const clubColumns = `id, name, book_id, admin_id, start_date, end_date, created_at`

// Service manages book clubs, their members, each member's personal copy of
// the club's book, and the club message board.
type Service struct {
	db          *database.Conn
	log         *logger.Logger
	searchLimit int
	now         func() time.Time
}

func NewService(db *database.Conn, searchLimit int) *Service {
	if searchLimit <= 0 {
		searchLimit = 10
	}
	return &Service{
		db:          db,
		log:         logger.GetLogger().WithContext("component", "bookclub_service"),
		searchLimit: searchLimit,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create starts a club around an existing book with the admin as its only member.
func (s *Service) Create(ctx context.Context, req models.CreateBookClubRequest) (*models.BookClub, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if req.BookID == "" {
		return nil, apperr.Validation("bookId is required")
	}
	if req.StartDate.IsZero() {
		return nil, apperr.Validation("startDate is required")
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, apperr.Validation("endDate is before startDate")
	}

	var club *models.BookClub
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		admin, err := library.FindUserByUsername(ctx, tx, req.Username)
		if err != nil {
			return err
		}
		book, err := library.FindBookByID(ctx, tx, req.BookID)
		if err != nil {
			return err
		}

		now := s.now()
		club = &models.BookClub{
			ID:        uuid.New().String(),
			Name:      name,
			BookID:    book.ID,
			AdminID:   admin.ID,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			CreatedAt: now,
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO book_clubs (id, name, book_id, admin_id, start_date, end_date, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			club.ID, club.Name, club.BookID, club.AdminID, club.StartDate.String(), nullDate(club.EndDate), club.CreatedAt); err != nil {
			return apperr.Internal(fmt.Errorf("insert book club: %w", err))
		}
		return addMember(ctx, tx, club.ID, admin.ID, now)
	})
	if err != nil {
		return nil, apperr.Classify(err)
	}

	metrics.IncrementClubsCreated()
	s.log.Info("book_club_created", "club_id", club.ID, "name", club.Name, "admin_id", club.AdminID, "book_id", club.BookID)
	return club, nil
}

// Join adds username to the club called clubName and provisions the member's
// personal copy of the club's book in the same transaction.
func (s *Service) Join(ctx context.Context, username, clubName string) (*models.JoinResult, error) {
	if strings.TrimSpace(clubName) == "" {
		return nil, apperr.Validation("bookClubName is required")
	}

	var result models.JoinResult
	var userID string
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		user, err := library.FindUserByUsername(ctx, tx, username)
		if err != nil {
			return err
		}
		club, err := s.findClubByName(ctx, tx, clubName)
		if err != nil {
			return err
		}
		member, err := isMember(ctx, tx, club.ID, user.ID)
		if err != nil {
			return err
		}
		if member {
			return apperr.Conflict("%s is already a member of %s", user.Username, club.Name)
		}
		if err := addMember(ctx, tx, club.ID, user.ID, s.now()); err != nil {
			return err
		}

		canonical, err := library.FindBookByID(ctx, tx, club.BookID)
		if err != nil {
			return err
		}
		personal, created, err := s.ensurePersonalCopy(ctx, tx, user, club, canonical)
		if err != nil {
			return err
		}

		userID = user.ID
		result = models.JoinResult{BookClub: club, Book: personal, CopyCreated: created}
		return nil
	})
	if err != nil {
		return nil, apperr.Classify(err)
	}

	metrics.IncrementClubJoins()
	if result.CopyCreated {
		metrics.IncrementPersonalCopies()
	}
	s.log.Info("book_club_joined",
		"club_id", result.BookClub.ID,
		"user_id", userID,
		"copy_created", result.CopyCreated,
	)
	return &result, nil
}

// CheckMembership reports the most recently joined club of username. A member
// found without a personal copy gets one provisioned on the spot.
func (s *Service) CheckMembership(ctx context.Context, username string) (*models.Membership, error) {
	user, err := library.FindUserByUsername(ctx, s.db, username)
	if err != nil {
		return nil, err
	}

	var clubID string
	err = s.db.QueryRowContext(ctx,
		`SELECT club_id FROM book_club_members WHERE user_id = ? ORDER BY joined_at DESC, club_id LIMIT 1`,
		user.ID).Scan(&clubID)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.Membership{IsMember: false}, nil
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load membership: %w", err))
	}

	club, err := s.findClubByID(ctx, s.db, clubID)
	if err != nil {
		return nil, err
	}
	out := &models.Membership{IsMember: true, BookClub: club}

	canonical, err := library.FindBookByID(ctx, s.db, club.BookID)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}
	if canonical != nil {
		out.CanonicalBook = canonical
		personal, err := library.FindBookByISBN(ctx, s.db, user.ID, canonical.ISBN)
		if err != nil {
			return nil, err
		}
		if personal == nil {
			personal, out.Provisioned, err = s.provision(ctx, user, club.ID)
			if err != nil {
				s.log.Warn("personal_copy_recovery_failed", "club_id", club.ID, "user_id", user.ID, "error", err.Error())
				personal, out.Provisioned = nil, false
			}
		}
		out.Book = personal
	}

	if out.Members, err = members(ctx, s.db, club.ID); err != nil {
		return nil, err
	}
	if out.MessageBoard, err = s.messages(ctx, s.db, club.ID); err != nil {
		return nil, err
	}
	return out, nil
}

// EnsurePersonalCopy provisions username's copy of the club's book if the
// member does not own one yet. It is safe to call any number of times.
func (s *Service) EnsurePersonalCopy(ctx context.Context, username, clubID string) (*models.Book, bool, error) {
	user, err := library.FindUserByUsername(ctx, s.db, username)
	if err != nil {
		return nil, false, err
	}
	return s.provision(ctx, user, clubID)
}

func (s *Service) provision(ctx context.Context, user *models.User, clubID string) (*models.Book, bool, error) {
	var book *models.Book
	var created bool
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		club, err := s.findClubByID(ctx, tx, clubID)
		if err != nil {
			return err
		}
		member, err := isMember(ctx, tx, club.ID, user.ID)
		if err != nil {
			return err
		}
		if !member {
			return apperr.NotFound("%s is not a member of %s", user.Username, club.Name)
		}
		canonical, err := library.FindBookByID(ctx, tx, club.BookID)
		if err != nil {
			return err
		}
		book, created, err = s.ensurePersonalCopy(ctx, tx, user, club, canonical)
		return err
	})
	if err != nil {
		return nil, false, apperr.Classify(err)
	}
	if created {
		metrics.IncrementPersonalCopies()
		s.log.Info("personal_copy_provisioned", "club_id", clubID, "user_id", user.ID, "book_id", book.ID)
	}
	return book, created, nil
}

// ensurePersonalCopy returns the member's entry for the canonical book's ISBN,
// creating it from the canonical book when missing. The bool reports whether
// a new entry was written.
func (s *Service) ensurePersonalCopy(ctx context.Context, tx *database.Tx, user *models.User, club *models.BookClub, canonical *models.Book) (*models.Book, bool, error) {
	existing, err := library.FindBookByISBN(ctx, tx, user.ID, canonical.ISBN)
	if err != nil || existing != nil {
		return existing, false, err
	}

	page := 0
	personal := &models.Book{
		ID:             uuid.New().String(),
		UserID:         user.ID,
		ISBN:           canonical.ISBN,
		Title:          canonical.Title,
		Authors:        append([]string(nil), canonical.Authors...),
		PublishedDate:  canonical.PublishedDate,
		Thumbnail:      canonical.Thumbnail,
		Description:    canonical.Description,
		PageCount:      canonical.PageCount,
		EbookPageCount: canonical.EbookPageCount,
		AudioLength:    canonical.AudioLength,
		ReadStatus:     models.StatusReading,
		ReadFormat:     canonical.ReadFormat,
		CurrentPage:    &page,
		Period:         models.RangePeriod{Start: club.StartDate},
		CreatedAt:      s.now(),
	}
	if personal.ReadFormat == "" {
		personal.ReadFormat = models.FormatPhysical
	}

	inserted, err := library.InsertBook(ctx, tx, personal)
	if err != nil {
		return nil, false, err
	}
	if !inserted {
		existing, err := library.FindBookByISBN(ctx, tx, user.ID, canonical.ISBN)
		return existing, false, err
	}
	return personal, true, nil
}

// PostMessage appends text to the club's message board and returns the
// whole board in posting order.
func (s *Service) PostMessage(ctx context.Context, clubID, username, text string) ([]models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("message is required")
	}

	var userID string
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		var id string
		err := tx.QueryRowContext(ctx, `SELECT id FROM book_clubs WHERE id = ?`+s.db.ForUpdate(), clubID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("Book club not found")
		}
		if err != nil {
			return apperr.Internal(fmt.Errorf("lock book club: %w", err))
		}
		user, err := library.FindUserByUsername(ctx, tx, username)
		if err != nil {
			return err
		}
		userID = user.ID

		var lastSeq int64
		var lastAt time.Time
		err = tx.QueryRowContext(ctx,
			`SELECT seq, posted_at FROM book_club_messages WHERE club_id = ? ORDER BY seq DESC LIMIT 1`,
			clubID).Scan(&lastSeq, &lastAt)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return apperr.Internal(fmt.Errorf("load last message: %w", err))
		}

		postedAt := s.now()
		if postedAt.Before(lastAt) {
			postedAt = lastAt
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO book_club_messages (id, club_id, seq, user_id, message, posted_at) VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), clubID, lastSeq+1, user.ID, text, postedAt)
		if database.IsUniqueViolation(err) {
			return database.ErrRetry
		}
		if err != nil {
			return apperr.Internal(fmt.Errorf("insert message: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Classify(err)
	}

	metrics.IncrementMessagesPosted()
	s.log.Info("book_club_message_posted", "club_id", clubID, "user_id", userID)
	return s.Messages(ctx, clubID)
}

// Messages returns the club's message board in posting order.
func (s *Service) Messages(ctx context.Context, clubID string) ([]models.Message, error) {
	if _, err := s.findClubByID(ctx, s.db, clubID); err != nil {
		return nil, err
	}
	return s.messages(ctx, s.db, clubID)
}

func (s *Service) messages(ctx context.Context, q database.Querier, clubID string) ([]models.Message, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT m.id, m.club_id, m.seq, m.message, m.posted_at, u.id, u.username, u.image_url
		FROM book_club_messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.club_id = ?
		ORDER BY m.seq`, clubID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list messages: %w", err))
	}
	defer rows.Close()

	board := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ClubID, &m.Seq, &m.Message, &m.PostedAt,
			&m.PostedBy.ID, &m.PostedBy.Username, &m.PostedBy.ImageURL); err != nil {
			return nil, apperr.Internal(err)
		}
		board = append(board, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return board, nil
}

// SearchClubs does a bounded, case-insensitive prefix search on club names.
func (s *Service) SearchClubs(ctx context.Context, prefix string) ([]models.ClubSummary, error) {
	prefix = strings.TrimSpace(prefix)
	results := []models.ClubSummary{}
	if prefix == "" {
		return results, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, COALESCE(b.title, ''), COUNT(m.user_id)
		FROM book_clubs c
		LEFT JOIN books b ON b.id = c.book_id
		LEFT JOIN book_club_members m ON m.club_id = c.id
		WHERE LOWER(c.name) LIKE ? ESCAPE '\'
		GROUP BY c.id, c.name, b.title
		ORDER BY c.name
		LIMIT ?`,
		database.EscapeLike(strings.ToLower(prefix))+"%", s.searchLimit)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("search book clubs: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		var c models.ClubSummary
		if err := rows.Scan(&c.ID, &c.Name, &c.BookTitle, &c.MemberCount); err != nil {
			return nil, apperr.Internal(err)
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return results, nil
}

// findClubByName resolves a join key. Names are not unique; the oldest club
// with the exact name wins.
func (s *Service) findClubByName(ctx context.Context, q database.Querier, name string) (*models.BookClub, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+clubColumns+` FROM book_clubs WHERE name = ? ORDER BY created_at, id LIMIT 1`, name)
	club, err := scanClub(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Book club %q not found", name)
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load book club: %w", err))
	}
	return club, nil
}

func (s *Service) findClubByID(ctx context.Context, q database.Querier, id string) (*models.BookClub, error) {
	club, err := scanClub(q.QueryRowContext(ctx, `SELECT `+clubColumns+` FROM book_clubs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("Book club not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load book club: %w", err))
	}
	return club, nil
}

func scanClub(row *sql.Row) (*models.BookClub, error) {
	var c models.BookClub
	var start string
	var end sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &c.BookID, &c.AdminID, &start, &end, &c.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if c.StartDate, err = models.ParseDate(start); err != nil {
		return nil, err
	}
	if end.Valid {
		d, err := models.ParseDate(end.String)
		if err != nil {
			return nil, err
		}
		c.EndDate = &d
	}
	return &c, nil
}

func addMember(ctx context.Context, q database.Querier, clubID, userID string, at time.Time) error {
	res, err := q.ExecContext(ctx,
		`INSERT INTO book_club_members (club_id, user_id, joined_at) VALUES (?, ?, ?)
		 ON CONFLICT (club_id, user_id) DO NOTHING`, clubID, userID, at)
	if err != nil {
		return apperr.Internal(fmt.Errorf("insert member: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Conflict("Already a member of this book club")
	}
	return nil
}

func isMember(ctx context.Context, q database.Querier, clubID, userID string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM book_club_members WHERE club_id = ? AND user_id = ?`, clubID, userID).Scan(&n)
	if err != nil {
		return false, apperr.Internal(fmt.Errorf("check membership: %w", err))
	}
	return n > 0, nil
}

func members(ctx context.Context, q database.Querier, clubID string) ([]models.UserSummary, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT u.id, u.username, u.image_url
		FROM book_club_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.club_id = ?
		ORDER BY m.joined_at, u.username`, clubID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list members: %w", err))
	}
	defer rows.Close()

	list := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.ImageURL); err != nil {
			return nil, apperr.Internal(err)
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return list, nil
}

func nullDate(d *models.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}
