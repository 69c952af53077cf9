package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shelfmates/bookshelf/internal/apperr"
	"github.com/shelfmates/bookshelf/pkg/database"
	"github.com/shelfmates/bookshelf/pkg/logger"
	"github.com/shelfmates/bookshelf/pkg/models"
)

const userColumns = `id, username, image_url, dark_mode, created_at`

// Directory owns user records.
type Directory struct {
	db          *database.Conn
	log         *logger.Logger
	searchLimit int
}

func NewDirectory(db *database.Conn, searchLimit int) *Directory {
	if searchLimit <= 0 {
		searchLimit = 10
	}
	return &Directory{
		db:          db,
		log:         logger.GetLogger().WithContext("component", "user_directory"),
		searchLimit: searchLimit,
	}
}

func (d *Directory) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, apperr.Validation("username is required")
	}

	u := &models.User{
		ID:        uuid.New().String(),
		Username:  username,
		ImageURL:  req.ImageURL,
		DarkMode:  req.DarkMode,
		CreatedAt: time.Now().UTC(),
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO users (id, username, image_url, dark_mode, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.ImageURL, u.DarkMode, u.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("Username already exists")
		}
		return nil, apperr.Internal(fmt.Errorf("insert user: %w", err))
	}

	d.log.Info("user_created", "user_id", u.ID, "username", u.Username)
	return u, nil
}

func (d *Directory) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return FindUserByUsername(ctx, d.db, username)
}

// Search returns users whose username starts with prefix, ignoring case.
func (d *Directory) Search(ctx context.Context, prefix string) ([]models.UserSummary, error) {
	prefix = strings.TrimSpace(prefix)
	results := []models.UserSummary{}
	if prefix == "" {
		return results, nil
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, username, image_url FROM users
		 WHERE LOWER(username) LIKE ? ESCAPE '\'
		 ORDER BY username LIMIT ?`,
		database.EscapeLike(strings.ToLower(prefix))+"%", d.searchLimit)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("search users: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		var s models.UserSummary
		if err := rows.Scan(&s.ID, &s.Username, &s.ImageURL); err != nil {
			return nil, apperr.Internal(fmt.Errorf("scan user: %w", err))
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return results, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.ImageURL, &u.DarkMode, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindUserByUsername loads a user, returning a NotFound error if none exists.
func FindUserByUsername(ctx context.Context, q database.Querier, username string) (*models.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, apperr.Validation("username is required")
	}
	u, err := scanUser(q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("User %q not found", username)
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load user %s: %w", username, err))
	}
	return u, nil
}

func FindUserByID(ctx context.Context, q database.Querier, id string) (*models.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load user %s: %w", id, err))
	}
	return u, nil
}

// FindUserByRef resolves ref as a user ID first, then as a username.
func FindUserByRef(ctx context.Context, q database.Querier, ref string) (*models.User, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, apperr.Validation("user reference is required")
	}
	u, err := FindUserByID(ctx, q, ref)
	if apperr.Is(err, apperr.KindNotFound) {
		return FindUserByUsername(ctx, q, ref)
	}
	return u, err
}
