package friends

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shelfmates/bookshelf/internal/apperr"
	"github.com/shelfmates/bookshelf/internal/library"
	"github.com/shelfmates/bookshelf/pkg/database"
	"github.com/shelfmates/bookshelf/pkg/logger"
	"github.com/shelfmates/bookshelf/pkg/metrics"
	"github.com/shelfmates/bookshelf/pkg/models"
)

// Service drives the friend-request state machine. Each unordered pair of
// users has at most one friendships row, so both users always see the same
// relationship state.
type Service struct {
	db  *database.Conn
	log *logger.Logger
	now func() time.Time
}

func NewService(db *database.Conn) *Service {
	return &Service{
		db:  db,
		log: logger.GetLogger().WithContext("component", "friend_service"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// SendResult describes the outcome of SendRequest. Mutual is set when the
// target had already asked the sender, which turns the pair into friends.
type SendResult struct {
	Status models.FriendshipStatus `json:"status"`
	Mutual bool                    `json:"mutual"`
}

func (s *Service) SendRequest(ctx context.Context, fromUsername, toUsername string) (*SendResult, error) {
	fromUsername = strings.TrimSpace(fromUsername)
	toUsername = strings.TrimSpace(toUsername)
	if fromUsername == "" || toUsername == "" {
		return nil, apperr.Validation("fromUsername and toUsername are required")
	}
	if fromUsername == toUsername {
		return nil, apperr.Validation("cannot send a friend request to yourself")
	}

	var result SendResult
	var fromID, toID string
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		from, err := library.FindUserByUsername(ctx, tx, fromUsername)
		if err != nil {
			return err
		}
		to, err := library.FindUserByUsername(ctx, tx, toUsername)
		if err != nil {
			return err
		}
		fromID, toID = from.ID, to.ID

		edge, err := s.loadEdge(ctx, tx, from.ID, to.ID)
		if err != nil {
			return err
		}
		now := s.now()

		switch {
		case edge == nil:
			low, high := models.PairKey(from.ID, to.ID)
			res, err := tx.ExecContext(ctx,
				`INSERT INTO friendships (user_low, user_high, requester_id, status, requested_at)
				 VALUES (?, ?, ?, ?, ?) ON CONFLICT (user_low, user_high) DO NOTHING`,
				low, high, from.ID, string(models.FriendshipPending), now)
			if err != nil {
				return apperr.Internal(fmt.Errorf("insert friend request: %w", err))
			}
			if n, _ := res.RowsAffected(); n == 0 {
				// A concurrent request created the row first; re-read it.
				return database.ErrRetry
			}
			result = SendResult{Status: models.FriendshipPending}

		case edge.Status == models.FriendshipAccepted:
			return apperr.Conflict("Already friends with %s", to.Username)

		case edge.Status == models.FriendshipPending && edge.RequesterID == from.ID:
			return apperr.Conflict("Friend request already sent to %s", to.Username)

		case edge.Status == models.FriendshipPending:
			if err := s.transition(ctx, tx, edge, models.FriendshipPending, models.FriendshipAccepted, edge.RequesterID, now); err != nil {
				return err
			}
			result = SendResult{Status: models.FriendshipAccepted, Mutual: true}

		default:
			if err := s.transition(ctx, tx, edge, models.FriendshipDeclined, models.FriendshipPending, from.ID, now); err != nil {
				return err
			}
			result = SendResult{Status: models.FriendshipPending}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Classify(err)
	}

	if result.Mutual {
		metrics.IncrementFriendshipsAccepted()
		s.log.Info("friend_request_mutual_accept", "from_user_id", fromID, "to_user_id", toID)
	} else {
		metrics.IncrementFriendRequestsSent()
		s.log.Info("friend_request_sent", "from_user_id", fromID, "to_user_id", toID)
	}
	return &result, nil
}

// Accept turns requester's pending request to username into a friendship.
func (s *Service) Accept(ctx context.Context, username, requesterRef string) (*models.UserSummary, error) {
	var friend models.UserSummary
	var userID string
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		user, requester, edge, err := s.loadPendingRequest(ctx, tx, username, requesterRef)
		if err != nil {
			return err
		}
		if err := s.transition(ctx, tx, edge, models.FriendshipPending, models.FriendshipAccepted, requester.ID, s.now()); err != nil {
			return err
		}
		friend = requester.Summary()
		userID = user.ID
		return nil
	})
	if err != nil {
		return nil, apperr.Classify(err)
	}

	metrics.IncrementFriendshipsAccepted()
	s.log.Info("friend_request_accepted", "user_id", userID, "requester_id", friend.ID)
	return &friend, nil
}

// Decline rejects requester's pending request. The row is kept as declined so
// the requester may ask again later.
func (s *Service) Decline(ctx context.Context, username, requesterRef string) error {
	var userID, requesterID string
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		user, requester, edge, err := s.loadPendingRequest(ctx, tx, username, requesterRef)
		if err != nil {
			return err
		}
		userID, requesterID = user.ID, requester.ID
		return s.transition(ctx, tx, edge, models.FriendshipPending, models.FriendshipDeclined, requester.ID, s.now())
	})
	if err != nil {
		return apperr.Classify(err)
	}

	metrics.IncrementFriendRequestsDeclined()
	s.log.Info("friend_request_declined", "user_id", userID, "requester_id", requesterID)
	return nil
}

func (s *Service) loadPendingRequest(ctx context.Context, tx *database.Tx, username, requesterRef string) (*models.User, *models.User, *models.Friendship, error) {
	user, err := library.FindUserByUsername(ctx, tx, username)
	if err != nil {
		return nil, nil, nil, err
	}
	requester, err := library.FindUserByRef(ctx, tx, requesterRef)
	if err != nil {
		return nil, nil, nil, err
	}
	if requester.ID == user.ID {
		return nil, nil, nil, apperr.Validation("cannot respond to your own friend request")
	}

	edge, err := s.loadEdge(ctx, tx, user.ID, requester.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	if edge != nil && edge.Status == models.FriendshipAccepted {
		return nil, nil, nil, apperr.Conflict("Already friends with %s", requester.Username)
	}
	if edge == nil || edge.Status != models.FriendshipPending || edge.RequesterID != requester.ID {
		return nil, nil, nil, apperr.NotFound("No pending friend request from %s", requester.Username)
	}
	return user, requester, edge, nil
}

// transition moves edge from one status to another, failing with ErrRetry if
// a concurrent request changed the row first.
func (s *Service) transition(ctx context.Context, tx *database.Tx, edge *models.Friendship, from, to models.FriendshipStatus, requesterID string, now time.Time) error {
	var responded interface{} = now
	requestedAt := edge.RequestedAt
	if to == models.FriendshipPending {
		responded = nil
		requestedAt = now
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE friendships SET status = ?, requester_id = ?, requested_at = ?, responded_at = ?
		 WHERE user_low = ? AND user_high = ? AND status = ?`,
		string(to), requesterID, requestedAt, responded, edge.UserLow, edge.UserHigh, string(from))
	if err != nil {
		return apperr.Internal(fmt.Errorf("update friendship: %w", err))
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return database.ErrRetry
	}
	edge.Status = to
	edge.RequesterID = requesterID
	return nil
}

func (s *Service) loadEdge(ctx context.Context, tx *database.Tx, a, b string) (*models.Friendship, error) {
	low, high := models.PairKey(a, b)
	var f models.Friendship
	var status string
	var responded sql.NullTime
	err := tx.QueryRowContext(ctx,
		`SELECT user_low, user_high, requester_id, status, requested_at, responded_at
		 FROM friendships WHERE user_low = ? AND user_high = ?`+s.db.ForUpdate(), low, high).
		Scan(&f.UserLow, &f.UserHigh, &f.RequesterID, &status, &f.RequestedAt, &responded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load friendship: %w", err))
	}
	f.Status = models.FriendshipStatus(status)
	if responded.Valid {
		t := responded.Time
		f.RespondedAt = &t
	}
	return &f, nil
}

// Relationship reports the status between two users, or "" if they have none.
func (s *Service) Relationship(ctx context.Context, usernameA, usernameB string) (models.FriendshipStatus, error) {
	var status models.FriendshipStatus
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		a, err := library.FindUserByUsername(ctx, tx, usernameA)
		if err != nil {
			return err
		}
		b, err := library.FindUserByUsername(ctx, tx, usernameB)
		if err != nil {
			return err
		}
		edge, err := s.loadEdge(ctx, tx, a.ID, b.ID)
		if err != nil || edge == nil {
			return err
		}
		status = edge.Status
		return nil
	})
	return status, apperr.Classify(err)
}

// Friends lists the accepted friends of username.
func (s *Service) Friends(ctx context.Context, username string) ([]models.UserSummary, error) {
	user, err := library.FindUserByUsername(ctx, s.db, username)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.image_url
		FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.user_low = ? THEN f.user_high ELSE f.user_low END
		WHERE (f.user_low = ? OR f.user_high = ?) AND f.status = ?
		ORDER BY u.username`,
		user.ID, user.ID, user.ID, string(models.FriendshipAccepted))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list friends: %w", err))
	}
	defer rows.Close()

	friends := []models.UserSummary{}
	for rows.Next() {
		var f models.UserSummary
		if err := rows.Scan(&f.ID, &f.Username, &f.ImageURL); err != nil {
			return nil, apperr.Internal(err)
		}
		friends = append(friends, f)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return friends, nil
}

// IncomingRequests lists pending requests other users sent to username.
func (s *Service) IncomingRequests(ctx context.Context, username string) ([]models.FriendRequestView, error) {
	user, err := library.FindUserByUsername(ctx, s.db, username)
	if err != nil {
		return nil, err
	}
	return s.requests(ctx, `
		SELECT u.id, u.username, u.image_url, f.requested_at
		FROM friendships f
		JOIN users u ON u.id = f.requester_id
		WHERE (f.user_low = ? OR f.user_high = ?) AND f.requester_id <> ? AND f.status = ?
		ORDER BY f.requested_at`,
		user.ID, user.ID, user.ID, string(models.FriendshipPending))
}

// SentRequests lists pending requests username is waiting on.
func (s *Service) SentRequests(ctx context.Context, username string) ([]models.FriendRequestView, error) {
	user, err := library.FindUserByUsername(ctx, s.db, username)
	if err != nil {
		return nil, err
	}
	return s.requests(ctx, `
		SELECT u.id, u.username, u.image_url, f.requested_at
		FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.user_low = ? THEN f.user_high ELSE f.user_low END
		WHERE f.requester_id = ? AND f.status = ?
		ORDER BY f.requested_at`,
		user.ID, user.ID, string(models.FriendshipPending))
}

func (s *Service) requests(ctx context.Context, query string, args ...interface{}) ([]models.FriendRequestView, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list friend requests: %w", err))
	}
	defer rows.Close()

	requests := []models.FriendRequestView{}
	for rows.Next() {
		var r models.FriendRequestView
		if err := rows.Scan(&r.User.ID, &r.User.Username, &r.User.ImageURL, &r.RequestedAt); err != nil {
			return nil, apperr.Internal(err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return requests, nil
}
