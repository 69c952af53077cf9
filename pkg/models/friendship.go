package models

import "time"

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipDeclined FriendshipStatus = "declined"
)

// Friendship is the single relationship edge between two users. UserLow and
// UserHigh hold the pair's IDs in sorted order so each unordered pair maps to
// exactly one row.
type Friendship struct {
	UserLow     string           `json:"userLow" db:"user_low"`
	UserHigh    string           `json:"userHigh" db:"user_high"`
	RequesterID string           `json:"requesterId" db:"requester_id"`
	Status      FriendshipStatus `json:"status" db:"status"`
	RequestedAt time.Time        `json:"requestedAt" db:"requested_at"`
	RespondedAt *time.Time       `json:"respondedAt,omitempty" db:"responded_at"`
}

// PairKey orders two user IDs the way the friendships table stores them.
func PairKey(a, b string) (low, high string) {
	if a < b {
		return a, b
	}
	return b, a
}

// Other returns the member of the pair that is not userID.
func (f *Friendship) Other(userID string) string {
	if f.UserLow == userID {
		return f.UserHigh
	}
	return f.UserLow
}

type SendFriendRequestBody struct {
	FromUsername string `json:"fromUsername" binding:"required"`
	ToUsername   string `json:"toUsername" binding:"required"`
}

// RespondFriendRequestBody is used for both accept and decline.
type RespondFriendRequestBody struct {
	Username    string `json:"username" binding:"required"`
	RequesterID string `json:"requesterId" binding:"required"`
}

type FriendRequestView struct {
	User        UserSummary `json:"user"`
	RequestedAt time.Time   `json:"requestedAt"`
}
