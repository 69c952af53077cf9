package models

import "time"

type BookClub struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	BookID    string    `json:"bookId" db:"book_id"`
	AdminID   string    `json:"adminId" db:"admin_id"`
	StartDate Date      `json:"startDate" db:"start_date"`
	EndDate   *Date     `json:"endDate" db:"end_date"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Message is one entry of a club's append-only message board. Seq orders
// messages within a club.
type Message struct {
	ID       string      `json:"id" db:"id"`
	ClubID   string      `json:"clubId" db:"club_id"`
	Seq      int64       `json:"seq" db:"seq"`
	Message  string      `json:"message" db:"message"`
	PostedBy UserSummary `json:"postedBy"`
	PostedAt time.Time   `json:"postedAt" db:"posted_at"`
}

type CreateBookClubRequest struct {
	Name      string `json:"name" binding:"required"`
	BookID    string `json:"bookId" binding:"required"`
	Username  string `json:"username" binding:"required"`
	StartDate Date   `json:"startDate"`
	EndDate   *Date  `json:"endDate"`
}

type PostMessageRequest struct {
	Message  string `json:"message" binding:"required"`
	Username string `json:"username" binding:"required"`
}

// Membership is the snapshot returned by the membership check. Book is the
// caller's personal copy of the club's book and may be nil.
type Membership struct {
	IsMember      bool          `json:"isMember"`
	BookClub      *BookClub     `json:"bookClub,omitempty"`
	CanonicalBook *Book         `json:"canonicalBook,omitempty"`
	Book          *Book         `json:"book"`
	Members       []UserSummary `json:"members,omitempty"`
	MessageBoard  []Message     `json:"messageBoard,omitempty"`
	Provisioned   bool          `json:"provisioned,omitempty"`
}

// JoinResult reports a join. CopyCreated is false when the member already
// owned a book with the club's ISBN.
type JoinResult struct {
	BookClub    *BookClub `json:"BookClub"`
	Book        *Book     `json:"book"`
	CopyCreated bool      `json:"copyCreated"`
}

type ClubSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	BookTitle   string `json:"bookTitle"`
	MemberCount int    `json:"memberCount"`
}
