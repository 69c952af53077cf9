package metrics

import (
	"sync/atomic"
)

type Metrics struct {
	friendRequestsSent        int64
	friendshipsAccepted       int64
	friendRequestsDeclined    int64
	clubsCreated              int64
	clubJoins                 int64
	personalCopiesProvisioned int64
	messagesPosted            int64
	txRetries                 int64
}

var global = &Metrics{}

func IncrementFriendRequestsSent() {
	atomic.AddInt64(&global.friendRequestsSent, 1)
}

func IncrementFriendshipsAccepted() {
	atomic.AddInt64(&global.friendshipsAccepted, 1)
}

func IncrementFriendRequestsDeclined() {
	atomic.AddInt64(&global.friendRequestsDeclined, 1)
}

func IncrementClubsCreated() {
	atomic.AddInt64(&global.clubsCreated, 1)
}

func IncrementClubJoins() {
	atomic.AddInt64(&global.clubJoins, 1)
}

func IncrementPersonalCopies() {
	atomic.AddInt64(&global.personalCopiesProvisioned, 1)
}

func IncrementMessagesPosted() {
	atomic.AddInt64(&global.messagesPosted, 1)
}

func IncrementTxRetries() {
	atomic.AddInt64(&global.txRetries, 1)
}

func Snapshot() map[string]int64 {
	return map[string]int64{
		"friend_requests_sent":        atomic.LoadInt64(&global.friendRequestsSent),
		"friendships_accepted":        atomic.LoadInt64(&global.friendshipsAccepted),
		"friend_requests_declined":    atomic.LoadInt64(&global.friendRequestsDeclined),
		"clubs_created":               atomic.LoadInt64(&global.clubsCreated),
		"club_joins":                  atomic.LoadInt64(&global.clubJoins),
		"personal_copies_provisioned": atomic.LoadInt64(&global.personalCopiesProvisioned),
		"messages_posted":             atomic.LoadInt64(&global.messagesPosted),
		"tx_retries":                  atomic.LoadInt64(&global.txRetries),
	}
}

func Reset() {
	atomic.StoreInt64(&global.friendRequestsSent, 0)
	atomic.StoreInt64(&global.friendshipsAccepted, 0)
	atomic.StoreInt64(&global.friendRequestsDeclined, 0)
	atomic.StoreInt64(&global.clubsCreated, 0)
	atomic.StoreInt64(&global.clubJoins, 0)
	atomic.StoreInt64(&global.personalCopiesProvisioned, 0)
	atomic.StoreInt64(&global.messagesPosted, 0)
	atomic.StoreInt64(&global.txRetries, 0)
	ResetMetrics()
}
