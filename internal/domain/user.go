package domain

import "time"

// DateLayout is the calendar-date key format used by the response ledger.
const DateLayout = "2006-01-02"

// DateOf returns the calendar date key for t in t's location.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// User is a chat user known to the bot. Users are created on first contact
// and soft-deactivated on unsubscribe; the identity row is never deleted.
type User struct {
	ID              string
	Name            string
	Active          bool
	EverSubscribed  bool // distinguishes first-contact rows from lapsed subscribers
	ConversationRef string // opaque serialized reference for proactive sends, may be empty
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Response is one user's answer (or pending placeholder) for a question slot.
// At most one row exists per (UserID, Date, Slot).
type Response struct {
	UserID     string
	Date       string
	Slot       Slot
	Text       string // empty means asked but not yet answered
	RecordedAt time.Time
}

// Answered reports whether the response holds actual answer text.
func (r Response) Answered() bool { return r.Text != "" }

// SubscribeOutcome tells the router which acknowledgment to send.
type SubscribeOutcome int

const (
	SubscribedNew SubscribeOutcome = iota
	SubscribedAlready
	SubscribedAgain // was inactive, reactivated
)

// RecordOutcome distinguishes a first answer from an overwrite of the same slot.
type RecordOutcome int

const (
	RecordCreated RecordOutcome = iota
	RecordUpdated
)
