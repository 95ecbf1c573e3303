package store

import (
	"context"
	"errors"

	"github.com/SsToRR/HourlyBot/internal/domain"
)

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("not found")

// Repo defines storage operations for the subscription registry and the
// response ledger.
type Repo interface {
	// TouchContact creates the user on first contact (inactive) and always
	// overwrites name and conversation reference with the latest values.
	TouchContact(ctx context.Context, userID, name, conversationRef string) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	Subscribe(ctx context.Context, userID, name string) (domain.SubscribeOutcome, error)
	// Unsubscribe reports whether the user was actually subscribed.
	Unsubscribe(ctx context.Context, userID string) (bool, error)
	ActiveUsers(ctx context.Context) ([]domain.User, error)

	// UpsertPlaceholder creates an empty response row for (user, date, slot)
	// if none exists. Idempotent under concurrent calls.
	UpsertPlaceholder(ctx context.Context, userID, date string, slot domain.Slot) error
	// RecordAnswer writes the answer for (user, date, slot), overwriting any
	// earlier text. Only the latest answer per slot is kept.
	RecordAnswer(ctx context.Context, userID, date string, slot domain.Slot, text string) (domain.RecordOutcome, error)
	// ListResponses returns the user's responses for a date, slot ascending.
	ListResponses(ctx context.Context, userID, date string) ([]domain.Response, error)
	// PurgeOlderThan deletes responses dated strictly before cutoffDate.
	PurgeOlderThan(ctx context.Context, cutoffDate string) (int64, error)

	Close() error
}
