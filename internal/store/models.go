package store

import (
	"time"

	"github.com/SsToRR/HourlyBot/internal/domain"
)

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u         domain.User
		activeInt int
		everInt   int
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&u.ID, &u.Name, &activeInt, &everInt, &u.ConversationRef, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	u.Active = activeInt != 0
	u.EverSubscribed = everInt != 0
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	u.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &u, nil
}
