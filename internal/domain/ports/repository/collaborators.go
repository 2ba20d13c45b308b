package repository

import (
	"context"

	"creator-ledger/internal/domain/model"
)

// -----------------------------
// External collaborators
// -----------------------------

// UserRepository reads accounts owned by the identity service.
type UserRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
}

// VideoRepository resolves video ownership from the catalog.
type VideoRepository interface {
	FindOwnerID(ctx context.Context, tx Tx, videoID string) (string, error)
}

// WebhookEventRepository records processed gateway events.
type WebhookEventRepository interface {
	Exists(ctx context.Context, tx Tx, provider, eventID string) (bool, error)
	Save(ctx context.Context, tx Tx, ev *model.WebhookEvent) error
}
