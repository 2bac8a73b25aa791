package repository

import (
	"context"

	"telegram-classifieds-notify/internal/domain/model"
)

// DestinationRepository stores DB-backed chat destinations. Static aliases
// from the config file are resolved before this repository is consulted.
type DestinationRepository interface {
	FindByKey(ctx context.Context, tx Tx, key string) (*model.Destination, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Destination, error)
	Save(ctx context.Context, tx Tx, d *model.Destination) error
}

// OwnerLookup resolves the Telegram chat of the user who owns an entity,
// so inbound replies can be forwarded. Implemented against the main app's
// tables; the notifier only reads.
type OwnerLookup interface {
	OwnerChatID(ctx context.Context, tx Tx, et model.EntityType, entityID int64) (int64, error)
}
