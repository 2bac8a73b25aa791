package repository

import (
	"context"

	"telegram-classifieds-notify/internal/domain/model"
)

// OutboundMessageRepository is the message ledger: the persistent mapping
// between domain entities and the Telegram messages sent for them.
type OutboundMessageRepository interface {
	// RecordSend inserts one row per delivered message. Media groups insert
	// several rows sharing a media group id; only the first carries the caption.
	RecordSend(ctx context.Context, tx Tx, rows []*model.OutboundMessage) error

	// FindByEntity returns every row for the entity across all chats.
	FindByEntity(ctx context.Context, tx Tx, et model.EntityType, entityID int64) ([]*model.OutboundMessage, error)

	// FindByEntityAndChat returns the rows for one (entity, chat) pair.
	FindByEntityAndChat(ctx context.Context, tx Tx, et model.EntityType, entityID, chatID int64) ([]*model.OutboundMessage, error)

	// FindByMessage is the reverse lookup used when an inbound reply must be
	// traced back to its originating entity.
	FindByMessage(ctx context.Context, tx Tx, chatID int64, messageID int) (*model.OutboundMessage, error)

	// UpdateCaption refreshes the stored caption and price after a successful
	// edit. The update is keyed so concurrent writers cannot clobber rows of
	// other entities or chats.
	UpdateCaption(ctx context.Context, tx Tx, et model.EntityType, entityID, chatID int64, caption string, price *int) error

	// DeleteByEntity removes all rows for an entity. Never conditioned on the
	// remote delete having succeeded; the ledger must not keep stale refs.
	DeleteByEntity(ctx context.Context, tx Tx, et model.EntityType, entityID int64) error

	// DeleteByEntityAndChat removes the rows for one (entity, chat) pair,
	// used by repost and by implicit deselection cleanup.
	DeleteByEntityAndChat(ctx context.Context, tx Tx, et model.EntityType, entityID, chatID int64) error

	// CountRows reports the ledger size, used by the stats worker.
	CountRows(ctx context.Context, tx Tx) (int, error)
}
