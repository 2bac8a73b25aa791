package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-classifieds-notify/internal/domain"
	"telegram-classifieds-notify/internal/domain/model"
	"telegram-classifieds-notify/internal/domain/ports/repository"
)

var _ repository.OwnerLookup = (*OwnerLookupRepo)(nil)

// OwnerLookupRepo reads the main app's tables to find the Telegram chat of
// an entity's author. Read-only; the notifier never writes these tables.
type OwnerLookupRepo struct {
	pool *pgxpool.Pool
}

func NewOwnerLookupRepo(pool *pgxpool.Pool) *OwnerLookupRepo {
	return &OwnerLookupRepo{pool: pool}
}

func (r *OwnerLookupRepo) OwnerChatID(ctx context.Context, tx repository.Tx, et model.EntityType, entityID int64) (int64, error) {
	var q string
	switch et {
	case model.EntityAd:
		q = `SELECT u.telegram_id FROM ads a JOIN users u ON u.id = a.author_id WHERE a.id=$1;`
	case model.EntityPost:
		q = `SELECT u.telegram_id FROM posts p JOIN users u ON u.id = p.author_id WHERE p.id=$1;`
	default:
		return 0, fmt.Errorf("owner lookup: %w: entity type %q", domain.ErrInvalidArgument, et)
	}

	row := pickRow(ctx, r.pool, tx, q, entityID)
	var chatID int64
	if err := row.Scan(&chatID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return chatID, nil
}
