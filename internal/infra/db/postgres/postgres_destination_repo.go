package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-classifieds-notify/internal/domain"
	"telegram-classifieds-notify/internal/domain/model"
	"telegram-classifieds-notify/internal/domain/ports/repository"
)

var _ repository.DestinationRepository = (*DestinationRepo)(nil)

// DestinationRepo stores admin-managed chat destinations in chat_destinations.
type DestinationRepo struct {
	pool *pgxpool.Pool
}

func NewDestinationRepo(pool *pgxpool.Pool) *DestinationRepo {
	return &DestinationRepo{pool: pool}
}

func (r *DestinationRepo) FindByKey(ctx context.Context, tx repository.Tx, key string) (*model.Destination, error) {
	const q = `
SELECT key, chat_id, thread_id, name, active
  FROM chat_destinations WHERE key=$1;`
	row := pickRow(ctx, r.pool, tx, q, key)
	var d model.Destination
	if err := row.Scan(&d.Key, &d.ChatID, &d.ThreadID, &d.Name, &d.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *DestinationRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Destination, error) {
	const q = `
SELECT key, chat_id, thread_id, name, active
  FROM chat_destinations WHERE active ORDER BY key;`
	rows, err := pickRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Destination
	for rows.Next() {
		var d model.Destination
		if err := rows.Scan(&d.Key, &d.ChatID, &d.ThreadID, &d.Name, &d.Active); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (r *DestinationRepo) Save(ctx context.Context, tx repository.Tx, d *model.Destination) error {
	const q = `
INSERT INTO chat_destinations (key, chat_id, thread_id, name, active)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (key) DO UPDATE SET
  chat_id=$2, thread_id=$3, name=$4, active=$5;`
	_, err := execSQL(ctx, r.pool, tx, q, d.Key, d.ChatID, d.ThreadID, d.Name, d.Active)
	return err
}
