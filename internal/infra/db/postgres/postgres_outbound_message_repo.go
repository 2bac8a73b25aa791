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

var _ repository.OutboundMessageRepository = (*OutboundMessageRepo)(nil)

// OutboundMessageRepo persists the message ledger in the outbound_messages
// table. One row per physical Telegram message.
type OutboundMessageRepo struct {
	pool *pgxpool.Pool
}

func NewOutboundMessageRepo(pool *pgxpool.Pool) *OutboundMessageRepo {
	return &OutboundMessageRepo{pool: pool}
}

const outboundCols = `
id, entity_type, entity_id, chat_id, thread_id, message_id,
media_group_id, caption, is_media, price, created_at, updated_at`

func (r *OutboundMessageRepo) RecordSend(ctx context.Context, tx repository.Tx, rows []*model.OutboundMessage) error {
	const q = `
INSERT INTO outbound_messages (` + outboundCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (chat_id, message_id) DO NOTHING;`

	for _, m := range rows {
		_, err := execSQL(ctx, r.pool, tx, q,
			m.ID, string(m.EntityType), m.EntityID, m.ChatID, m.ThreadID, m.MessageID,
			m.MediaGroupID, m.Caption, m.IsMedia, m.Price, m.CreatedAt, m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("record send (chat %d msg %d): %w", m.ChatID, m.MessageID, err)
		}
	}
	return nil
}

func (r *OutboundMessageRepo) FindByEntity(ctx context.Context, tx repository.Tx, et model.EntityType, entityID int64) ([]*model.OutboundMessage, error) {
	const q = `
SELECT ` + outboundCols + `
  FROM outbound_messages
 WHERE entity_type=$1 AND entity_id=$2
 ORDER BY chat_id, message_id;`
	rows, err := pickRows(ctx, r.pool, tx, q, string(et), entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOutbound(rows)
}

func (r *OutboundMessageRepo) FindByEntityAndChat(ctx context.Context, tx repository.Tx, et model.EntityType, entityID, chatID int64) ([]*model.OutboundMessage, error) {
	const q = `
SELECT ` + outboundCols + `
  FROM outbound_messages
 WHERE entity_type=$1 AND entity_id=$2 AND chat_id=$3
 ORDER BY message_id;`
	rows, err := pickRows(ctx, r.pool, tx, q, string(et), entityID, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOutbound(rows)
}

func (r *OutboundMessageRepo) FindByMessage(ctx context.Context, tx repository.Tx, chatID int64, messageID int) (*model.OutboundMessage, error) {
	const q = `
SELECT ` + outboundCols + `
  FROM outbound_messages
 WHERE chat_id=$1 AND message_id=$2;`
	row := pickRow(ctx, r.pool, tx, q, chatID, messageID)
	var m model.OutboundMessage
	if err := scanOutboundRow(row, &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// UpdateCaption refreshes caption and price on the primary row only. The key
// in the WHERE clause makes this a per-(entity, chat) atomic update, safe
// against concurrent writers touching other rows.
func (r *OutboundMessageRepo) UpdateCaption(ctx context.Context, tx repository.Tx, et model.EntityType, entityID, chatID int64, caption string, price *int) error {
	const q = `
UPDATE outbound_messages
   SET caption=$4, price=$5, updated_at=NOW()
 WHERE entity_type=$1 AND entity_id=$2 AND chat_id=$3 AND caption <> '';`
	tag, err := execSQL(ctx, r.pool, tx, q, string(et), entityID, chatID, caption, price)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OutboundMessageRepo) DeleteByEntity(ctx context.Context, tx repository.Tx, et model.EntityType, entityID int64) error {
	const q = `DELETE FROM outbound_messages WHERE entity_type=$1 AND entity_id=$2;`
	_, err := execSQL(ctx, r.pool, tx, q, string(et), entityID)
	return err
}

func (r *OutboundMessageRepo) DeleteByEntityAndChat(ctx context.Context, tx repository.Tx, et model.EntityType, entityID, chatID int64) error {
	const q = `DELETE FROM outbound_messages WHERE entity_type=$1 AND entity_id=$2 AND chat_id=$3;`
	_, err := execSQL(ctx, r.pool, tx, q, string(et), entityID, chatID)
	return err
}

func (r *OutboundMessageRepo) CountRows(ctx context.Context, tx repository.Tx) (int, error) {
	row := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM outbound_messages;`)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count ledger rows: %w", err)
	}
	return n, nil
}

func scanOutbound(rows pgx.Rows) ([]*model.OutboundMessage, error) {
	var out []*model.OutboundMessage
	for rows.Next() {
		var m model.OutboundMessage
		if err := scanOutboundRow(rows, &m); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func scanOutboundRow(row pgx.Row, m *model.OutboundMessage) error {
	var entityType string
	err := row.Scan(
		&m.ID, &entityType, &m.EntityID, &m.ChatID, &m.ThreadID, &m.MessageID,
		&m.MediaGroupID, &m.Caption, &m.IsMedia, &m.Price, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return err
	}
	m.EntityType = model.EntityType(entityType)
	return nil
}
