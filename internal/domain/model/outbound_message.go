package model

import (
	"time"

	"github.com/google/uuid"
)

// EntityType identifies the kind of domain record a ledger row belongs to.
type EntityType string

const (
	EntityAd   EntityType = "ad"
	EntityPost EntityType = "post"
)

// MessageRef is the normalized result of one delivered Telegram message.
// Media groups produce one ref per photo, all sharing the same MediaGroupID.
type MessageRef struct {
	MessageID    int
	MediaGroupID string
}

// OutboundMessage is one ledger row: the durable record that message
// MessageID in chat ChatID was sent for entity (EntityType, EntityID).
// The ledger is the source of truth for edit-vs-create-vs-skip decisions.
type OutboundMessage struct {
	ID           string
	EntityType   EntityType
	EntityID     int64
	ChatID       int64
	ThreadID     int
	MessageID    int
	MediaGroupID string
	Caption      string // text actually sent; empty on non-first album rows
	IsMedia      bool
	Price        *int // structured price carried alongside the text, never scraped back out of it
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BuildLedgerRows expands the refs returned by a send into ledger rows.
// For media groups only the first row carries the caption and price; every
// row records the shared media group id so a repost can delete all of them.
func BuildLedgerRows(et EntityType, entityID int64, dst Destination, refs []MessageRef, caption string, price *int, isMedia bool) []*OutboundMessage {
	now := time.Now()
	rows := make([]*OutboundMessage, 0, len(refs))
	for i, ref := range refs {
		row := &OutboundMessage{
			ID:           uuid.NewString(),
			EntityType:   et,
			EntityID:     entityID,
			ChatID:       dst.ChatID,
			ThreadID:     dst.ThreadID,
			MessageID:    ref.MessageID,
			MediaGroupID: ref.MediaGroupID,
			IsMedia:      isMedia,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if i == 0 {
			row.Caption = caption
			row.Price = price
		}
		rows = append(rows, row)
	}
	return rows
}

// Primary returns the row carrying the caption (the first message of an
// album, or the single message of a text send). Nil when rows is empty.
func Primary(rows []*OutboundMessage) *OutboundMessage {
	for _, r := range rows {
		if r.Caption != "" {
			return r
		}
	}
	if len(rows) > 0 {
		return rows[0]
	}
	return nil
}
