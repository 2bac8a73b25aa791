package model

// UpdateKind is the caller-supplied flag describing what happened to the
// underlying entity.
type UpdateKind string

const (
	KindCreate     UpdateKind = "create"
	KindUpdateText UpdateKind = "update_text"
	KindRepost     UpdateKind = "repost" // delete existing messages, send fresh (image-set changes)
	KindKeep       UpdateKind = "keep"
	KindDelete     UpdateKind = "delete"
)

// Intent is the per-destination action derived from the ledger state and the
// update kind. Ephemeral; never persisted.
type Intent string

const (
	IntentCreate           Intent = "create"
	IntentEditText         Intent = "edit_text"
	IntentEditCaption      Intent = "edit_caption"
	IntentSkip             Intent = "skip_unchanged"
	IntentDeleteThenCreate Intent = "delete_then_recreate"
	IntentKeep             Intent = "keep"
	IntentDelete           Intent = "delete"
)

// Notification is the payload a domain use case hands to the orchestrator.
type Notification struct {
	EntityType      EntityType
	EntityID        int64
	Title           string
	Content         string
	Price           *int
	AuthorName      string // telegram username, may be empty
	AuthorID        int64
	Link            string
	BookingCount    int
	PhotoURLs       []string
	DestinationKeys []string
	Kind            UpdateKind
}

// DispatchResult is the per-destination outcome of one orchestrator run.
// One entry per destination attempted; a failed destination never aborts
// its siblings.
type DispatchResult struct {
	ChatID  int64
	Action  Intent
	OK      bool
	Skipped bool
	Err     error
}
